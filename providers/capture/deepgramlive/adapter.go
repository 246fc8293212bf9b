// Package deepgramlive captures speech through Deepgram's live
// transcription websocket and feeds finalized transcripts to the
// session listener.
package deepgramlive

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tiger/voice-intake-controller/internal/intake/ports"
)

const ProviderID = "capture-deepgram-live"

// Capture failure codes surfaced to the session listener.
const (
	FailureDial     = "dial_failed"
	FailureStream   = "stream_interrupted"
	FailureProtocol = "protocol_error"
)

type Config struct {
	APIKey         string
	Endpoint       string
	Model          string
	Language       string
	SampleRate     int
	Channels       int
	Encoding       string
	InterimResults bool
	DialTimeout    time.Duration
}

func ConfigFromEnv() Config {
	sampleRate := 16000
	if v, err := strconv.Atoi(os.Getenv("INTAKE_STT_DEEPGRAM_SAMPLE_RATE")); err == nil && v > 0 {
		sampleRate = v
	}
	return Config{
		APIKey:      os.Getenv("INTAKE_STT_DEEPGRAM_API_KEY"),
		Endpoint:    defaultString(os.Getenv("INTAKE_STT_DEEPGRAM_ENDPOINT"), "wss://api.deepgram.com/v1/listen"),
		Model:       defaultString(os.Getenv("INTAKE_STT_DEEPGRAM_MODEL"), "nova-2"),
		Language:    defaultString(os.Getenv("INTAKE_STT_DEEPGRAM_LANGUAGE"), "en-US"),
		SampleRate:  sampleRate,
		Channels:    1,
		Encoding:    "linear16",
		DialTimeout: 10 * time.Second,
	}
}

// wireConn is the subset of *websocket.Conn the adapter uses.
type wireConn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type dialFunc func(ctx context.Context, endpoint string, header http.Header) (wireConn, error)

// Adapter is a live speech capture port. Each Start opens one websocket
// stream; Stop closes it and the listener receives a capture-end signal.
type Adapter struct {
	mu       sync.Mutex
	cfg      Config
	dial     dialFunc
	listener ports.CaptureListener
	conn     wireConn
	stopping bool
}

func NewAdapter(cfg Config) (*Adapter, error) {
	return NewAdapterWithDialer(cfg, defaultDial)
}

// NewAdapterWithDialer constructs an adapter with an injected websocket
// dialer, used by tests.
func NewAdapterWithDialer(cfg Config, dial dialFunc) (*Adapter, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, fmt.Errorf("deepgram live endpoint is required")
	}
	if dial == nil {
		return nil, fmt.Errorf("websocket dialer is required")
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}
	if strings.TrimSpace(cfg.Encoding) == "" {
		cfg.Encoding = "linear16"
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 10 * time.Second
	}
	return &Adapter{cfg: cfg, dial: dial}, nil
}

func defaultDial(ctx context.Context, endpoint string, header http.Header) (wireConn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, resp, err := dialer.DialContext(ctx, endpoint, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func (a *Adapter) SetListener(listener ports.CaptureListener) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listener = listener
}

// Start opens the live stream and reads transcript frames until the
// stream ends or Stop is called.
func (a *Adapter) Start(ctx context.Context) error {
	a.mu.Lock()
	listener := a.listener
	if listener == nil {
		a.mu.Unlock()
		return fmt.Errorf("capture listener is not set")
	}
	if a.conn != nil {
		a.mu.Unlock()
		return fmt.Errorf("capture stream is already open")
	}
	cfg := a.cfg
	dial := a.dial
	a.stopping = false
	a.mu.Unlock()

	endpoint, err := streamURL(cfg)
	if err != nil {
		return err
	}
	header := http.Header{}
	if cfg.APIKey != "" {
		header.Set("Authorization", "Token "+cfg.APIKey)
	}

	dialCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	conn, err := dial(dialCtx, endpoint, header)
	if err != nil {
		listener.OnCaptureError(FailureDial)
		return fmt.Errorf("dial deepgram live stream: %w", err)
	}

	a.mu.Lock()
	a.conn = conn
	a.mu.Unlock()

	go a.readLoop(conn, listener)
	return nil
}

// Stop closes the open stream. The read loop reports capture end.
func (a *Adapter) Stop() error {
	a.mu.Lock()
	conn := a.conn
	a.stopping = true
	a.mu.Unlock()
	if conn == nil {
		return nil
	}
	// Best effort close handshake; the read loop unblocks either way.
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return conn.Close()
}

// WriteAudio forwards raw audio bytes onto the open stream.
func (a *Adapter) WriteAudio(p []byte) error {
	a.mu.Lock()
	conn := a.conn
	a.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("capture stream is not open")
	}
	return conn.WriteMessage(websocket.BinaryMessage, p)
}

type resultMessage struct {
	Type    string `json:"type"`
	IsFinal bool   `json:"is_final"`
	Channel struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
	} `json:"channel"`
}

func (a *Adapter) readLoop(conn wireConn, listener ports.CaptureListener) {
	defer a.release(conn)
	for {
		msgType, payload, err := conn.ReadMessage()
		if err != nil {
			if a.wasStopping() || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				listener.OnCaptureEnd()
				return
			}
			listener.OnCaptureError(FailureStream)
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		var msg resultMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			listener.OnCaptureError(FailureProtocol)
			return
		}
		if msg.Type != "Results" || !msg.IsFinal || len(msg.Channel.Alternatives) == 0 {
			continue
		}
		alt := msg.Channel.Alternatives[0]
		if strings.TrimSpace(alt.Transcript) == "" {
			continue
		}
		listener.OnTranscript(alt.Transcript, alt.Confidence)
	}
}

func (a *Adapter) release(conn wireConn) {
	_ = conn.Close()
	a.mu.Lock()
	if a.conn == conn {
		a.conn = nil
	}
	a.mu.Unlock()
}

func (a *Adapter) wasStopping() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stopping
}

func streamURL(cfg Config) (string, error) {
	u, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return "", fmt.Errorf("parse deepgram live endpoint: %w", err)
	}
	q := u.Query()
	q.Set("model", cfg.Model)
	q.Set("language", cfg.Language)
	q.Set("encoding", cfg.Encoding)
	q.Set("sample_rate", strconv.Itoa(cfg.SampleRate))
	q.Set("channels", strconv.Itoa(cfg.Channels))
	q.Set("interim_results", strconv.FormatBool(cfg.InterimResults))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func defaultString(v string, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
