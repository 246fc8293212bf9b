package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tiger/voice-intake-controller/api/intake"
	"github.com/tiger/voice-intake-controller/internal/intake/controller"
	"github.com/tiger/voice-intake-controller/internal/intake/snapshot"
	"github.com/tiger/voice-intake-controller/internal/tooling/validation"
	"github.com/tiger/voice-intake-controller/providers/capture/scripted"
	"github.com/tiger/voice-intake-controller/providers/prompt/console"
	"github.com/tiger/voice-intake-controller/providers/validation/remote"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, time.Now); err != nil {
		fmt.Fprintf(os.Stderr, "intake-cli: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer, now func() time.Time) error {
	if len(args) == 0 {
		printUsage(stdout)
		return nil
	}

	switch args[0] {
	case "help", "-h", "--help":
		printUsage(stdout)
		return nil
	case "run":
		return runSession(args[1:], stdout, now)
	case "validate-contracts":
		fixtureRoot := filepath.Join("test", "contract", "fixtures")
		schemaPath := filepath.Join("docs", "IntakeArtifacts.schema.json")
		if len(args) >= 2 {
			fixtureRoot = args[1]
		}
		if len(args) >= 3 {
			schemaPath = args[2]
		}
		summary, err := validation.ValidateContractFixturesWithSchema(schemaPath, fixtureRoot)
		if err != nil {
			return fmt.Errorf("contract validation failed to execute: %w", err)
		}
		fmt.Fprintln(stdout, validation.RenderSummary(summary))
		if summary.Failed > 0 {
			return fmt.Errorf("%d contract fixtures failed", summary.Failed)
		}
		return nil
	default:
		printUsage(stdout)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "intake-cli usage:")
	fmt.Fprintln(w, "  intake-cli run -questions <script.json> -utterances <utterances.json> [-quick] [-snapshot-db <path>] [-batch-endpoint <url>] [-timeout <duration>]")
	fmt.Fprintln(w, "  intake-cli validate-contracts [fixture_root] [schema_path]")
}

func runSession(args []string, stdout io.Writer, now func() time.Time) error {
	flags := flag.NewFlagSet("run", flag.ContinueOnError)
	flags.SetOutput(stdout)
	questionsPath := flags.String("questions", "", "path to the question script JSON")
	utterancesPath := flags.String("utterances", "", "path to the scripted utterances JSON")
	snapshotDB := flags.String("snapshot-db", "", "optional sqlite path for answer snapshots")
	quick := flags.Bool("quick", false, "start the session in quick mode")
	batchEndpoint := flags.String("batch-endpoint", "", "remote batch validation endpoint (overrides env)")
	timeout := flags.Duration("timeout", 30*time.Second, "maximum session duration")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *questionsPath == "" || *utterancesPath == "" {
		return fmt.Errorf("both -questions and -utterances are required")
	}

	rawScript, err := os.ReadFile(*questionsPath)
	if err != nil {
		return fmt.Errorf("read question script: %w", err)
	}
	questions, err := validation.ValidateQuestionScript(rawScript)
	if err != nil {
		return fmt.Errorf("question script invalid: %w", err)
	}

	rawUtterances, err := os.ReadFile(*utterancesPath)
	if err != nil {
		return fmt.Errorf("read utterances: %w", err)
	}
	var utterances []scripted.Utterance
	if err := json.Unmarshal(rawUtterances, &utterances); err != nil {
		return fmt.Errorf("utterances invalid: %w", err)
	}

	remoteCfg := remote.ConfigFromEnv()
	if *batchEndpoint != "" {
		remoteCfg.BatchEndpoint = *batchEndpoint
	}
	client, err := remote.NewClient(remoteCfg)
	if err != nil {
		return err
	}
	resolver, err := remote.NewResolver(client)
	if err != nil {
		return err
	}

	var snapshots snapshot.Store = snapshot.NullStore{}
	if *snapshotDB != "" {
		store, err := snapshot.NewSQLiteStore(*snapshotDB)
		if err != nil {
			return fmt.Errorf("open snapshot store: %w", err)
		}
		defer store.Close()
		snapshots = store
	}

	out := &lockedWriter{w: stdout}
	done := make(chan intake.Submission, 1)

	ctl, err := controller.New(controller.Config{
		Questions: questions,
		Capture:   scripted.New(utterances),
		Prompt:    console.New(out),
		Remote:    resolver,
		Snapshots: snapshots,
		Observer:  &consoleObserver{out: out},
		SubmissionSink: func(s intake.Submission) {
			select {
			case done <- s:
			default:
			}
		},
		Now: now,
	})
	if err != nil {
		return err
	}
	defer ctl.Close()

	if *quick {
		ctl.ToggleMode()
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	fmt.Fprintf(out, "session %s starting (%d questions, mode=%s)\n", ctl.SessionID(), len(questions), ctl.Mode())
	if err := ctl.Start(ctx); err != nil {
		return err
	}

	select {
	case submission := <-done:
		data, err := json.MarshalIndent(submission, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "session complete:\n%s\n", data)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("session did not complete within %s (answered %d of %d questions)",
			*timeout, len(ctl.Answers()), len(questions))
	}
}

// lockedWriter serializes output from the event loop and flush goroutines.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

type consoleObserver struct {
	out io.Writer
}

func (o *consoleObserver) PhaseChanged(phase intake.SessionPhase) {
	fmt.Fprintf(o.out, "phase> %s\n", phase)
}

func (o *consoleObserver) AnswersUpdated(map[string]intake.AnswerRecord) {}

func (o *consoleObserver) ConfirmationRequested(question intake.QuestionDefinition, transcript string, confidence float64) {
	fmt.Fprintf(o.out, "confirm> %s heard %q (%.2f)\n", question.FieldKey, transcript, confidence)
}

func (o *consoleObserver) NoticePosted(notice controller.Notice) {
	fmt.Fprintf(o.out, "notice> %s: %s\n", notice.Code, notice.Detail)
}
