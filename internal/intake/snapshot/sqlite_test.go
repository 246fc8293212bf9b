package snapshot

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/tiger/voice-intake-controller/api/intake"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "snapshots.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return store
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	answers := map[string]intake.AnswerRecord{
		"fullName": {
			FieldKey:        "fullName",
			RawTranscript:   "Maria Rodriguez",
			ProcessedValue:  "Maria Rodriguez",
			Source:          intake.SourceLocal,
			Confidence:      0.9,
			ValidationState: intake.ValidationValid,
		},
		"age": {
			FieldKey:        "age",
			RawTranscript:   "45 years old",
			ProcessedValue:  "45",
			Source:          intake.SourceLocal,
			Confidence:      0.95,
			ValidationState: intake.ValidationValid,
		},
	}
	if err := store.Save(context.Background(), "sess-1", answers); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := store.Load(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected two answers, got %+v", loaded)
	}
	if loaded["age"].ProcessedValue != "45" || loaded["age"].Confidence != 0.95 {
		t.Fatalf("unexpected age snapshot: %+v", loaded["age"])
	}
}

func TestSaveUpsertsLatestValue(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	answer := intake.AnswerRecord{
		FieldKey:        "phone",
		RawTranscript:   "555 010 2030",
		ProcessedValue:  "5550102030",
		Source:          intake.SourceLocal,
		Confidence:      0.9,
		ValidationState: intake.ValidationValid,
	}
	if err := store.Save(context.Background(), "sess-2", map[string]intake.AnswerRecord{"phone": answer}); err != nil {
		t.Fatalf("save: %v", err)
	}
	answer.ProcessedValue = "5550102031"
	answer.Source = intake.SourceBatch
	if err := store.Save(context.Background(), "sess-2", map[string]intake.AnswerRecord{"phone": answer}); err != nil {
		t.Fatalf("second save: %v", err)
	}

	loaded, err := store.Load(context.Background(), "sess-2")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 1 || loaded["phone"].ProcessedValue != "5550102031" || loaded["phone"].Source != intake.SourceBatch {
		t.Fatalf("expected single upserted row, got %+v", loaded)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	answer := intake.AnswerRecord{
		FieldKey:        "fullName",
		ProcessedValue:  "Maria Rodriguez",
		Source:          intake.SourceLocal,
		Confidence:      0.9,
		ValidationState: intake.ValidationValid,
	}
	if err := store.Save(context.Background(), "sess-a", map[string]intake.AnswerRecord{"fullName": answer}); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := store.Load(context.Background(), "sess-b")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 0 {
		t.Fatalf("expected empty snapshot for other session, got %+v", loaded)
	}
}

func TestSaveRequiresSessionID(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	if err := store.Save(context.Background(), "", nil); err == nil {
		t.Fatalf("expected blank session_id to fail")
	}
	if _, err := store.Load(context.Background(), ""); err == nil {
		t.Fatalf("expected blank session_id load to fail")
	}
}
