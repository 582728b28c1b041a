package local

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeSession(t *testing.T, dataDir, id string, events, prompts []string) {
	t.Helper()
	dir := filepath.Join(dataDir, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	ws := "id: " + id + "\n" +
		"summary: test session\n" +
		"cwd: /work\n" +
		"created_at: 2026-08-01T10:00:00Z\n" +
		"updated_at: 2026-08-01T12:00:00Z\n"
	if err := os.WriteFile(filepath.Join(dir, workspaceFile), []byte(ws), 0o644); err != nil {
		t.Fatalf("write workspace: %v", err)
	}

	writeLines := func(name string, lines []string) {
		if lines == nil {
			return
		}
		content := ""
		for _, l := range lines {
			content += l + "\n"
		}
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	writeLines(eventsFile, events)
	writeLines(promptsFile, prompts)
}

func TestSessions(t *testing.T) {
	dataDir := t.TempDir()
	writeSession(t, dataDir, "sess-1", []string{
		`{"type":"user","timestamp":"2026-08-01T11:00:00Z","content":"hi"}`,
		`{"type":"assistant","timestamp":"2026-08-01T11:00:05Z","message":{"content":"hello"}}`,
		`{"type":"system","subtype":"init","timestamp":"2026-08-01T10:59:00Z"}`,
	}, nil)
	writeSession(t, dataDir, "sess-2", nil, nil)

	s := New(dataDir)
	sessions, err := s.Sessions(context.Background())
	if err != nil {
		t.Fatalf("Sessions: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	for _, sess := range sessions {
		if sess.ID == "sess-1" {
			if sess.MessageCount != 2 {
				t.Errorf("message count = %d, want 2 (system events excluded)", sess.MessageCount)
			}
			if sess.Name != "test session" {
				t.Errorf("name = %q", sess.Name)
			}
		}
	}
}

func TestSessionsMissingDir(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "nope"))
	sessions, err := s.Sessions(context.Background())
	if err != nil {
		t.Fatalf("missing data dir should not error, got %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("expected no sessions, got %d", len(sessions))
	}
}

func TestEvents(t *testing.T) {
	dataDir := t.TempDir()
	writeSession(t, dataDir, "sess-1", []string{
		`{"type":"user","timestamp":"2026-08-01T11:00:00Z","content":"fix the bug"}`,
		`not valid json at all`,
		`{"type":"assistant","timestamp":"2026-08-01T11:00:05Z","message":{"content":[{"type":"text","text":"on it"}]}}`,
	}, nil)

	s := New(dataDir)
	if _, err := s.Sessions(context.Background()); err != nil {
		t.Fatalf("Sessions: %v", err)
	}

	events, err := s.Events(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("malformed line should be skipped; got %d events", len(events))
	}
	if events[0].PlainText() != "fix the bug" {
		t.Errorf("first event text = %q", events[0].PlainText())
	}
}

func TestEventsUnknownSession(t *testing.T) {
	s := New(t.TempDir())
	if _, err := s.Events(context.Background(), "ghost"); err == nil {
		t.Error("expected error for unknown session")
	}
}

func TestConversation(t *testing.T) {
	dataDir := t.TempDir()
	writeSession(t, dataDir, "sess-1", nil, []string{
		`{"message_type":"user","content":"first prompt","timestamp":"2026-08-01T10:00:00Z"}`,
		`{"message_type":"user","content":"second prompt","timestamp":"2026-08-01T10:05:00Z"}`,
	})

	s := New(dataDir)
	if _, err := s.Sessions(context.Background()); err != nil {
		t.Fatalf("Sessions: %v", err)
	}

	prompts, err := s.Conversation(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("Conversation: %v", err)
	}
	if len(prompts) != 2 {
		t.Fatalf("expected 2 prompts, got %d", len(prompts))
	}
	if prompts[0].Content != "first prompt" {
		t.Errorf("prompt content = %q", prompts[0].Content)
	}

	ev := prompts[0].AsEvent()
	if ev.Type != "user" || ev.Text != "first prompt" {
		t.Errorf("AsEvent = %+v", ev)
	}
}

func TestConversationMissingFile(t *testing.T) {
	dataDir := t.TempDir()
	writeSession(t, dataDir, "sess-1", nil, nil)

	s := New(dataDir)
	if _, err := s.Sessions(context.Background()); err != nil {
		t.Fatalf("Sessions: %v", err)
	}
	prompts, err := s.Conversation(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("missing prompts file should not error, got %v", err)
	}
	if prompts != nil {
		t.Errorf("expected nil prompts, got %d", len(prompts))
	}
}

func TestWatchEmitsDebouncedNotice(t *testing.T) {
	dataDir := t.TempDir()
	writeSession(t, dataDir, "sess-1", []string{`{"type":"user","content":"x"}`}, nil)

	s := New(dataDir)
	if _, err := s.Sessions(context.Background()); err != nil {
		t.Fatalf("Sessions: %v", err)
	}

	notices, closer, err := s.Watch("sess-1")
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer closer.Close()

	// A burst of writes coalesces into one notice.
	path := filepath.Join(dataDir, "sess-1", eventsFile)
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte(`{"type":"user","content":"y"}`+"\n"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	select {
	case n := <-notices:
		if n.SessionID != "sess-1" {
			t.Errorf("notice session = %q", n.SessionID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notice")
	}
}

func TestWatchIgnoresUnrelatedFiles(t *testing.T) {
	dataDir := t.TempDir()
	writeSession(t, dataDir, "sess-1", []string{`{"type":"user","content":"x"}`}, nil)

	s := New(dataDir)
	if _, err := s.Sessions(context.Background()); err != nil {
		t.Fatalf("Sessions: %v", err)
	}

	notices, closer, err := s.Watch("sess-1")
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer closer.Close()

	other := filepath.Join(dataDir, "sess-1", "scratch.txt")
	if err := os.WriteFile(other, []byte("noise"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case n := <-notices:
		t.Errorf("unexpected notice %+v for unrelated file", n)
	case <-time.After(400 * time.Millisecond):
	}
}
