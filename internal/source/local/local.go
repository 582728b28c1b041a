// Package local reads agent sessions from a data directory on disk. Each
// session is a directory holding workspace.yaml metadata, an events.jsonl
// mixed event log, and an optional prompts.jsonl of summarized prior user
// prompts.
package local

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/marcus/agentview/internal/rawevent"
	"github.com/marcus/agentview/internal/source"
)

const (
	eventsFile    = "events.jsonl"
	promptsFile   = "prompts.jsonl"
	workspaceFile = "workspace.yaml"

	activeWindow = 5 * time.Minute
)

// scanBufSize accommodates large tool outputs on a single JSONL line.
const scanBufSize = 10 * 1024 * 1024

// Workspace is the per-session workspace.yaml metadata.
type Workspace struct {
	ID        string    `yaml:"id"`
	Summary   string    `yaml:"summary"`
	CWD       string    `yaml:"cwd"`
	CreatedAt time.Time `yaml:"created_at"`
	UpdatedAt time.Time `yaml:"updated_at"`
}

// Source reads sessions from a local data directory.
type Source struct {
	dataDir      string
	sessionIndex map[string]string // sessionID -> directory path
	mu           sync.RWMutex      // guards sessionIndex
}

// New returns a local source over dataDir. An empty dataDir defaults to
// ~/.agentview/sessions.
func New(dataDir string) *Source {
	if dataDir == "" {
		home, _ := os.UserHomeDir()
		dataDir = filepath.Join(home, ".agentview", "sessions")
	}
	return &Source{
		dataDir:      dataDir,
		sessionIndex: make(map[string]string),
	}
}

// Sessions lists sessions under the data dir, newest first.
func (s *Source) Sessions(ctx context.Context) ([]source.Session, error) {
	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read data dir: %w", err)
	}

	sessions := make([]source.Session, 0, len(entries))
	newIndex := make(map[string]string, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		sessionDir := filepath.Join(s.dataDir, e.Name())
		ws, err := readWorkspace(filepath.Join(sessionDir, workspaceFile))
		if err != nil {
			continue
		}
		id := ws.ID
		if id == "" {
			id = e.Name()
		}
		newIndex[id] = sessionDir

		sessions = append(sessions, source.Session{
			ID:           id,
			Name:         ws.Summary,
			CreatedAt:    ws.CreatedAt,
			UpdatedAt:    ws.UpdatedAt,
			MessageCount: countEvents(filepath.Join(sessionDir, eventsFile)),
			IsActive:     time.Since(ws.UpdatedAt) < activeWindow,
		})
	}

	s.mu.Lock()
	s.sessionIndex = newIndex
	s.mu.Unlock()

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})
	return sessions, nil
}

// Conversation reads the summarized prior prompts for a session. A missing
// prompts file is an empty stream, not an error.
func (s *Source) Conversation(ctx context.Context, sessionID string) ([]source.PromptRecord, error) {
	dir, err := s.sessionDir(sessionID)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(dir, promptsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open prompts: %w", err)
	}
	defer f.Close()

	var prompts []source.PromptRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), scanBufSize)
	for scanner.Scan() {
		var p source.PromptRecord
		if err := json.Unmarshal(scanner.Bytes(), &p); err != nil {
			continue
		}
		prompts = append(prompts, p)
	}
	if err := scanner.Err(); err != nil {
		return prompts, fmt.Errorf("read prompts: %w", err)
	}
	return prompts, nil
}

// Events reads the full mixed event log for a session. Malformed lines are
// skipped; heterogeneous upstream shapes are expected.
func (s *Source) Events(ctx context.Context, sessionID string) ([]rawevent.Event, error) {
	dir, err := s.sessionDir(sessionID)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(dir, eventsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open events: %w", err)
	}
	defer f.Close()

	var events []rawevent.Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), scanBufSize)
	for scanner.Scan() {
		var ev rawevent.Event
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			continue
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return events, fmt.Errorf("read events: %w", err)
	}
	return events, nil
}

// sessionDir resolves a session id to its directory, via the index or a
// direct path fallback.
func (s *Source) sessionDir(sessionID string) (string, error) {
	s.mu.RLock()
	dir, ok := s.sessionIndex[sessionID]
	s.mu.RUnlock()
	if ok {
		return dir, nil
	}

	dir = filepath.Join(s.dataDir, sessionID)
	if _, err := os.Stat(dir); err != nil {
		return "", fmt.Errorf("session not found: %s", sessionID)
	}
	s.mu.Lock()
	s.sessionIndex[sessionID] = dir
	s.mu.Unlock()
	return dir, nil
}

func readWorkspace(path string) (*Workspace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var ws Workspace
	if err := yaml.Unmarshal(data, &ws); err != nil {
		return nil, err
	}
	return &ws, nil
}

// countEvents counts displayable message events in a log file.
func countEvents(path string) int {
	f, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), scanBufSize)
	for scanner.Scan() {
		var line struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			continue
		}
		if line.Type == rawevent.TypeUser || line.Type == rawevent.TypeAssistant {
			count++
		}
	}
	return count
}

var _ source.Source = (*Source)(nil)
var _ io.Closer = (*watcherCloser)(nil)
