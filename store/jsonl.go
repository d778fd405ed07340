package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"
)

const (
	AttemptsFile   = "attempts.jsonl"
	SelectionsFile = "selections.jsonl"
)

// attemptRecord stores the duration in milliseconds.
type attemptRecord struct {
	Attempt
	Duration int64 `json:"duration_ms"`
}

// JSONL appends records to attempts.jsonl and selections.jsonl in dir.
func JSONL(dir string) (Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	s := &jsonlStore{}
	var err error
	if s.attempts, err = openAppend(filepath.Join(dir, AttemptsFile)); err != nil {
		return nil, err
	}
	if s.selections, err = openAppend(filepath.Join(dir, SelectionsFile)); err != nil {
		_ = s.attempts.Close()
		return nil, err
	}
	return s, nil
}

func openAppend(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	return f, nil
}

type jsonlStore struct {
	mu         sync.Mutex
	attempts   *os.File
	selections *os.File
}

func (s *jsonlStore) SaveAttempt(_ context.Context, a Attempt) error {
	a.CreatedAt = now(a.CreatedAt)
	return s.append(s.attempts, attemptRecord{Attempt: a, Duration: a.Duration.Milliseconds()})
}

func (s *jsonlStore) SaveSelection(_ context.Context, sel Selection) error {
	sel.CreatedAt = now(sel.CreatedAt)
	return s.append(s.selections, sel)
}

func (s *jsonlStore) append(f *os.File, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = f.Write(append(b, '\n'))
	return err
}

func (s *jsonlStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return errors.Join(s.attempts.Close(), s.selections.Close())
}
