// Package chatfile is the authoritative store for the transcript file:
// full reads, append-only writes. The process keeps at most a cached
// copy of the content for diffing; the file system always wins.
package chatfile

import (
	"fmt"
	"os"
)

// Store reads and appends a single UTF-8 transcript file.
type Store struct {
	path string
}

// New returns a Store bound to path.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the transcript file location.
func (s *Store) Path() string {
	return s.path
}

// Ensure creates an empty transcript when none exists yet. The file
// watcher requires the path to be present before watching starts.
func (s *Store) Ensure() error {
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("create transcript: %w", err)
	}
	return f.Close()
}

// Read returns the entire file content. A missing file reads as empty
// so the tool can start before the user's first message.
func (s *Store) Read() (string, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read transcript: %w", err)
	}
	return string(data), nil
}

// Append writes text to the end of the file in a single write call.
// The transcript is never truncated or rewritten in place, so a reply
// landing while the user keeps typing cannot clobber their edit.
func (s *Store) Append(text string) error {
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open transcript: %w", err)
	}
	if _, err := f.WriteString(text); err != nil {
		f.Close()
		return fmt.Errorf("append transcript: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close transcript: %w", err)
	}
	return nil
}
