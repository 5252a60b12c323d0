package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sakif/jobtrack/internal/model"
	"github.com/sakif/jobtrack/internal/view"
)

// session is what the CLI remembers between invocations: the tokens from
// the last login and the filter the last "list" used, so --toggle can flip
// the direction of the active sort.
type session struct {
	Tokens model.TokenPair  `json:"tokens"`
	Filter view.FilterState `json:"filter"`
}

// sessionPath resolves JOBTRACK_SESSION, falling back to
// <user config dir>/jobtrack/session.json.
func sessionPath(getenv func(string) string) (string, error) {
	if p := getenv("JOBTRACK_SESSION"); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating config directory: %w", err)
	}
	return filepath.Join(dir, "jobtrack", "session.json"), nil
}

// loadSession reads the session file. A missing file is an empty session.
func loadSession(path string) (session, error) {
	s := session{Filter: view.DefaultFilter()}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("reading session: %w", err)
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parsing session %s: %w", path, err)
	}
	return s, nil
}

// save writes the session readable by the owner only; it holds tokens.
func (s session) save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing session: %w", err)
	}
	return nil
}
