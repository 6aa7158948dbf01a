package main

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// History is the append-only record of claim runs persisted between
// executions. Prior entries are never rewritten.
type History struct {
	History []ClaimRun `json:"history"`
}

// LoadHistory reads the history file, returning an empty history when the
// file does not exist yet.
func LoadHistory(path string) (*History, error) {
	h := &History{}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return h, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, h); err != nil {
		return nil, err
	}
	return h, nil
}

// AppendRun adds one run record to the history file.
func AppendRun(path string, run ClaimRun) error {
	h, err := LoadHistory(path)
	if err != nil {
		return err
	}
	h.History = append(h.History, run)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
