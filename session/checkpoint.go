package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cwbudde/algo-sfg/staircase"
)

// State is everything needed to continue an interrupted session.
type State struct {
	Subject   string            `json:"subject"`
	Method    string            `json:"method"`
	Block     int               `json:"block"` // 1-based block in progress
	Completed []BlockResult     `json:"completed"`
	Quest     *staircase.Quest  `json:"quest,omitempty"`
	UpDown    *staircase.UpDown `json:"updown,omitempty"`
	SavedAt   time.Time         `json:"saved_at"`
}

// Finished reports whether every block of an n-block protocol is done.
func (s *State) Finished(blocks int) bool {
	return s.Block > blocks
}

// FileCheckpoint persists State as JSON. Saves go to a temp file in the same
// directory and are renamed over the target, so a crash leaves either the old
// or the new state on disk.
type FileCheckpoint struct {
	Path string
}

func (c *FileCheckpoint) Save(st *State) error {
	dir := filepath.Dir(c.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')

	tmp, err := os.CreateTemp(dir, filepath.Base(c.Path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, c.Path)
}

// Load reads the saved state. A missing file yields an error matching
// os.ErrNotExist.
func (c *FileCheckpoint) Load() (*State, error) {
	b, err := os.ReadFile(c.Path)
	if err != nil {
		return nil, err
	}
	var st State
	if err := json.Unmarshal(b, &st); err != nil {
		return nil, fmt.Errorf("checkpoint %s: %w", c.Path, err)
	}
	if st.Block < 1 {
		return nil, fmt.Errorf("checkpoint %s: block %d", c.Path, st.Block)
	}
	return &st, nil
}
