package dotdir

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	lastFile = "last.json"
)

// LastGeneration is the persisted result of the most recent local
// generation run.
type LastGeneration struct {
	// GenerationID identifies the run the screens belong to.
	GenerationID string `json:"generation_id"`

	// Prompt is the user prompt the screens were generated from.
	Prompt string `json:"prompt"`

	// Screens holds the completed screens in emission order.
	Screens []SavedScreen `json:"screens"`
}

// SavedScreen is one completed screen of a LastGeneration.
type SavedScreen struct {
	ID          string `json:"id"`
	Index       int    `json:"index"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Code        string `json:"code"`
	Truncated   bool   `json:"truncated,omitempty"`
}

// Screen returns the saved screen with the given emission index.
func (l *LastGeneration) Screen(index int) (*SavedScreen, bool) {
	for i := range l.Screens {
		if l.Screens[i].Index == index {
			return &l.Screens[i], true
		}
	}
	return nil, false
}

// LoadLastGeneration loads the last generation from a target .screens/last.json.
// Returns nil, nil if no generation has been saved yet.
// If overrideDir is non-empty, it is used instead of the default ~/.screens/ location.
func (m *Manager) LoadLastGeneration(overrideDir string) (*LastGeneration, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(dir, lastFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading last generation: %w", err)
	}

	last := &LastGeneration{}
	if err := json.Unmarshal(data, last); err != nil {
		return nil, fmt.Errorf("parsing last generation: %w", err)
	}

	return last, nil
}

// SaveLastGeneration persists the generation to a target .screens/last.json.
func (m *Manager) SaveLastGeneration(last *LastGeneration, overrideDir string) error {
	if last == nil {
		return errors.New("cannot save nil generation")
	}

	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(last, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling last generation: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, lastFile), data, 0o600); err != nil {
		return fmt.Errorf("writing last generation: %w", err)
	}

	return nil
}

// ClearLastGeneration removes the saved generation.
// Returns nil if the file doesn't exist (already cleared).
func (m *Manager) ClearLastGeneration(overrideDir string) error {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	if err := os.Remove(filepath.Join(dir, lastFile)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("removing last generation: %w", err)
	}

	return nil
}
