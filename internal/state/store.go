package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/badno/catimport/internal/database"
	"github.com/google/uuid"
)

const (
	StateVersion    = "1.0"
	DefaultStateDir = ".catimport"
	DefaultFileName = "state.json"

	// MaxRuns bounds the history kept in the state file; older runs are dropped
	MaxRuns = 200
)

// StateFile is the on-disk layout
type StateFile struct {
	Version     string                `json:"version"`
	Runs        []*database.ImportRun `json:"runs"`
	LastUpdated time.Time             `json:"last_updated"`
}

// Store keeps import run history in a local JSON file. It is the history
// backend when no database is configured.
type Store struct {
	mu       sync.RWMutex
	filePath string
	state    *StateFile
}

var _ database.RunRepository = (*Store)(nil)

// DefaultPath returns ~/.catimport/state.json
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, DefaultStateDir, DefaultFileName), nil
}

// NewStore creates a new state store
func NewStore(filePath string) *Store {
	return &Store{
		filePath: filePath,
		state:    emptyState(),
	}
}

// Open creates a store for filePath, falling back to the default path, and
// loads it
func Open(filePath string) (*Store, error) {
	if filePath == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		filePath = p
	}

	s := NewStore(filePath)
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

func emptyState() *StateFile {
	return &StateFile{
		Version: StateVersion,
		Runs:    []*database.ImportRun{},
	}
}

// Path returns the backing file
func (s *Store) Path() string {
	return s.filePath
}

// Load reads the state from disk
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			// Initialize empty state
			s.state = emptyState()
			return nil
		}
		return err
	}

	var state StateFile
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("failed to parse state file: %w", err)
	}
	if state.Runs == nil {
		state.Runs = []*database.ImportRun{}
	}
	s.state = &state
	return nil
}

// Save writes the state to disk
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveInternal()
}

// saveInternal saves without acquiring lock (for internal use)
func (s *Store) saveInternal() error {
	s.state.LastUpdated = time.Now()

	// Ensure directory exists
	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.filePath, data, 0644)
}

// Add appends a run to the history and saves the file
func (s *Store) Add(ctx context.Context, run *database.ImportRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Runs = append(s.state.Runs, run)
	if over := len(s.state.Runs) - MaxRuns; over > 0 {
		s.state.Runs = append([]*database.ImportRun(nil), s.state.Runs[over:]...)
	}

	if err := s.saveInternal(); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

// GetRecent returns up to limit runs, newest first
func (s *Store) GetRecent(ctx context.Context, limit int) ([]*database.ImportRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.state.Runs)
	if limit <= 0 || limit > n {
		limit = n
	}

	runs := make([]*database.ImportRun, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		runs = append(runs, s.state.Runs[i])
	}
	return runs, nil
}

// GetByID returns a single run
func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*database.ImportRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, run := range s.state.Runs {
		if run.ID == id {
			return run, nil
		}
	}
	return nil, fmt.Errorf("run %s: %w", id, database.ErrNotFound)
}

// Count returns how many runs are stored
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.state.Runs)
}

// Clear removes all runs
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Runs = []*database.ImportRun{}
}
