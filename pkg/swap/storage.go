package swap

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

const (
	DefaultStorageFileName = "activity.json"
)

// Storage handles persistence of swap executions
type Storage struct {
	filePath string
	mu       sync.RWMutex
	saveMu   sync.Mutex
	entries  map[string]*Execution
}

// activityFile represents the JSON structure for storage
type activityFile struct {
	Executions map[string]*Execution `json:"executions"`
}

// NewStorage creates a new storage instance
func NewStorage(filePath string) (*Storage, error) {
	if filePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		filePath = filepath.Join(home, ".dex-swap", DefaultStorageFileName)
	}

	storage := &Storage{
		filePath: filePath,
		entries:  make(map[string]*Execution),
	}

	// A missing file is created on first save
	if err := storage.load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load activity: %w", err)
	}

	return storage, nil
}

// load reads executions from the storage file
func (s *Storage) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	var file activityFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to unmarshal activity: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = file.Executions
	if s.entries == nil {
		s.entries = make(map[string]*Execution)
	}
	return nil
}

// save writes executions to the storage file
func (s *Storage) save() error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.RLock()
	data, err := json.MarshalIndent(activityFile{Executions: s.entries}, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal activity: %w", err)
	}

	// Ensure directory exists
	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Write to temporary file first, then rename for atomic write
	tempFile := s.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write activity: %w", err)
	}

	if err := os.Rename(tempFile, s.filePath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// Create adds a new execution to storage
func (s *Storage) Create(e *Execution) error {
	s.mu.Lock()
	if _, exists := s.entries[e.ID]; exists {
		s.mu.Unlock()
		return fmt.Errorf("execution '%s' already exists", e.ID)
	}
	stored := *e
	s.entries[e.ID] = &stored
	s.mu.Unlock()

	return s.save()
}

// Update replaces an existing execution
func (s *Storage) Update(e *Execution) error {
	s.mu.Lock()
	if _, exists := s.entries[e.ID]; !exists {
		s.mu.Unlock()
		return fmt.Errorf("execution '%s' not found", e.ID)
	}
	stored := *e
	s.entries[e.ID] = &stored
	s.mu.Unlock()

	return s.save()
}

// Get retrieves an execution by id
func (s *Storage) Get(id string) (*Execution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.entries[id]
	if !exists {
		return nil, fmt.Errorf("execution '%s' not found", id)
	}
	out := *e
	return &out, nil
}

// List returns all executions, newest first
func (s *Storage) List() []*Execution {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Execution, 0, len(s.entries))
	for _, e := range s.entries {
		c := *e
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out
}

// ListByAccount returns executions of one account, newest first. Addresses are
// compared case-insensitively, so checksummed and lowercase forms match.
func (s *Storage) ListByAccount(account string) []*Execution {
	account = strings.TrimSpace(account)
	out := make([]*Execution, 0)
	for _, e := range s.List() {
		if strings.EqualFold(e.Account, account) {
			out = append(out, e)
		}
	}
	return out
}

// Count returns the number of stored executions
func (s *Storage) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// GetFilePath returns the storage file path
func (s *Storage) GetFilePath() string {
	return s.filePath
}
