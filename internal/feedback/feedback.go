// Package feedback persists user verdicts on generated answers as a JSON
// array on disk. Volume is low enough that rewriting the whole file per
// record beats running a database for it.
package feedback

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/JeYeMC/rag-service/internal/logger"
)

// Record is one feedback entry about a generated answer.
type Record struct {
	Timestamp string `json:"timestamp"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	Correct   bool   `json:"correct"`
	Comment   string `json:"comment,omitempty"`
	DocType   string `json:"doc_type,omitempty"`
}

// Store appends feedback records to a JSON file.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore creates a Store writing to path, creating parent directories
// as needed.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create feedback directory: %w", err)
	}
	return &Store{path: path}, nil
}

// Append adds a record and returns the total count after the write.
func (s *Store) Append(rec Record) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return 0, err
	}

	if rec.Timestamp == "" {
		rec.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	records = append(records, rec)

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("failed to encode feedback: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return 0, fmt.Errorf("failed to write feedback file: %w", err)
	}

	logger.Debug("Feedback stored (%d total)", len(records))
	return len(records), nil
}

// All returns every stored record.
func (s *Store) All() ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() ([]Record, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read feedback file: %w", err)
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		// A corrupt file should not block new feedback forever.
		logger.Warn("Feedback file %s is corrupt, starting fresh: %v", s.path, err)
		return nil, nil
	}
	return records, nil
}
