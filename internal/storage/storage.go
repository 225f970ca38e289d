// /internal/storage/storage.go
package storage

import (
	"fmt"
	"sync"
	"time"

	"github.com/keshon/domme-dispatch/datastore"

	"github.com/rs/zerolog"
)

const DefaultHistoryLimit = 20

// CommandRecord is one executed command.
type CommandRecord struct {
	ChannelID string    `json:"channel_id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Command   string    `json:"command"`
	Args      []string  `json:"args,omitempty"`
	Datetime  time.Time `json:"datetime"`
}

// Record is everything stored for one guild.
type Record struct {
	CommandHistory []CommandRecord `json:"cmd_history"`
}

// Storage keeps per-guild command history on top of a datastore.
type Storage struct {
	ds    *datastore.DataStore
	limit int
	// mu serializes read-modify-write cycles on guild records.
	mu sync.Mutex
}

// New wraps ds. limit caps the history kept per guild.
func New(ds *datastore.DataStore, limit int) *Storage {
	if limit < 1 {
		limit = DefaultHistoryLimit
	}
	return &Storage{ds: ds, limit: limit}
}

// Open is New over a datastore at filePath. logger receives auto-save failures.
func Open(filePath string, limit int, logger zerolog.Logger) (*Storage, error) {
	cfg := datastore.DefaultConfig(filePath)
	cfg.Logger = logger
	ds, err := datastore.NewWithConfig(cfg)
	if err != nil {
		return nil, err
	}
	return New(ds, limit), nil
}

func (s *Storage) Close() error {
	return s.ds.Close()
}

func guildKey(guildID string) string {
	if guildID == "" {
		return "direct"
	}
	return guildID
}

func (s *Storage) record(guildID string) (Record, error) {
	var rec Record
	if _, err := s.ds.Get(guildKey(guildID), &rec); err != nil {
		return Record{}, fmt.Errorf("load guild %s: %w", guildID, err)
	}
	return rec, nil
}

// AppendCommand adds a record to the guild history, dropping the oldest
// entries beyond the limit.
func (s *Storage) AppendCommand(guildID string, rec CommandRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.record(guildID)
	if err != nil {
		return err
	}
	r.CommandHistory = append(r.CommandHistory, rec)
	if over := len(r.CommandHistory) - s.limit; over > 0 {
		r.CommandHistory = r.CommandHistory[over:]
	}
	return s.ds.Put(guildKey(guildID), r)
}

// CommandHistory returns the guild history, oldest first.
func (s *Storage) CommandHistory(guildID string) ([]CommandRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.record(guildID)
	if err != nil {
		return nil, err
	}
	return r.CommandHistory, nil
}

// ClearCommandHistory forgets the guild history and reports how many entries were removed.
func (s *Storage) ClearCommandHistory(guildID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.record(guildID)
	if err != nil {
		return 0, err
	}
	n := len(r.CommandHistory)
	r.CommandHistory = nil
	return n, s.ds.Put(guildKey(guildID), r)
}
