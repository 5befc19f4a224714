// Package history keeps a record of past synchronization sessions in a
// bbolt database.
package history

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/sdejongh/devsync/pkg/models"
)

var bucketSessions = []byte("sessions")

// Entry summarizes one session
type Entry struct {
	ID         string    `json:"id"`
	Project    string    `json:"project"`
	Peer       string    `json:"peer,omitempty"`
	Address    string    `json:"address,omitempty"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	State      string    `json:"state"`
	Status     string    `json:"status,omitempty"`
	Category   string    `json:"category,omitempty"`
	Message    string    `json:"message,omitempty"`
	Uploaded   int       `json:"uploaded"`
	Downloaded int       `json:"downloaded"`
	Skipped    int       `json:"skipped"`
	Bytes      int64     `json:"bytes"`
}

// Duration returns how long the session ran
func (e Entry) Duration() time.Duration {
	return e.EndTime.Sub(e.StartTime)
}

// FromReport fills the transfer counters of e from a merge report
func (e *Entry) FromReport(report *models.MergeReport) {
	if report == nil {
		return
	}
	e.Status = string(report.Status)
	e.Uploaded = report.Uploaded()
	e.Downloaded = report.Downloaded()
	e.Skipped = report.Count(models.OutcomeSkippedByUser) + report.Count(models.OutcomeSkippedByPolicy)
	e.Bytes = report.BytesTransferred()
}

// Store persists entries ordered by start time
type Store struct {
	db *bolt.DB
}

// Open opens or creates the history database at path
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open history db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSessions)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores e
func (s *Store) Record(e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSessions).Put(entryKey(e), data)
	})
}

// List returns up to limit entries, newest first. An empty project lists
// every project; limit <= 0 means no limit.
func (s *Store) List(project string, limit int) ([]Entry, error) {
	var entries []Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketSessions).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("corrupt history entry: %w", err)
			}
			if project != "" && e.Project != project {
				continue
			}
			entries = append(entries, e)
			if limit > 0 && len(entries) >= limit {
				break
			}
		}
		return nil
	})
	return entries, err
}

// entryKey sorts by start time, then ID
func entryKey(e Entry) []byte {
	key := make([]byte, 8, 8+len(e.ID))
	binary.BigEndian.PutUint64(key, uint64(e.StartTime.UnixNano()))
	return append(key, e.ID...)
}
