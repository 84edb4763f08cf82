package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-journal-service/internal/models"
)

// SlotKey is the fixed name of the persisted slot holding the record
// collection.
const SlotKey = "weather_journal"

// ErrNotFound is returned by Update and Delete when no record has the
// requested id.
var ErrNotFound = errors.New("record not found")

// QuotaError wraps a failed flush to the persisted slot, typically because
// the backing storage rejected the write.
type QuotaError struct {
	Err error
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("persisted slot write failed: %v", e.Err)
}

func (e *QuotaError) Unwrap() error { return e.Err }

// UpdateFields names the mutable subset of a saved record. Nil fields are
// left unchanged by Update.
type UpdateFields struct {
	Location  *string
	StartDate *string
	EndDate   *string
}

// RecordStore owns the collection of saved weather records. It keeps an
// in-memory mirror and flushes the whole collection to the persisted slot
// synchronously on every mutation, so the slot never holds a partial write.
type RecordStore struct {
	mu      sync.Mutex
	backend Backend
	logger  *zap.Logger
	records []models.SavedRecord
	lastID  int64

	// now is swappable in tests to pin id assignment and save dates.
	now func() time.Time
}

// NewRecordStore loads the persisted slot into memory and returns the store.
// A slot that has never been written yields an empty collection.
func NewRecordStore(backend Backend, logger *zap.Logger) (*RecordStore, error) {
	s := &RecordStore{
		backend: backend,
		logger:  logger,
		now:     time.Now,
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Create commits a snapshot as a new saved record. The id is derived from the
// wall clock in milliseconds and bumped when a create lands on the same
// millisecond as the previous one, keeping ids strictly increasing within the
// process. The new record is appended and the collection flushed before
// returning.
func (s *RecordStore) Create(snapshot models.WeatherSnapshot, location, startDate, endDate string) (models.SavedRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}

	record := models.SavedRecord{
		ID:          id,
		Location:    location,
		DateSaved:   s.now().Format("1/2/2006"),
		Temperature: snapshot.Temperature,
		Weather:     snapshot.Description,
		StartDate:   startDate,
		EndDate:     endDate,
		Snapshot:    snapshot,
	}

	s.records = append(s.records, record)
	if err := s.flush(); err != nil {
		s.records = s.records[:len(s.records)-1]
		return models.SavedRecord{}, err
	}
	s.lastID = id

	s.logger.Info("record created",
		zap.Int64("id", record.ID),
		zap.String("location", record.Location))
	return record, nil
}

// Update merges the provided fields into the record with the given id. The
// embedded snapshot and DateSaved never change. Returns ErrNotFound when the
// id is absent.
func (s *RecordStore) Update(id int64, fields UpdateFields) (models.SavedRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return models.SavedRecord{}, ErrNotFound
	}

	prev := s.records[idx]
	if fields.Location != nil {
		s.records[idx].Location = *fields.Location
	}
	if fields.StartDate != nil {
		s.records[idx].StartDate = *fields.StartDate
	}
	if fields.EndDate != nil {
		s.records[idx].EndDate = *fields.EndDate
	}

	if err := s.flush(); err != nil {
		s.records[idx] = prev
		return models.SavedRecord{}, err
	}

	s.logger.Info("record updated", zap.Int64("id", id))
	return s.records[idx], nil
}

// Delete removes the record with the given id. Returns ErrNotFound when the
// id is absent.
func (s *RecordStore) Delete(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return ErrNotFound
	}

	removed := s.records[idx]
	s.records = append(s.records[:idx], s.records[idx+1:]...)
	if err := s.flush(); err != nil {
		s.records = append(s.records[:idx], append([]models.SavedRecord{removed}, s.records[idx:]...)...)
		return err
	}

	s.logger.Info("record deleted", zap.Int64("id", id))
	return nil
}

// List returns the records in insertion order. The returned slice is a copy;
// callers cannot mutate store state through it.
func (s *RecordStore) List() []models.SavedRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.SavedRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Reload re-reads the persisted slot, discarding any in-memory state. Used to
// recover after the slot was modified externally.
func (s *RecordStore) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok, err := s.backend.Get(SlotKey)
	if err != nil {
		return fmt.Errorf("reload persisted slot: %w", err)
	}
	if !ok {
		s.records = nil
		return nil
	}

	var records []models.SavedRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("decode persisted slot: %w", err)
	}
	s.records = records
	for _, r := range records {
		if r.ID > s.lastID {
			s.lastID = r.ID
		}
	}
	return nil
}

func (s *RecordStore) indexOf(id int64) int {
	for i, r := range s.records {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// flush serializes the full collection and replaces the slot content. Callers
// hold the mutex.
func (s *RecordStore) flush() error {
	records := s.records
	if records == nil {
		records = []models.SavedRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode records: %w", err)
	}
	if err := s.backend.Set(SlotKey, data); err != nil {
		return &QuotaError{Err: err}
	}
	return nil
}
