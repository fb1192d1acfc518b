package predictor

import (
	"context"
	"strconv"
	"sync"
)

func hours(v float64) *float64 { return &v }

func done(category string, actual float64) TaskRecord {
	return TaskRecord{
		TaskFields:  TaskFields{Title: "task in " + category, Category: category, Priority: "medium"},
		ActualHours: hours(actual),
	}
}

type stubSource struct {
	tasks map[uint][]TaskRecord
	err   error
}

func (s *stubSource) CompletedTasks(_ context.Context, userID uint) ([]TaskRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.tasks[userID], nil
}

// memStore is an in-memory Store that counts calls and can be told to fail.
type memStore struct {
	mu      sync.Mutex
	data    map[uint][]byte
	stamps   map[uint]string
	saveErr  error
	loadErr  error
	stampErr error
	saves    int
	loads    int
}

func newMemStore() *memStore {
	return &memStore{data: make(map[uint][]byte), stamps: make(map[uint]string)}
}

func (m *memStore) Save(_ context.Context, userID uint, b *Bundle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	data, err := EncodeBundle(b)
	if err != nil {
		return err
	}
	m.data[userID] = data
	m.stamps[userID] = strconv.Itoa(m.saves)
	return nil
}

func (m *memStore) Stamp(_ context.Context, userID uint) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stampErr != nil {
		return "", m.stampErr
	}
	return m.stamps[userID], nil
}

func (m *memStore) Load(_ context.Context, userID uint) (*Bundle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	data, ok := m.data[userID]
	if !ok {
		return nil, ErrBundleNotFound
	}
	return DecodeBundle(data)
}

func sampleHistory() []TaskRecord {
	return []TaskRecord{
		{TaskFields: TaskFields{Title: "Write report", Description: "quarterly report draft", Category: "work", Priority: "high"}, ActualHours: hours(3)},
		{TaskFields: TaskFields{Title: "Gym", Category: "health", Priority: "low"}, ActualHours: hours(1)},
		{TaskFields: TaskFields{Title: "Review PR", Description: "review the parser changes", Category: "work", Priority: "medium"}, ActualHours: hours(2)},
		{TaskFields: TaskFields{Title: "Groceries", Category: "shopping", Priority: "low"}, ActualHours: hours(0.5)},
		{TaskFields: TaskFields{Title: "Deploy", Description: "deploy parser service", Category: "work", Priority: "high"}, ActualHours: hours(4)},
		{TaskFields: TaskFields{Title: "Run", Category: "health", Priority: "medium"}, ActualHours: hours(1.5)},
	}
}
