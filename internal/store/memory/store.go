package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/rawen554/qrlink/internal/models"
	"github.com/rawen554/qrlink/internal/store"
)

type MemoryStorage struct {
	mux          *sync.Mutex
	records      map[string]models.Record
	RecordsCount int
}

func NewMemoryStorage(records map[string]models.Record) (*MemoryStorage, error) {
	return &MemoryStorage{
		mux:          &sync.Mutex{},
		records:      records,
		RecordsCount: len(records),
	}, nil
}

func (s *MemoryStorage) Create(ctx context.Context, rec models.Record) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	if _, ok := s.records[rec.ID]; ok {
		return store.ErrDuplicateID
	}
	s.records[rec.ID] = rec
	s.RecordsCount += 1
	return nil
}

func (s *MemoryStorage) Get(ctx context.Context, id string) (models.Record, error) {
	s.mux.Lock()
	defer s.mux.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return models.Record{}, store.ErrNotFound
	}
	return rec, nil
}

func (s *MemoryStorage) List(ctx context.Context) ([]models.Record, error) {
	s.mux.Lock()
	defer s.mux.Unlock()

	result := make([]models.Record, 0, len(s.records))
	for _, rec := range s.records {
		result = append(result, rec)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

func (s *MemoryStorage) Ping() error {
	return nil
}

func (s *MemoryStorage) Close() {}
