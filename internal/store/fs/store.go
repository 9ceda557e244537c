package fs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/rawen554/qrlink/internal/models"
	"github.com/rawen554/qrlink/internal/store/memory"
)

const FileStorageFilePerm = 0600

// FSStorage keeps all records in memory and appends every insert to a
// JSON-lines file, replayed on startup.
type FSStorage struct {
	*memory.MemoryStorage
	sr   *StorageReader
	sw   *StorageWriter
	path string
}

func NewFileStorage(filename string) (*FSStorage, error) {
	sr, err := NewStorageReader(filename)
	if err != nil {
		return nil, err
	}

	records, err := sr.ReadFromFile()
	if err != nil {
		return nil, err
	}

	storage, err := memory.NewMemoryStorage(records)
	if err != nil {
		return nil, fmt.Errorf("error initialising memory storage with records: %w", err)
	}

	sw, err := NewStorageWriter(filename)
	if err != nil {
		return nil, err
	}

	return &FSStorage{
		path:          filename,
		MemoryStorage: storage,
		sr:            sr,
		sw:            sw,
	}, nil
}

func (s *FSStorage) Create(ctx context.Context, rec models.Record) error {
	if err := s.MemoryStorage.Create(ctx, rec); err != nil {
		return err
	}
	fsRec := models.NewRecordFS(rec)
	return s.sw.AppendToFile(&fsRec)
}

func (s *FSStorage) Close() {
	if err := s.sw.file.Close(); err != nil {
		log.Printf("error closing file: %v", err)
	}
}

func (s *FSStorage) DeleteStorageFile() error {
	if err := os.Remove(s.path); err != nil {
		return fmt.Errorf("error delete file: %w", err)
	}
	return nil
}

type StorageReader struct {
	file    *os.File
	decoder *json.Decoder
}

func NewStorageReader(filename string) (*StorageReader, error) {
	file, err := os.OpenFile(filename, os.O_RDONLY|os.O_CREATE, FileStorageFilePerm)
	if err != nil {
		return nil, fmt.Errorf("error open file: %w", err)
	}

	return &StorageReader{
		file:    file,
		decoder: json.NewDecoder(file),
	}, nil
}

func (sr *StorageReader) ReadFromFile() (map[string]models.Record, error) {
	records := make(map[string]models.Record)
	for {
		r, err := sr.ReadLine()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, err
		}
		records[r.ID] = r.Record()
	}

	return records, nil
}

func (sr *StorageReader) ReadLine() (*models.RecordFS, error) {
	r := models.RecordFS{}
	if err := sr.decoder.Decode(&r); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("error decode records: %w", err)
	}

	return &r, nil
}

type StorageWriter struct {
	file    *os.File
	encoder *json.Encoder
}

func NewStorageWriter(filename string) (*StorageWriter, error) {
	file, err := os.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_APPEND, FileStorageFilePerm)
	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}

	return &StorageWriter{
		file:    file,
		encoder: json.NewEncoder(file),
	}, nil
}

func (sw *StorageWriter) AppendToFile(r *models.RecordFS) error {
	if err := sw.encoder.Encode(&r); err != nil {
		return fmt.Errorf("error encode records: %w", err)
	}
	return nil
}
