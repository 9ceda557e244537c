package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rawen554/qrlink/internal/models"
	"github.com/rawen554/qrlink/internal/store"
)

const uniqueViolationCode = "23505"

type DBStore struct {
	conn *pgx.Conn
}

func NewPostgresStore(dsn string) (*DBStore, error) {
	conn, err := pgx.Connect(context.Background(), dsn)
	if err != nil {
		return nil, err
	}
	dbStore := &DBStore{conn: conn}

	if err := dbStore.CreateTable(); err != nil {
		return nil, err
	}

	return dbStore, nil
}

func (db *DBStore) Create(ctx context.Context, rec models.Record) error {
	_, err := db.conn.Exec(ctx, `
		INSERT INTO qr_links (id, url, name, folder, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, rec.ID, rec.Destination, rec.Label, rec.Group, rec.PasswordHash, rec.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return store.ErrDuplicateID
		}
		return fmt.Errorf("error inserting record: %w", err)
	}

	return nil
}

func (db *DBStore) Get(ctx context.Context, id string) (models.Record, error) {
	row := db.conn.QueryRow(ctx, `
		SELECT id, url, name, folder, password_hash, created_at
		FROM qr_links WHERE id = $1
	`, id)

	var rec models.Record
	err := row.Scan(&rec.ID, &rec.Destination, &rec.Label, &rec.Group, &rec.PasswordHash, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Record{}, store.ErrNotFound
		}
		return models.Record{}, fmt.Errorf("error scanning record: %w", err)
	}

	return rec, nil
}

func (db *DBStore) List(ctx context.Context) ([]models.Record, error) {
	rows, err := db.conn.Query(ctx, `
		SELECT id, url, name, folder, password_hash, created_at
		FROM qr_links ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("error querying records: %w", err)
	}
	defer rows.Close()

	result := make([]models.Record, 0)
	for rows.Next() {
		var rec models.Record
		if err := rows.Scan(&rec.ID, &rec.Destination, &rec.Label, &rec.Group, &rec.PasswordHash, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning record: %w", err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}

	return result, nil
}

func (db *DBStore) Ping() error {
	return db.conn.Ping(context.Background())
}

func (db *DBStore) Close() {
	_ = db.conn.Close(context.Background())
}

func (db *DBStore) CreateTable() error {
	_, err := db.conn.Exec(context.Background(), "CREATE TABLE IF NOT EXISTS qr_links( "+
		"id VARCHAR(32) PRIMARY KEY, "+
		"url TEXT NOT NULL, "+
		"name TEXT NOT NULL DEFAULT '', "+
		"folder TEXT NOT NULL DEFAULT '', "+
		"password_hash TEXT NOT NULL DEFAULT '', "+
		"created_at TIMESTAMPTZ NOT NULL "+
		");")
	return err
}
