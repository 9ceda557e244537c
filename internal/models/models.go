package models

import "time"

// Record is one registered slug. Immutable after insertion.
type Record struct {
	CreatedAt    time.Time `json:"created_at"`
	ID           string    `json:"id"`
	Destination  string    `json:"url"`
	Label        string    `json:"name,omitempty"`
	Group        string    `json:"folder,omitempty"`
	PasswordHash string    `json:"-"`
}

// Protected reports whether resolving the record requires a password.
func (r Record) Protected() bool {
	return r.PasswordHash != ""
}

// RecordFS is the file-storage representation of a Record. Unlike the
// API-facing Record it serializes the password hash.
type RecordFS struct {
	CreatedAt    time.Time `json:"created_at"`
	ID           string    `json:"id"`
	Destination  string    `json:"url"`
	Label        string    `json:"name"`
	Group        string    `json:"folder"`
	PasswordHash string    `json:"password_hash"`
}

func (r RecordFS) Record() Record {
	return Record{
		ID:           r.ID,
		Destination:  r.Destination,
		Label:        r.Label,
		Group:        r.Group,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
	}
}

func NewRecordFS(r Record) RecordFS {
	return RecordFS{
		ID:           r.ID,
		Destination:  r.Destination,
		Label:        r.Label,
		Group:        r.Group,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
	}
}

type CreateLinkReq struct {
	URL      string `json:"url"`
	Name     string `json:"name"`
	Folder   string `json:"folder"`
	Password string `json:"password"`
}

type CreateLinkRes struct {
	ID     string `json:"id"`
	Result string `json:"result"`
	QR     string `json:"qr_png_b64"`
}

type PreviewReq struct {
	URL string `json:"url"`
}

// RegisteredLink is the outcome of a successful registration.
type RegisteredLink struct {
	ID         string
	ResolveURL string
	PNG        []byte
}

// Resolution tells the transport layer what to do with a resolution
// request: redirect to Destination, or show a password challenge.
type Resolution struct {
	Destination string
	Label       string
	Locked      bool
}

type ChallengeRes struct {
	Name   string `json:"name"`
	Locked bool   `json:"locked"`
}

type DownloadReq struct {
	Slug        string
	Destination string
	Name        string
}

type DownloadResult struct {
	Filename string
	PNG      []byte
}

type LinkListItem struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Folder    string    `json:"folder"`
	URL       string    `json:"url"`
}
