package logic

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rawen554/qrlink/internal/config"
	"github.com/rawen554/qrlink/internal/models"
	"github.com/rawen554/qrlink/internal/qr"
	"github.com/rawen554/qrlink/internal/session"
	"github.com/rawen554/qrlink/internal/store"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	// Slugs are the first 10 hex chars of a random 128-bit id. Short
	// enough to keep QR payloads small; collisions are handled by retry.
	slugLength      = 10
	slugMaxAttempts = 3

	resolvePathSegment  = "r"
	unlockedKeyPrefix   = "unlocked:"
	defaultDownloadName = "my-qr"
	filenameTimeLayout  = "20060102-150405"

	ErrorJoinURL = "URL cannot be joined: %v"
)

var (
	ErrEmptyDestination = errors.New("destination is empty")
	ErrNotFound         = errors.New("not found")
	ErrPasswordMismatch = errors.New("password mismatch")
	ErrSlugSpace        = errors.New("cannot allocate unique slug")
)

type Store interface {
	Create(ctx context.Context, rec models.Record) error
	Get(ctx context.Context, id string) (models.Record, error)
	List(ctx context.Context) ([]models.Record, error)
	Ping() error
}

type CoreLogic struct {
	config *config.ServerConfig
	store  Store
	logger *zap.SugaredLogger
}

func NewCoreLogic(config *config.ServerConfig, store Store, logger *zap.SugaredLogger) *CoreLogic {
	return &CoreLogic{
		config: config,
		store:  store,
		logger: logger,
	}
}

// Register validates the destination, persists a new record and returns
// its slug together with a preview QR image. The image always encodes the
// public resolve URL, never the raw destination, so protected links keep
// their challenge.
func (cl *CoreLogic) Register(ctx context.Context, req models.CreateLinkReq) (*models.RegisteredLink, error) {
	destination := strings.TrimSpace(req.URL)
	if destination == "" {
		return nil, ErrEmptyDestination
	}

	var passwordHash string
	if password := strings.TrimSpace(req.Password); password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			err = fmt.Errorf("error hashing password: %w", err)
			cl.logger.Error(err)
			return nil, err
		}
		passwordHash = string(hash)
	}

	rec := models.Record{
		Destination:  destination,
		Label:        strings.TrimSpace(req.Name),
		Group:        strings.TrimSpace(req.Folder),
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}

	var created bool
	for attempt := 0; attempt < slugMaxAttempts; attempt++ {
		rec.ID = newSlug()
		err := cl.store.Create(ctx, rec)
		if err == nil {
			created = true
			break
		}
		if errors.Is(err, store.ErrDuplicateID) {
			continue
		}
		err = fmt.Errorf("error saving record: %w", err)
		cl.logger.Error(err)
		return nil, err
	}
	if !created {
		cl.logger.Error(ErrSlugSpace)
		return nil, ErrSlugSpace
	}

	resolveURL, err := cl.resolveURL(rec.ID)
	if err != nil {
		return nil, err
	}

	png, err := qr.Encode(resolveURL, qr.PreviewOptions())
	if err != nil {
		err = fmt.Errorf("error encoding QR image: %w", err)
		cl.logger.Error(err)
		return nil, err
	}

	return &models.RegisteredLink{
		ID:         rec.ID,
		ResolveURL: resolveURL,
		PNG:        png,
	}, nil
}

// Preview encodes a destination that has not been registered. Nothing is
// persisted.
func (cl *CoreLogic) Preview(ctx context.Context, destination string) ([]byte, error) {
	destination = strings.TrimSpace(destination)
	if destination == "" {
		return nil, ErrEmptyDestination
	}

	png, err := qr.Encode(destination, qr.PreviewOptions())
	if err != nil {
		err = fmt.Errorf("error encoding QR image: %w", err)
		cl.logger.Error(err)
		return nil, err
	}

	return png, nil
}

// Resolve runs the lock state machine for one slug and one session.
//
// A record without a password redirects immediately. A protected record
// redirects when the session already holds an unlock grant or when the
// submitted password verifies; a wrong password yields
// ErrPasswordMismatch, no password yields a challenge.
func (cl *CoreLogic) Resolve(ctx context.Context, id string, sess session.Session, submitted string) (*models.Resolution, error) {
	rec, err := cl.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		err = fmt.Errorf("error getting record: %w", err)
		cl.logger.Error(err)
		return nil, err
	}

	if !rec.Protected() {
		return &models.Resolution{Destination: rec.Destination}, nil
	}

	grantKey := unlockedKeyPrefix + rec.ID
	if _, unlocked := sess.Get(grantKey); unlocked {
		return &models.Resolution{Destination: rec.Destination}, nil
	}

	submitted = strings.TrimSpace(submitted)
	if submitted == "" {
		return &models.Resolution{Label: rec.Label, Locked: true}, nil
	}

	if err := bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(submitted)); err != nil {
		return nil, ErrPasswordMismatch
	}

	sess.Set(grantKey, "1")

	return &models.Resolution{Destination: rec.Destination}, nil
}

// Download re-encodes either an existing slug (at the download preset,
// pointing at its resolve URL) or a raw destination, and suggests an
// attachment filename.
func (cl *CoreLogic) Download(ctx context.Context, req models.DownloadReq) (*models.DownloadResult, error) {
	var target string

	if req.Slug != "" {
		rec, err := cl.store.Get(ctx, req.Slug)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, ErrNotFound
			}
			err = fmt.Errorf("error getting record: %w", err)
			cl.logger.Error(err)
			return nil, err
		}
		target, err = cl.resolveURL(rec.ID)
		if err != nil {
			return nil, err
		}
	} else {
		target = strings.TrimSpace(req.Destination)
		if target == "" {
			return nil, ErrEmptyDestination
		}
	}

	png, err := qr.Encode(target, qr.DownloadOptions())
	if err != nil {
		err = fmt.Errorf("error encoding QR image: %w", err)
		cl.logger.Error(err)
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = defaultDownloadName
	}

	return &models.DownloadResult{
		PNG:      png,
		Filename: fmt.Sprintf("%s-%s.png", name, time.Now().Format(filenameTimeLayout)),
	}, nil
}

// List returns all records newest first, for the listing page.
func (cl *CoreLogic) List(ctx context.Context) ([]models.Record, error) {
	records, err := cl.store.List(ctx)
	if err != nil {
		err = fmt.Errorf("error listing records: %w", err)
		cl.logger.Error(err)
		return nil, err
	}

	return records, nil
}

func (cl *CoreLogic) Ping(ctx context.Context) error {
	if err := cl.store.Ping(); err != nil {
		err = fmt.Errorf("error opening connection to DB: %w", err)
		cl.logger.Error(err)
		return err
	}

	return nil
}

func (cl *CoreLogic) resolveURL(id string) (string, error) {
	resultURL, err := url.JoinPath(cl.config.RedirectBaseURL, resolvePathSegment, id)
	if err != nil {
		err = fmt.Errorf(ErrorJoinURL, err)
		cl.logger.Error(err)
		return "", err
	}
	return resultURL, nil
}

func newSlug() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])[:slugLength]
}
