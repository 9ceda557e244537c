package logic

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"testing"

	"github.com/rawen554/qrlink/internal/config"
	"github.com/rawen554/qrlink/internal/models"
	"github.com/rawen554/qrlink/internal/qr"
	"github.com/rawen554/qrlink/internal/session"
	"github.com/rawen554/qrlink/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testConfig = &config.ServerConfig{
	RunAddr:         ":8080",
	RedirectBaseURL: "http://localhost:8080",
	Secret:          "b4952c3809196592c026529df00774e46bfb5be0",
}

func newTestLogic(t *testing.T) *CoreLogic {
	t.Helper()
	storage, err := memory.NewMemoryStorage(make(map[string]models.Record))
	require.NoError(t, err)
	return NewCoreLogic(testConfig, storage, zap.L().Sugar())
}

func TestRegister_PublicRecord(t *testing.T) {
	cl := newTestLogic(t)

	link, err := cl.Register(context.Background(), models.CreateLinkReq{
		URL:  "https://example.com",
		Name: "Example",
	})
	require.NoError(t, err)

	assert.Len(t, link.ID, 10)
	assert.Equal(t, "http://localhost:8080/r/"+link.ID, link.ResolveURL)
	assert.NotEmpty(t, link.PNG)

	sessions := session.NewStore()
	res, err := cl.Resolve(context.Background(), link.ID, sessions.Session("s1"), "")
	require.NoError(t, err)
	assert.False(t, res.Locked)
	assert.Equal(t, "https://example.com", res.Destination)
}

func TestRegister_EmptyDestination(t *testing.T) {
	cl := newTestLogic(t)

	tests := []struct {
		name string
		url  string
	}{
		{name: "empty", url: ""},
		{name: "whitespace only", url: "   "},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := cl.Register(context.Background(), models.CreateLinkReq{URL: tt.url})
			assert.ErrorIs(t, err, ErrEmptyDestination)
		})
	}
}

func TestRegister_EncodesResolveURLNotDestination(t *testing.T) {
	cl := newTestLogic(t)

	link, err := cl.Register(context.Background(), models.CreateLinkReq{URL: "https://example.com"})
	require.NoError(t, err)

	fromResolveURL, err := qr.Encode(link.ResolveURL, qr.PreviewOptions())
	require.NoError(t, err)
	fromDestination, err := qr.Encode("https://example.com", qr.PreviewOptions())
	require.NoError(t, err)

	assert.Equal(t, fromResolveURL, link.PNG)
	assert.NotEqual(t, fromDestination, link.PNG)
}

func TestRegister_UniqueSlugs(t *testing.T) {
	const registrations = 20

	cl := newTestLogic(t)

	var mux sync.Mutex
	ids := make(map[string]struct{})

	var wg sync.WaitGroup
	for i := 0; i < registrations; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			link, err := cl.Register(context.Background(), models.CreateLinkReq{
				URL: fmt.Sprintf("https://example.com/%d", i),
			})
			assert.NoError(t, err)
			mux.Lock()
			ids[link.ID] = struct{}{}
			mux.Unlock()
		}(i)
	}
	wg.Wait()

	assert.Len(t, ids, registrations)
}

func TestResolve_NotFound(t *testing.T) {
	cl := newTestLogic(t)
	sessions := session.NewStore()

	_, err := cl.Resolve(context.Background(), "nonexistent", sessions.Session("s1"), "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolve_ProtectedStateMachine(t *testing.T) {
	cl := newTestLogic(t)
	sessions := session.NewStore()
	ctx := context.Background()

	link, err := cl.Register(ctx, models.CreateLinkReq{
		URL:      "https://example.com/offer",
		Name:     "Offer",
		Password: "s3cr3t",
	})
	require.NoError(t, err)

	s1 := sessions.Session("s1")

	// no password yet: challenge with the record label
	res, err := cl.Resolve(ctx, link.ID, s1, "")
	require.NoError(t, err)
	assert.True(t, res.Locked)
	assert.Equal(t, "Offer", res.Label)

	// wrong password: mismatch, no grant left behind
	_, err = cl.Resolve(ctx, link.ID, s1, "wrong")
	assert.ErrorIs(t, err, ErrPasswordMismatch)

	res, err = cl.Resolve(ctx, link.ID, s1, "")
	require.NoError(t, err)
	assert.True(t, res.Locked)

	// correct password: redirect and grant
	res, err = cl.Resolve(ctx, link.ID, s1, "s3cr3t")
	require.NoError(t, err)
	assert.False(t, res.Locked)
	assert.Equal(t, "https://example.com/offer", res.Destination)

	// grant persists for the session, no re-prompt
	res, err = cl.Resolve(ctx, link.ID, s1, "")
	require.NoError(t, err)
	assert.False(t, res.Locked)

	// other sessions are still challenged
	res, err = cl.Resolve(ctx, link.ID, sessions.Session("s2"), "")
	require.NoError(t, err)
	assert.True(t, res.Locked)
}

func TestResolve_GrantScopedToSlug(t *testing.T) {
	cl := newTestLogic(t)
	sessions := session.NewStore()
	ctx := context.Background()

	first, err := cl.Register(ctx, models.CreateLinkReq{URL: "https://a.example.com", Password: "one"})
	require.NoError(t, err)
	second, err := cl.Register(ctx, models.CreateLinkReq{URL: "https://b.example.com", Password: "two"})
	require.NoError(t, err)

	s1 := sessions.Session("s1")

	res, err := cl.Resolve(ctx, first.ID, s1, "one")
	require.NoError(t, err)
	assert.False(t, res.Locked)

	// unlocking one slug must not unlock another
	res, err = cl.Resolve(ctx, second.ID, s1, "")
	require.NoError(t, err)
	assert.True(t, res.Locked)
}

func TestPreview_NoPersistence(t *testing.T) {
	storage, err := memory.NewMemoryStorage(make(map[string]models.Record))
	require.NoError(t, err)
	cl := NewCoreLogic(testConfig, storage, zap.L().Sugar())

	png, err := cl.Preview(context.Background(), "https://example.com")
	require.NoError(t, err)

	expected, err := qr.Encode("https://example.com", qr.PreviewOptions())
	require.NoError(t, err)
	assert.Equal(t, expected, png)
	assert.Zero(t, storage.RecordsCount)
}

func TestPreview_EmptyDestination(t *testing.T) {
	cl := newTestLogic(t)

	_, err := cl.Preview(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrEmptyDestination)
}

func TestDownload(t *testing.T) {
	cl := newTestLogic(t)
	ctx := context.Background()

	link, err := cl.Register(ctx, models.CreateLinkReq{URL: "https://example.com/offer"})
	require.NoError(t, err)

	filenameRe := regexp.MustCompile(`^my-qr-\d{8}-\d{6}\.png$`)
	labeledRe := regexp.MustCompile(`^Offer-\d{8}-\d{6}\.png$`)

	t.Run("by slug uses resolve URL and download preset", func(t *testing.T) {
		result, err := cl.Download(ctx, models.DownloadReq{Slug: link.ID})
		require.NoError(t, err)

		expected, err := qr.Encode(link.ResolveURL, qr.DownloadOptions())
		require.NoError(t, err)
		assert.Equal(t, expected, result.PNG)
		assert.Regexp(t, filenameRe, result.Filename)
	})

	t.Run("by raw destination", func(t *testing.T) {
		result, err := cl.Download(ctx, models.DownloadReq{Destination: "https://example.com", Name: "Offer"})
		require.NoError(t, err)

		expected, err := qr.Encode("https://example.com", qr.DownloadOptions())
		require.NoError(t, err)
		assert.Equal(t, expected, result.PNG)
		assert.Regexp(t, labeledRe, result.Filename)
	})

	t.Run("unknown slug", func(t *testing.T) {
		_, err := cl.Download(ctx, models.DownloadReq{Slug: "nonexistent"})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("no slug and no destination", func(t *testing.T) {
		_, err := cl.Download(ctx, models.DownloadReq{})
		assert.ErrorIs(t, err, ErrEmptyDestination)
	})
}

func TestList(t *testing.T) {
	cl := newTestLogic(t)
	ctx := context.Background()

	first, err := cl.Register(ctx, models.CreateLinkReq{URL: "https://a.example.com"})
	require.NoError(t, err)
	second, err := cl.Register(ctx, models.CreateLinkReq{URL: "https://b.example.com"})
	require.NoError(t, err)

	records, err := cl.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)

	ids := []string{records[0].ID, records[1].ID}
	assert.Contains(t, ids, first.ID)
	assert.Contains(t, ids, second.ID)
}

func TestRegister_PasswordNeverStoredPlain(t *testing.T) {
	storage, err := memory.NewMemoryStorage(make(map[string]models.Record))
	require.NoError(t, err)
	cl := NewCoreLogic(testConfig, storage, zap.L().Sugar())

	link, err := cl.Register(context.Background(), models.CreateLinkReq{
		URL:      "https://example.com",
		Password: "s3cr3t",
	})
	require.NoError(t, err)

	rec, err := storage.Get(context.Background(), link.ID)
	require.NoError(t, err)
	assert.True(t, rec.Protected())
	assert.NotContains(t, rec.PasswordHash, "s3cr3t")
}
