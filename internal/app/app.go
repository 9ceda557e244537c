package app

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rawen554/qrlink/internal/config"
	"github.com/rawen554/qrlink/internal/logic"
	"github.com/rawen554/qrlink/internal/middleware/auth"
	"github.com/rawen554/qrlink/internal/models"
	"github.com/rawen554/qrlink/internal/session"
	"go.uber.org/zap"
)

const (
	contentTypePNG     = "image/png"
	errIncorrectPass   = "incorrect password"
	errEmptyURLMessage = "url must not be empty"
)

type App struct {
	config    *config.ServerConfig
	coreLogic *logic.CoreLogic
	sessions  *session.Store
	logger    *zap.SugaredLogger
}

func NewApp(config *config.ServerConfig, coreLogic *logic.CoreLogic, sessions *session.Store, logger *zap.SugaredLogger) *App {
	return &App{
		config:    config,
		coreLogic: coreLogic,
		sessions:  sessions,
		logger:    logger,
	}
}

// CreateLink registers a destination and responds with the slug, the
// public resolve URL and an inline preview image.
func (a *App) CreateLink(c *gin.Context) {
	var req models.CreateLinkReq
	if err := c.ShouldBindJSON(&req); err != nil {
		a.logger.Errorf("body cannot be decoded: %v", err)
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	link, err := a.coreLogic.Register(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, logic.ErrEmptyDestination) {
			c.JSON(http.StatusBadRequest, gin.H{"error": errEmptyURLMessage})
			return
		}
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusCreated, models.CreateLinkRes{
		ID:     link.ID,
		Result: link.ResolveURL,
		QR:     base64.StdEncoding.EncodeToString(link.PNG),
	})
}

// PreviewLink encodes a destination without persisting anything.
func (a *App) PreviewLink(c *gin.Context) {
	var req models.PreviewReq
	if err := c.ShouldBindJSON(&req); err != nil {
		a.logger.Errorf("body cannot be decoded: %v", err)
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	png, err := a.coreLogic.Preview(c.Request.Context(), req.URL)
	if err != nil {
		if errors.Is(err, logic.ErrEmptyDestination) {
			c.JSON(http.StatusBadRequest, gin.H{"error": errEmptyURLMessage})
			return
		}
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	c.Data(http.StatusOK, contentTypePNG, png)
}

// ResolveLink turns a slug into a redirect, a password challenge or 404.
// The unlock grant is scoped to the visitor session from the cookie.
func (a *App) ResolveLink(c *gin.Context) {
	id := c.Param("id")
	sess := a.sessions.Session(c.GetString(auth.SessionIDKey))

	res, err := a.coreLogic.Resolve(c.Request.Context(), id, sess, c.PostForm("password"))
	if err != nil {
		if errors.Is(err, logic.ErrNotFound) {
			c.AbortWithStatus(http.StatusNotFound)
			return
		}
		if errors.Is(err, logic.ErrPasswordMismatch) {
			c.JSON(http.StatusForbidden, gin.H{"error": errIncorrectPass})
			return
		}
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	if res.Locked {
		c.JSON(http.StatusUnauthorized, models.ChallengeRes{Name: res.Label, Locked: true})
		return
	}

	c.Writer.Header().Set("Location", res.Destination)
	c.Writer.WriteHeader(http.StatusTemporaryRedirect)
}

// DownloadImage returns a download-preset PNG for an existing slug or a
// raw URL, with a suggested attachment filename.
func (a *App) DownloadImage(c *gin.Context) {
	req := models.DownloadReq{
		Slug:        c.PostForm("slug"),
		Destination: c.PostForm("url"),
		Name:        c.PostForm("name"),
	}

	result, err := a.coreLogic.Download(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, logic.ErrEmptyDestination) {
			c.JSON(http.StatusBadRequest, gin.H{"error": errEmptyURLMessage})
			return
		}
		if errors.Is(err, logic.ErrNotFound) {
			c.AbortWithStatus(http.StatusNotFound)
			return
		}
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, contentTypePNG, result.PNG)
}

// GetLinks lists all registered slugs newest first.
func (a *App) GetLinks(c *gin.Context) {
	records, err := a.coreLogic.List(c.Request.Context())
	if err != nil {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	items := make([]models.LinkListItem, 0, len(records))
	for _, rec := range records {
		items = append(items, models.LinkListItem{
			ID:        rec.ID,
			Name:      rec.Label,
			Folder:    rec.Group,
			URL:       rec.Destination,
			CreatedAt: rec.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, items)
}

func (a *App) Ping(c *gin.Context) {
	if err := a.coreLogic.Ping(c.Request.Context()); err != nil {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.Status(http.StatusOK)
}
