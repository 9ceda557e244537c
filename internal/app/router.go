package app

import (
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/rawen554/qrlink/internal/middleware/auth"
	"github.com/rawen554/qrlink/internal/middleware/compress"
	ginLogger "github.com/rawen554/qrlink/internal/middleware/logger"
)

func (a *App) SetupRouter() (*gin.Engine, error) {
	r := gin.New()
	if a.config.ProfileMode {
		pprof.Register(r)
	}

	r.Use(ginLogger.Logger(a.logger.Named("middleware")))
	r.Use(auth.SessionMiddleware(a.config.Secret, a.logger.Named("session_middleware")))
	r.Use(compress.Compress())

	r.GET("/r/:id", a.ResolveLink)
	r.POST("/r/:id", a.ResolveLink)
	r.POST("/download", a.DownloadImage)
	r.GET("/ping", a.Ping)

	api := r.Group("/api")
	{
		linksAPI := api.Group("/links")
		{
			linksAPI.POST("", a.CreateLink)
			linksAPI.POST("/preview", a.PreviewLink)
			linksAPI.GET("", a.GetLinks)
		}
	}

	return r, nil
}
