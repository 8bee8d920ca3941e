package httpapi

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/focusbot/internal/common"
	"github.com/suPer8Hu/focusbot/internal/httpapi/handlers"
	"github.com/suPer8Hu/focusbot/internal/httpapi/middleware"
	"go.uber.org/zap"
)

type RouterOptions struct {
	FrontendOrigin string
	// BuildDir holds a built front end; ignored when it has no index.html.
	BuildDir string
}

func NewRouter(h *handlers.Handler, opts RouterOptions, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	r.Use(cors.New(corsConfig(opts.FrontendOrigin)))

	spa := spaHandler(opts.BuildDir)
	r.NoRoute(func(c *gin.Context) {
		if spa != nil && c.Request.Method == http.MethodGet && !strings.HasPrefix(c.Request.URL.Path, "/api") {
			spa(c)
			return
		}
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	optional := middleware.OptionalAuth(h.Auth)
	required := middleware.AuthRequired(h.Auth)

	api := r.Group("/api")
	api.GET("", h.Root)
	api.GET("/health", h.Health)

	// auth
	api.POST("/login", h.Login)
	api.POST("/signup", h.Signup)

	// guest allowed
	api.POST("/chat", optional, h.Chat)
	api.GET("/subjects", optional, h.ListSubjects)

	// JWT required
	authed := api.Group("")
	authed.Use(required)
	authed.POST("/subjects", h.CreateSubject)
	authed.DELETE("/subjects/:name", h.DeleteSubject)
	authed.GET("/history", h.ListHistory)
	authed.DELETE("/history", h.ClearHistory)
	authed.DELETE("/history/:id", h.DeleteHistory)
	return r
}

func corsConfig(origin string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders: []string{middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if origin == "" {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = strings.Split(origin, ",")
	for i := range cfg.AllowOrigins {
		cfg.AllowOrigins[i] = strings.TrimSpace(cfg.AllowOrigins[i])
	}
	cfg.AllowCredentials = true
	return cfg
}

// spaHandler serves files from dir and falls back to index.html for client routes.
func spaHandler(dir string) gin.HandlerFunc {
	if dir == "" {
		return nil
	}
	index := filepath.Join(dir, "index.html")
	if _, err := os.Stat(index); err != nil {
		return nil
	}
	return func(c *gin.Context) {
		rel := path.Clean("/" + c.Request.URL.Path)
		p := filepath.Join(dir, filepath.FromSlash(rel))
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			c.File(p)
			return
		}
		c.File(index)
	}
}
