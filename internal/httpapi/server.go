// Package httpapi exposes the retrieval engine over HTTP.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"resumerag/internal/app"
	"resumerag/internal/domain"
	"resumerag/internal/logger"
	"resumerag/internal/presenter"
	"resumerag/internal/service"
)

// QueryRequest is the body of POST /api/query.
type QueryRequest struct {
	Question string `json:"question" binding:"required"`
	TopK     int    `json:"top_k,omitempty"`
}

// QueryResponse is returned by POST /api/query.
type QueryResponse struct {
	Intent           string            `json:"intent"`
	Answer           *presenter.Answer `json:"answer,omitempty"`
	DownloadURL      string            `json:"download_url,omitempty"`
	ProcessingTimeMs int64             `json:"processing_time_ms"`
}

// ProfileResponse is returned by GET /api/profile.
type ProfileResponse struct {
	Facts   presenter.QuickFacts `json:"facts"`
	Summary string               `json:"summary"`
}

// Controller serves the API for one App.
type Controller struct {
	app *app.App
}

// NewController creates a controller.
func NewController(a *app.App) *Controller { return &Controller{app: a} }

// NewRouter registers every route on a fresh gin engine.
func NewRouter(a *app.App) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLog())
	c := NewController(a)

	router.GET("/health", c.Health)
	api := router.Group("/api")
	{
		api.POST("/query", c.Query)
		api.GET("/profile", c.Profile)
		api.GET("/units", c.Units)
		api.GET("/resume", c.Resume)
		api.POST("/rebuild", c.Rebuild)
	}
	return router
}

// Health reports readiness and the served generation.
func (rc *Controller) Health(c *gin.Context) {
	gen, ready := rc.app.Pipeline().Generation()
	body := gin.H{"status": "healthy", "service": "resumerag", "ready": ready}
	if ready {
		body["generation"] = gen
	}
	c.JSON(http.StatusOK, body)
}

// Query answers a question or routes it to the resume download.
func (rc *Controller) Query(c *gin.Context) {
	start := time.Now()
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	intent, answer, err := rc.app.Ask(c.Request.Context(), req.Question, req.TopK)
	if err != nil {
		rc.fail(c, err)
		return
	}
	resp := QueryResponse{ProcessingTimeMs: time.Since(start).Milliseconds()}
	if intent == presenter.IntentDownload {
		resp.Intent = "download"
		resp.DownloadURL = "/api/resume"
	} else {
		resp.Intent = "search"
		resp.Answer = &answer
	}
	c.JSON(http.StatusOK, resp)
}

// Profile returns quick facts and the condensed summary.
func (rc *Controller) Profile(c *gin.Context) {
	if rc.app.Record() == nil {
		rc.fail(c, domain.ErrNotInitialized)
		return
	}
	c.JSON(http.StatusOK, ProfileResponse{Facts: rc.app.Facts(), Summary: rc.app.Summary()})
}

// Units lists every indexed unit in handle order.
func (rc *Controller) Units(c *gin.Context) {
	units, err := rc.app.Pipeline().Units()
	if err != nil {
		rc.fail(c, err)
		return
	}
	views := make([]presenter.UnitView, len(units))
	for i, u := range units {
		views[i] = presenter.View(service.Result{Unit: u})
	}
	c.JSON(http.StatusOK, gin.H{"units": views})
}

// Resume serves the resume document as an attachment.
func (rc *Controller) Resume(c *gin.Context) {
	path := rc.app.Config().Record.Document
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "resume document not available"})
		return
	}
	c.FileAttachment(path, "Resume.pdf")
}

// Rebuild reloads the record file and swaps in a new index.
func (rc *Controller) Rebuild(c *gin.Context) {
	gen, err := rc.app.Reload(c.Request.Context())
	if err != nil {
		rc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"generation": gen})
}

func (rc *Controller) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotInitialized):
		status = http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrMalformedRecord):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	if status >= 500 {
		logger.Error("request failed", err, "path", c.FullPath())
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request", "method", c.Request.Method, "path", c.Request.URL.Path,
			"status", c.Writer.Status(), "duration", time.Since(start))
	}
}

// Serve runs the API on addr until ctx is done.
func Serve(ctx context.Context, addr string, a *app.App) error {
	srv := &http.Server{Addr: addr, Handler: NewRouter(a), ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
