package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"rubric-report-go/db"
	"rubric-report-go/models"
	"rubric-report-go/report"
)

// SessionStore is the session and fetch-cache backend
type SessionStore interface {
	NewSession(ctx context.Context) (*models.Session, error)
	SaveSession(ctx context.Context, sess *models.Session) error
	GetSession(ctx context.Context, id string) (*models.Session, error)
	DeleteSession(ctx context.Context, id string) error
	CacheResult(ctx context.Context, key string, res report.Result) error
	GetResult(ctx context.Context, key string) (report.Result, bool, error)
	InvalidateResult(ctx context.Context, key string) error
}

// Fetcher runs the extraction pipeline for a credential list
type Fetcher interface {
	Run(ctx context.Context, creds []models.Credential) report.Result
}

var _ SessionStore = (*db.RedisService)(nil)
var _ Fetcher = (*report.Extractor)(nil)

// Options configure an APIHandler
type Options struct {
	Username  string
	Password  string
	MaxFacets int
	Secure    bool // Mark the session cookie Secure
}

// APIHandler holds the dependencies for API handlers
type APIHandler struct {
	Store    SessionStore
	Importer *db.CredentialImporter
	Fetcher  Fetcher
	opts     Options
	logger   *zap.Logger
}

// NewAPIHandler creates a new APIHandler
func NewAPIHandler(store SessionStore, importer *db.CredentialImporter, fetcher Fetcher, opts Options, logger *zap.Logger) *APIHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxFacets <= 0 {
		opts.MaxFacets = 12
	}
	return &APIHandler{
		Store:    store,
		Importer: importer,
		Fetcher:  fetcher,
		opts:     opts,
		logger:   logger,
	}
}

// Register mounts every route on the router
func (h *APIHandler) Register(router *gin.Engine) {
	api := router.Group("/api")
	{
		api.GET("/ping", PingHandler)
		api.POST("/login", h.Login)
		api.POST("/logout", h.Logout)

		authed := api.Group("", h.RequireLogin)
		{
			// Token table upload
			authed.POST("/tokens", h.UploadTokens)
			authed.GET("/tokens", h.ListTokens)

			// Fetch and data views
			authed.POST("/fetch", h.Fetch)
			authed.GET("/rows", h.GetRows)
			authed.GET("/options", h.GetOptions)
			authed.GET("/summary", h.GetSummary)
			authed.GET("/averages", h.GetAverages)
			authed.GET("/frequency", h.GetFrequency)
			authed.GET("/comments", h.GetComments)

			// Downloads
			authed.GET("/export/raw.csv", h.ExportRaw)
			authed.GET("/export/summary.csv", h.ExportSummary)
			authed.GET("/export/frequency.csv", h.ExportFrequency)
			authed.GET("/export/comments.csv", h.ExportComments)
			authed.GET("/export/report.xlsx", h.ExportWorkbook)
		}
	}
}

// --- Token Handlers ---

// UploadTokens handles POST /api/tokens
func (h *APIHandler) UploadTokens(c *gin.Context) {
	sess := currentSession(c)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error retrieving uploaded file: " + err.Error()})
		return
	}
	defer file.Close()

	h.logger.Info("token file received", zap.String("file", header.Filename), zap.String("session", sess.ID))

	creds, err := h.Importer.Import(file, header.Filename)
	if err != nil {
		h.logger.Warn("token file rejected", zap.String("file", header.Filename), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read tokens: " + err.Error()})
		return
	}

	sess.Credentials = creds
	sess.ResultKey = ""
	if err := h.Store.SaveSession(c.Request.Context(), sess); err != nil {
		h.logger.Error("save session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store tokens"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Tokens loaded",
		"loaded":  len(creds),
	})
}

// ListTokens handles GET /api/tokens; tokens are masked
func (h *APIHandler) ListTokens(c *gin.Context) {
	sess := currentSession(c)
	out := make([]gin.H, 0, len(sess.Credentials))
	for _, cred := range sess.Credentials {
		out = append(out, gin.H{
			"token":       cred.MaskedToken(),
			"url":         cred.URL,
			"institution": cred.Institution,
		})
	}
	c.JSON(http.StatusOK, out)
}

// --- Fetch Handler ---

// Fetch handles POST /api/fetch. Results for the same token list are served
// from the cache unless ?refresh=true.
func (h *APIHandler) Fetch(c *gin.Context) {
	sess := currentSession(c)
	if len(sess.Credentials) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Upload a token file first"})
		return
	}
	ctx := c.Request.Context()
	key := db.ResultKey(sess.Credentials)

	if c.Query("refresh") == "true" {
		if err := h.Store.InvalidateResult(ctx, key); err != nil {
			h.logger.Warn("invalidate result", zap.Error(err))
		}
	}

	res, cached, err := h.Store.GetResult(ctx, key)
	if err != nil {
		h.logger.Warn("read cached result", zap.Error(err))
	}
	if !cached {
		res = h.Fetcher.Run(ctx, sess.Credentials)
		if err := h.Store.CacheResult(ctx, key, res); err != nil {
			h.logger.Error("cache result", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store fetched data"})
			return
		}
	}

	sess.ResultKey = key
	if err := h.Store.SaveSession(ctx, sess); err != nil {
		h.logger.Error("save session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cached":   cached,
		"stats":    report.Describe(res.Rows),
		"progress": res.Progress,
		"errors":   res.Errors,
	})
}

// --- Ping Handler ---

// PingHandler handles GET /api/ping
func PingHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Pong!"})
}
