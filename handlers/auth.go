package handlers

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"rubric-report-go/db"
	"rubric-report-go/models"
)

// SessionCookie carries the session id
const SessionCookie = "rubric_session"

const sessionKey = "session"

type loginRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

// Login handles POST /api/login
func (h *APIHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if !h.checkCredentials(req.Username, req.Password) {
		h.logger.Info("login rejected", zap.String("username", req.Username))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}

	// Always issue a fresh id; a cookie presented before login is discarded.
	ctx := c.Request.Context()
	if old, err := c.Cookie(SessionCookie); err == nil && old != "" {
		if err := h.Store.DeleteSession(ctx, old); err != nil {
			h.logger.Warn("delete previous session", zap.Error(err))
		}
	}
	sess, err := h.Store.NewSession(ctx)
	if err != nil {
		h.logger.Error("create session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}
	sess.LoggedIn = true
	sess.Username = req.Username
	if err := h.Store.SaveSession(ctx, sess); err != nil {
		h.logger.Error("save session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, sess.ID, 0, "/", "", h.opts.Secure, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged in", "username": sess.Username})
}

// Logout handles POST /api/logout
func (h *APIHandler) Logout(c *gin.Context) {
	if id, err := c.Cookie(SessionCookie); err == nil && id != "" {
		if err := h.Store.DeleteSession(c.Request.Context(), id); err != nil {
			h.logger.Warn("delete session", zap.Error(err))
		}
	}
	c.SetCookie(SessionCookie, "", -1, "/", "", h.opts.Secure, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// RequireLogin rejects requests without a logged-in session
func (h *APIHandler) RequireLogin(c *gin.Context) {
	sess, err := h.lookupSession(c)
	if err != nil {
		if !errors.Is(err, db.ErrSessionNotFound) {
			h.logger.Error("load session", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to load session"})
			return
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Please log in to access the app"})
		return
	}
	if !sess.LoggedIn {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Please log in to access the app"})
		return
	}
	c.Set(sessionKey, sess)
	c.Next()
}

func (h *APIHandler) lookupSession(c *gin.Context) (*models.Session, error) {
	id, err := c.Cookie(SessionCookie)
	if err != nil {
		return nil, db.ErrSessionNotFound
	}
	return h.Store.GetSession(c.Request.Context(), id)
}

func (h *APIHandler) checkCredentials(username, password string) bool {
	if h.opts.Username == "" || h.opts.Password == "" {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(h.opts.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(h.opts.Password)) == 1
	return userOK && passOK
}

func currentSession(c *gin.Context) *models.Session {
	return c.MustGet(sessionKey).(*models.Session)
}
