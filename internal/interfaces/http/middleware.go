package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/wa2g/denis-portal/internal/application/service"
	"github.com/wa2g/denis-portal/internal/domain/workflow"
	"github.com/wa2g/denis-portal/internal/repository"
	"github.com/wa2g/denis-portal/internal/session"
	"github.com/wa2g/denis-portal/internal/upstream"
)

const sessionKey = "session"

// requireSession authenticates the request from the auth cookie, falling
// back to a bearer Authorization header. A request that fails verification
// always gets the same response: cookie cleared, 401, login location.
func (s *Server) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(s.auth.CookieName)
		if err != nil || token == "" {
			if auth := c.GetHeader("Authorization"); len(auth) > 7 && auth[:7] == "Bearer " {
				token = auth[7:]
			}
		}
		if token == "" {
			s.rejectSession(c)
			return
		}
		sess, err := session.Parse(s.auth.JWTSecret, token)
		if err != nil {
			s.rejectSession(c)
			return
		}
		c.Set(sessionKey, sess)
		c.Next()
	}
}

func (s *Server) rejectSession(c *gin.Context) {
	s.clearSessionCookie(c)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":    "authentication required",
		"redirect": s.auth.LoginURL,
	})
}

func (s *Server) clearSessionCookie(c *gin.Context) {
	c.SetCookie(s.auth.CookieName, "", -1, "/", "", false, true)
}

func currentSession(c *gin.Context) session.Session {
	v, _ := c.Get(sessionKey)
	sess, _ := v.(session.Session)
	return sess
}

// respondError maps service and upstream failures onto HTTP responses.
// An expired upstream credential is indistinguishable from a missing
// local session on purpose: same status, same redirect.
func (s *Server) respondError(c *gin.Context, err error) {
	var rejection *upstream.RejectionError
	var network *upstream.NetworkError

	switch {
	case errors.Is(err, upstream.ErrUnauthorized):
		s.rejectSession(c)
	case errors.Is(err, workflow.ErrNotPermitted):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrEntityNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrAttemptInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, workflow.ErrOverReceive), errors.Is(err, workflow.ErrInvalidQuantity), errors.Is(err, workflow.ErrInvalidStatus):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.As(err, &rejection):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": rejection.Message})
	case errors.As(err, &network):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "upstream unreachable, please retry"})
	default:
		s.logger.Error("unhandled request error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
