package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"chatgate/internal/domain"
	"chatgate/internal/logger"
	"chatgate/internal/services/session"
)

const requestIDHeader = "X-Request-ID"

// requestLogger assigns a request id, stores a request-scoped logger in the
// context and writes one access-log line per request.
func requestLogger(base logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(requestIDHeader)
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, id)

			log := base.With(logger.RequestID(id))
			r = r.WithContext(logger.WithContext(r.Context(), log))

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := []logger.Field{
				logger.Method(r.Method),
				logger.Path(r.URL.Path),
				logger.Status(status),
				logger.Latency(time.Since(start)),
				logger.ClientIP(r.RemoteAddr),
				logger.Int("bytes", ww.BytesWritten()),
			}
			switch {
			case status >= 500:
				log.Error("HTTP request", fields...)
			case status >= 400:
				log.Warn("HTTP request", fields...)
			default:
				log.Info("HTTP request", fields...)
			}
		})
	}
}

type sessionKey struct{}

// requireSession resolves the session cookie and rejects requests without
// an authenticated session.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.cookieSession(r)
		if err == nil {
			err = sess.Touch()
		}
		if err != nil {
			s.writeAuthError(w, err)
			return
		}
		ctx := context.WithValue(r.Context(), sessionKey{}, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFrom(ctx context.Context) *session.Session {
	sess, _ := ctx.Value(sessionKey{}).(*session.Session)
	return sess
}

func (s *Server) cookieSession(r *http.Request) (*session.Session, error) {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return nil, domain.ErrSessionNotFound
	}
	return s.sessions.Get(c.Value)
}

// writeAuthError answers 401 with the one message the visitor may see for
// err: the timeout message for timed-out sessions, the invalid-token
// message for everything else.
func (s *Server) writeAuthError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrSessionTimedOut) {
		writeError(w, http.StatusUnauthorized, domain.MsgSessionTimedOut)
		return
	}
	writeError(w, http.StatusUnauthorized, domain.MsgInvalidToken)
}
