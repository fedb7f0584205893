package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"chatgate/internal/domain"
	"chatgate/internal/logger"
	"chatgate/internal/protocol/logintoken"
	"chatgate/internal/services/conversation"
	"chatgate/internal/services/session"
)

const maxChatBody = 1 << 20

type sessionView struct {
	User    domain.Username  `json:"user"`
	About   string           `json:"about"`
	History []domain.Message `json:"history"`
}

type chatRequest struct {
	Prompt string `json:"prompt"`
}

func about(user domain.Username) string {
	if user == "" {
		return "Not logged in"
	}
	return fmt.Sprintf("Logged in as *%s*", user)
}

func viewOf(sess *session.Session) sessionView {
	snap := sess.Snapshot()
	h := snap.History
	if h == nil {
		h = []domain.Message{}
	}
	return sessionView{User: snap.Username, About: about(snap.Username), History: h}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleIndex logs in when token parameters are present and otherwise
// shows the current session.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Has(logintoken.ParamMessage) || q.Has(logintoken.ParamSignature) {
		s.login(w, r, q.Get(logintoken.ParamMessage), q.Get(logintoken.ParamSignature))
		return
	}

	sess, err := s.cookieSession(r)
	if err == nil {
		err = sess.Touch()
	}
	if err != nil {
		s.writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess))
}

func (s *Server) login(w http.ResponseWriter, r *http.Request, message, signature string) {
	// A fresh login replaces whatever session the browser held.
	if c, err := r.Cookie(CookieName); err == nil {
		s.sessions.Remove(c.Value)
	}

	res := s.auth.Authenticate(r.Context(), message, signature)
	sess, err := s.sessions.Start(res)
	if err != nil {
		s.clearCookie(w)
		writeError(w, http.StatusUnauthorized, domain.MsgInvalidToken)
		return
	}

	logger.FromContextOr(r.Context(), s.log).Info("session started",
		logger.SessionID(sess.ID()),
		logger.User(string(res.Username)),
	)
	s.setCookie(w, sess.ID())
	writeJSON(w, http.StatusOK, viewOf(sess))
}

func (s *Server) handleAbout(w http.ResponseWriter, r *http.Request) {
	var user domain.Username
	if sess, err := s.cookieSession(r); err == nil && sess.State() == domain.Authenticated {
		user = sess.Username()
	}
	writeJSON(w, http.StatusOK, map[string]string{"about": about(user)})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, viewOf(sessionFrom(r.Context())))
}

func (s *Server) handleActivity(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	log := logger.FromContextOr(r.Context(), s.log).With(logger.SessionID(sess.ID()))

	var req chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// The backend stream stops as soon as the session ends.
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go func() {
		select {
		case <-sess.Done():
			cancel()
		case <-ctx.Done():
		}
	}()

	sse := newSSEWriter(w)
	msg, err := s.turns.RunTurn(ctx, sess, req.Prompt, func(delta string) error {
		return sse.event("delta", map[string]string{"text": delta})
	})
	if err != nil {
		if sess.State() == domain.TimedOut {
			err = domain.ErrSessionTimedOut
		}
		log.Warn("chat turn failed", logger.Error(err))
		if sse.started {
			_ = sse.event("error", map[string]string{"error": turnErrorMessage(err)})
			return
		}
		s.writeTurnError(w, err)
		return
	}
	_ = sse.event("done", map[string]string{"content": msg.Content})
}

func (s *Server) writeTurnError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, conversation.ErrEmptyPrompt):
		writeError(w, http.StatusBadRequest, turnErrorMessage(err))
	case errors.Is(err, domain.ErrTurnInProgress):
		writeError(w, http.StatusConflict, turnErrorMessage(err))
	case errors.Is(err, domain.ErrSessionTimedOut), errors.Is(err, domain.ErrUnauthenticated):
		s.writeAuthError(w, err)
	default:
		writeError(w, http.StatusBadGateway, turnErrorMessage(err))
	}
}

func turnErrorMessage(err error) string {
	switch {
	case errors.Is(err, conversation.ErrEmptyPrompt):
		return "Prompt is empty."
	case errors.Is(err, domain.ErrTurnInProgress):
		return "A reply is already being generated."
	case errors.Is(err, domain.ErrSessionTimedOut):
		return domain.MsgSessionTimedOut
	default:
		return "The assistant could not answer. Please try again."
	}
}

func (s *Server) setCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
