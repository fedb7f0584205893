package server_test

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"chatgate/internal/clock"
	"chatgate/internal/crypto"
	"chatgate/internal/domain"
	"chatgate/internal/logger"
	"chatgate/internal/protocol/logintoken"
	"chatgate/internal/server"
	"chatgate/internal/services/auth"
	"chatgate/internal/services/conversation"
	"chatgate/internal/services/session"
)

var (
	t0     = time.Unix(1_700_000_000, 0)
	policy = domain.IdlePolicy{Poll: 10 * time.Second, Timeout: 30 * time.Second}
)

type staticKeys struct{ pub ed25519.PublicKey }

func (k staticKeys) LoadPublicKey(string) (ed25519.PublicKey, error) { return k.pub, nil }

type reply struct {
	deltas []string
	handle domain.ContinuationHandle
	err    error

	// stalled, when set, is closed once the deltas are sent; the stream
	// then waits for its context to end.
	stalled chan struct{}
}

type fakeBackend struct {
	mu      sync.Mutex
	replies []reply
}

func (b *fakeBackend) StreamTurn(ctx context.Context, _ domain.TurnRequest) (domain.TurnStream, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r := b.replies[0]
	b.replies = b.replies[1:]
	return &fakeStream{ctx: ctx, r: r}, nil
}

type fakeStream struct {
	ctx context.Context
	r   reply
	i   int
}

func (s *fakeStream) Next() (string, error) {
	if s.i < len(s.r.deltas) {
		s.i++
		return s.r.deltas[s.i-1], nil
	}
	if s.r.stalled != nil {
		close(s.r.stalled)
		<-s.ctx.Done()
		return "", s.ctx.Err()
	}
	if s.r.err != nil {
		return "", s.r.err
	}
	return "", io.EOF
}

func (s *fakeStream) Handle() domain.ContinuationHandle {
	return s.r.handle
}

func (s *fakeStream) Close() error {
	return nil
}

type harness struct {
	srv      *server.Server
	clock    *clock.FakeClock
	sessions *session.Manager
	backend  *fakeBackend
	priv     ed25519.PrivateKey
}

func newHarness(t *testing.T, replies ...reply) *harness {
	t.Helper()
	pub, priv, err := crypto.GenerateEd25519()
	if err != nil {
		t.Fatalf("keygen: %v", err)
	}
	fc := clock.Fake(t0)
	authSvc, err := auth.New(staticKeys{pub}, "test.pub", fc, logger.Nop())
	if err != nil {
		t.Fatalf("auth: %v", err)
	}
	mgr := session.NewManager(fc, policy, time.Hour, logger.Nop())
	t.Cleanup(mgr.Close)

	backend := &fakeBackend{replies: replies}
	srv := server.New(server.Deps{
		Auth:     authSvc,
		Sessions: mgr,
		Turns:    conversation.NewService(backend, nil, logger.Nop()),
		Logger:   logger.Nop(),
	})
	return &harness{srv: srv, clock: fc, sessions: mgr, backend: backend, priv: priv}
}

func (h *harness) loginURL(t *testing.T, user domain.Username, expiry time.Time) string {
	t.Helper()
	tok, err := logintoken.Encode(user, expiry.Unix(), h.priv)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return "/" + tok.Query()
}

func (h *harness) do(req *http.Request, cookie *http.Cookie) *httptest.ResponseRecorder {
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	h.srv.ServeHTTP(rec, req)
	return rec
}

func (h *harness) login(t *testing.T, user domain.Username) *http.Cookie {
	t.Helper()
	rec := h.do(httptest.NewRequest(http.MethodGet, h.loginURL(t, user, t0.Add(time.Hour)), nil), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body)
	}
	return sessionCookie(t, rec)
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == server.CookieName {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body, err)
	}
	return body.Error
}

func chatRequest(prompt string) *http.Request {
	body, _ := json.Marshal(map[string]string{"prompt": prompt})
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestLogin_ValidToken(t *testing.T) {
	h := newHarness(t)
	rec := h.do(httptest.NewRequest(http.MethodGet, h.loginURL(t, "alice", t0.Add(time.Minute)), nil), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	var view struct {
		User    string           `json:"user"`
		About   string           `json:"about"`
		History []domain.Message `json:"history"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.User != "alice" || view.About != "Logged in as *alice*" || len(view.History) != 0 {
		t.Fatalf("view = %+v", view)
	}

	c := sessionCookie(t, rec)
	if !c.HttpOnly {
		t.Fatal("session cookie is not HttpOnly")
	}
	s, err := h.sessions.Get(c.Value)
	if err != nil {
		t.Fatalf("session not registered: %v", err)
	}
	if s.State() != domain.Authenticated {
		t.Fatalf("state = %v", s.State())
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("missing X-Request-ID")
	}
}

func TestLogin_RejectsWithUniformMessage(t *testing.T) {
	h := newHarness(t)
	valid := h.loginURL(t, "alice", t0.Add(time.Minute))

	tests := []struct {
		name string
		url  string
	}{
		{"expired", h.loginURL(t, "alice", t0)},
		{"tampered message", strings.Replace(valid, "alice", "mallory", 1)},
		{"missing signature", valid[:strings.Index(valid, "&")]},
		{"missing message", "/?signature=" + valid[strings.Index(valid, "signature=")+len("signature="):]},
		{"garbage signature", "/?message=alice%3A9999999999&signature=not-base64!"},
		{"empty params", "/?message=&signature="},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := h.do(httptest.NewRequest(http.MethodGet, tc.url, nil), nil)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d", rec.Code)
			}
			if got := errorBody(t, rec); got != domain.MsgInvalidToken {
				t.Fatalf("error = %q", got)
			}
		})
	}
	if n := h.sessions.Len(); n != 0 {
		t.Fatalf("%d sessions started by rejected tokens", n)
	}
}

func TestIndex_NoSession(t *testing.T) {
	h := newHarness(t)
	rec := h.do(httptest.NewRequest(http.MethodGet, "/", nil), nil)
	if rec.Code != http.StatusUnauthorized || errorBody(t, rec) != domain.MsgInvalidToken {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	rec = h.do(httptest.NewRequest(http.MethodGet, "/", nil), &http.Cookie{Name: server.CookieName, Value: "unknown"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unknown cookie status = %d", rec.Code)
	}
}

func TestActivity_KeepsSessionAlive(t *testing.T) {
	h := newHarness(t)
	c := h.login(t, "alice")

	for i := 1; i <= 3; i++ {
		h.clock.Set(t0.Add(time.Duration(i) * 20 * time.Second))
		rec := h.do(httptest.NewRequest(http.MethodPost, "/activity", nil), c)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("activity %d status = %d", i, rec.Code)
		}
	}

	rec := h.do(httptest.NewRequest(http.MethodGet, "/", nil), c)
	if rec.Code != http.StatusOK {
		t.Fatalf("status after activity = %d", rec.Code)
	}
}

func TestIdleSessionTimesOut(t *testing.T) {
	h := newHarness(t)
	c := h.login(t, "alice")

	h.clock.Set(t0.Add(31 * time.Second))
	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodPost, "/activity", nil),
		httptest.NewRequest(http.MethodGet, "/", nil),
		httptest.NewRequest(http.MethodGet, "/history", nil),
		chatRequest("hello?"),
	} {
		rec := h.do(req, c)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s status = %d", req.Method, req.URL.Path, rec.Code)
		}
		if got := errorBody(t, rec); got != domain.MsgSessionTimedOut {
			t.Fatalf("%s %s error = %q", req.Method, req.URL.Path, got)
		}
	}

	s, _ := h.sessions.Get(c.Value)
	if s.State() != domain.TimedOut || s.Username() != "" {
		t.Fatalf("state = %v user = %q", s.State(), s.Username())
	}
}

func TestRelogin_ReplacesSession(t *testing.T) {
	h := newHarness(t, reply{deltas: []string{"hi"}, handle: "resp_1"})
	old := h.login(t, "alice")
	if rec := h.do(chatRequest("hello"), old); rec.Code != http.StatusOK {
		t.Fatalf("chat status = %d", rec.Code)
	}

	h.clock.Set(t0.Add(time.Hour)) // old session is overdue
	rec := h.do(httptest.NewRequest(http.MethodGet, h.loginURL(t, "alice", t0.Add(2*time.Hour)), nil), old)
	if rec.Code != http.StatusOK {
		t.Fatalf("relogin status = %d", rec.Code)
	}
	fresh := sessionCookie(t, rec)
	if fresh.Value == old.Value {
		t.Fatal("relogin reused the session id")
	}
	if _, err := h.sessions.Get(old.Value); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("old session still registered: %v", err)
	}

	s, _ := h.sessions.Get(fresh.Value)
	if len(s.Conversation().History()) != 0 || s.Conversation().Handle() != "" {
		t.Fatal("new session inherited the old conversation")
	}
}

func TestChat_StreamsAndRecordsTurn(t *testing.T) {
	h := newHarness(t, reply{deltas: []string{"Hel", "lo"}, handle: "resp_1"})
	c := h.login(t, "alice")

	rec := h.do(chatRequest("hi"), c)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}
	body := rec.Body.String()
	if n := strings.Count(body, "event: delta\n"); n != 2 {
		t.Fatalf("%d delta events in %q", n, body)
	}
	if !strings.Contains(body, "event: done\ndata: {\"content\":\"Hello\"}\n\n") {
		t.Fatalf("missing done event in %q", body)
	}

	rec = h.do(httptest.NewRequest(http.MethodGet, "/history", nil), c)
	var view struct {
		History []domain.Message `json:"history"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	want := []domain.Message{
		{Role: domain.RoleUser, Content: "hi"},
		{Role: domain.RoleAssistant, Content: "Hello"},
	}
	if len(view.History) != len(want) {
		t.Fatalf("history = %+v", view.History)
	}
	for i := range want {
		if view.History[i] != want[i] {
			t.Fatalf("history[%d] = %+v, want %+v", i, view.History[i], want[i])
		}
	}
}

func TestChat_Errors(t *testing.T) {
	fault := errors.New("upstream down")

	t.Run("empty prompt", func(t *testing.T) {
		h := newHarness(t)
		c := h.login(t, "alice")
		if rec := h.do(chatRequest("   "), c); rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
	})

	t.Run("bad body", func(t *testing.T) {
		h := newHarness(t)
		c := h.login(t, "alice")
		req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader("{"))
		if rec := h.do(req, c); rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
	})

	t.Run("backend fails before reply", func(t *testing.T) {
		h := newHarness(t, reply{err: fault})
		c := h.login(t, "alice")
		rec := h.do(chatRequest("hi"), c)
		if rec.Code != http.StatusBadGateway {
			t.Fatalf("status = %d", rec.Code)
		}
		s, _ := h.sessions.Get(c.Value)
		if len(s.Conversation().History()) != 0 {
			t.Fatal("failed turn recorded")
		}
	})

	t.Run("backend fails mid reply", func(t *testing.T) {
		h := newHarness(t, reply{deltas: []string{"par"}, err: fault})
		c := h.login(t, "alice")
		rec := h.do(chatRequest("hi"), c)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "event: error\n") {
			t.Fatalf("missing error event in %q", rec.Body)
		}
		s, _ := h.sessions.Get(c.Value)
		if len(s.Conversation().History()) != 0 {
			t.Fatal("failed turn recorded")
		}
	})

	t.Run("no session", func(t *testing.T) {
		h := newHarness(t)
		if rec := h.do(chatRequest("hi"), nil); rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d", rec.Code)
		}
	})
}

func TestChat_SessionTimeoutStopsStream(t *testing.T) {
	stalled := make(chan struct{})
	h := newHarness(t, reply{deltas: []string{"par"}, stalled: stalled})
	c := h.login(t, "alice")
	sess, err := h.sessions.Get(c.Value)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() { done <- h.do(chatRequest("hi"), c) }()

	select {
	case <-stalled:
	case <-time.After(5 * time.Second):
		t.Fatal("reply never started")
	}
	h.clock.Set(t0.Add(time.Hour))
	if !sess.CheckIdle() {
		t.Fatal("session did not time out")
	}

	select {
	case rec := <-done:
		body := rec.Body.String()
		if !strings.Contains(body, "event: error\n") || !strings.Contains(body, domain.MsgSessionTimedOut) {
			t.Fatalf("body = %q, want a timed-out error event", body)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("chat kept streaming after the session timed out")
	}
	if len(sess.Conversation().History()) != 0 {
		t.Fatal("reply recorded for a timed-out session")
	}
}

func TestAbout(t *testing.T) {
	h := newHarness(t)

	decode := func(rec *httptest.ResponseRecorder) string {
		var body struct {
			About string `json:"about"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return body.About
	}

	if got := decode(h.do(httptest.NewRequest(http.MethodGet, "/about", nil), nil)); got != "Not logged in" {
		t.Fatalf("anonymous about = %q", got)
	}
	c := h.login(t, "bob")
	if got := decode(h.do(httptest.NewRequest(http.MethodGet, "/about", nil), c)); got != "Logged in as *bob*" {
		t.Fatalf("about = %q", got)
	}
}

func TestHealthz(t *testing.T) {
	h := newHarness(t)
	if rec := h.do(httptest.NewRequest(http.MethodGet, "/healthz", nil), nil); rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}
