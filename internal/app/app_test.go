package app_test

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"chatgate/internal/app"
	"chatgate/internal/config"
	"chatgate/internal/crypto"
	"chatgate/internal/domain"
	"chatgate/internal/logger"
	"chatgate/internal/store"
)

func settings(t *testing.T, backendURL string) *config.Config {
	t.Helper()
	_, priv, err := crypto.GenerateEd25519()
	if err != nil {
		t.Fatalf("keygen: %v", err)
	}
	_, pubPath, err := store.WriteKeypair(filepath.Join(t.TempDir(), "server"), priv, nil, false)
	if err != nil {
		t.Fatalf("write keypair: %v", err)
	}
	return &config.Config{
		Env:         "test",
		PubKey:      pubPath,
		AssistantID: "asst_1",
		Idle:        config.IdleConfig{Poll: 1, Timeout: 30, Retain: 30},
		Server:      config.ServerConfig{Addr: "127.0.0.1:0", ShutdownTimeout: 5},
		Backend:     config.BackendConfig{BaseURL: backendURL, APIKeyEnv: "CHATGATE_TEST_KEY", Timeout: 5},
	}
}

func TestNewWire_MissingPublicKey(t *testing.T) {
	s := settings(t, "http://127.0.0.1:1")
	s.PubKey = filepath.Join(t.TempDir(), "missing.pub")

	_, err := app.NewWire(app.Config{Settings: s, Logger: logger.Nop()})
	var kle *domain.KeyLoadError
	if !errors.As(err, &kle) {
		t.Fatalf("err = %v, want KeyLoadError", err)
	}
}

func TestNewWire_Fingerprint(t *testing.T) {
	s := settings(t, "http://127.0.0.1:1")
	w, err := app.NewWire(app.Config{Settings: s, Logger: logger.Nop()})
	if err != nil {
		t.Fatalf("wire: %v", err)
	}
	t.Cleanup(w.Sessions.Close)

	want, err := crypto.Fingerprint(w.Auth.PublicKey())
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	if w.Fingerprint != want {
		t.Fatalf("fingerprint = %q, want %q", w.Fingerprint, want)
	}
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"asst_1","model":"gpt-4o","tools":[]}`))
	}))
	defer backend.Close()

	a, err := app.New(app.Config{Settings: settings(t, backend.URL), Logger: logger.Nop()})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/healthz"
	var resp *http.Response
	for i := 0; i < 50; i++ {
		resp, err = http.Get(url)
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
