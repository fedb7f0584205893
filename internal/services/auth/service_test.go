package auth_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"chatgate/internal/clock"
	"chatgate/internal/crypto"
	"chatgate/internal/domain"
	"chatgate/internal/logger"
	"chatgate/internal/protocol/logintoken"
	"chatgate/internal/services/auth"
	"chatgate/internal/store"
)

var t0 = time.Unix(1_700_000_000, 0)

type fixture struct {
	svc  *auth.Service
	logs *observer.ObservedLogs
	sign func(user domain.Username, ttl time.Duration) logintoken.Token
}

func setup(t *testing.T) fixture {
	t.Helper()
	_, priv, err := crypto.GenerateEd25519()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	prefix := filepath.Join(t.TempDir(), "dev")
	if _, _, err := store.WriteKeypair(prefix, priv, nil, false); err != nil {
		t.Fatalf("write keypair: %v", err)
	}

	core, logs := observer.New(zapcore.DebugLevel)
	svc, err := auth.New(store.NewKeyFileStore(), prefix+".pub", clock.Fake(t0), logger.FromZap(zap.New(core)))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return fixture{
		svc:  svc,
		logs: logs,
		sign: func(user domain.Username, ttl time.Duration) logintoken.Token {
			tok, err := logintoken.Encode(user, t0.Add(ttl).Unix(), priv)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			return tok
		},
	}
}

func TestNew_MissingKeyFails(t *testing.T) {
	_, err := auth.New(store.NewKeyFileStore(), filepath.Join(t.TempDir(), "none.pub"), clock.Real(), logger.Nop())
	var kle *domain.KeyLoadError
	if !errors.As(err, &kle) {
		t.Fatalf("err = %v, want *KeyLoadError", err)
	}
}

func TestAuthenticate_LogsReasonOnly(t *testing.T) {
	f := setup(t)
	good := f.sign("alice", time.Minute)
	stale := f.sign("alice", -time.Minute)

	cases := []struct {
		name     string
		msg, sig string
		valid    bool
		logMsg   string
		logLevel zapcore.Level
	}{
		{"valid", good.Message, good.Signature, true, "login token accepted", zapcore.InfoLevel},
		{"malformed", good.Message, "@@@", false, "malformed login token", zapcore.WarnLevel},
		{"bad signature", "bob:" + good.Message[len("alice:"):], good.Signature, false, "invalid signature", zapcore.WarnLevel},
		{"expired", stale.Message, stale.Signature, false, "expired login token", zapcore.InfoLevel},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f.logs.TakeAll()
			res := f.svc.Authenticate(context.Background(), tc.msg, tc.sig)
			if res.Valid != tc.valid {
				t.Fatalf("valid = %v, want %v (%+v)", res.Valid, tc.valid, res)
			}
			entries := f.logs.TakeAll()
			if len(entries) != 1 {
				t.Fatalf("got %d log entries, want 1", len(entries))
			}
			if entries[0].Message != tc.logMsg || entries[0].Level != tc.logLevel {
				t.Fatalf("log = %q@%v, want %q@%v", entries[0].Message, entries[0].Level, tc.logMsg, tc.logLevel)
			}
		})
	}
}

func TestAuthenticate_UsesRequestLogger(t *testing.T) {
	f := setup(t)
	core, logs := observer.New(zapcore.DebugLevel)
	ctx := logger.WithContext(context.Background(), logger.FromZap(zap.New(core)).With(logger.RequestID("req-1")))

	tok := f.sign("alice", time.Minute)
	f.svc.Authenticate(ctx, tok.Message, tok.Signature)

	entries := logs.FilterField(zap.String("request_id", "req-1")).All()
	if len(entries) != 1 {
		t.Fatalf("request logger got %d entries, want 1", len(entries))
	}
	if f.logs.Len() != 0 {
		t.Fatal("service logger used despite request logger in context")
	}
}
