package auth

import (
	"context"
	"crypto/ed25519"

	"chatgate/internal/clock"
	"chatgate/internal/domain"
	"chatgate/internal/logger"
	"chatgate/internal/protocol/logintoken"
)

// Service authenticates login tokens.
type Service struct {
	pub   ed25519.PublicKey
	clock clock.Clock
	log   logger.Logger
}

// New loads the public key at path through keys and returns a Service.
// A missing or unusable key is fatal for the caller: no login can succeed
// without it.
func New(keys domain.PublicKeyProvider, path string, clk clock.Clock, log logger.Logger) (*Service, error) {
	pub, err := keys.LoadPublicKey(path)
	if err != nil {
		return nil, err
	}
	return &Service{pub: pub, clock: clk, log: log}, nil
}

// PublicKey returns the verification key.
func (s *Service) PublicKey() ed25519.PublicKey { return s.pub }

// Authenticate validates the raw message and signature query values.
func (s *Service) Authenticate(ctx context.Context, message, signature string) domain.AuthResult {
	res := logintoken.Authenticate(message, signature, s.pub, s.clock.Now())

	log := logger.FromContextOr(ctx, s.log).With(logger.Component("auth"))

	switch {
	case res.Valid:
		log.Info("login token accepted", logger.User(string(res.Username)))
	case res.Reason == domain.ReasonMalformed:
		fields := []logger.Field{logger.Reason(string(res.Reason))}
		if res.Cause != nil {
			fields = append(fields, logger.Error(res.Cause))
		}
		log.Warn("malformed login token", fields...)
	case res.Reason == domain.ReasonBadSignature:
		log.Warn("invalid signature", logger.Reason(string(res.Reason)))
	case res.Reason == domain.ReasonExpired:
		log.Info("expired login token", logger.Reason(string(res.Reason)))
	}
	return res
}

var _ domain.Authenticator = (*Service)(nil)
