package conversation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"chatgate/internal/domain"
	"chatgate/internal/logger"
)

var (
	// ErrEmptyPrompt is returned for a turn with no text.
	ErrEmptyPrompt = errors.New("prompt is empty")
	// ErrNoHandle is returned when the backend finishes a reply without a
	// continuation handle.
	ErrNoHandle = errors.New("backend reply has no continuation handle")
)

// Owner is the session a turn runs in.
type Owner interface {
	// Touch records user activity; it fails once the session is no
	// longer authenticated.
	Touch() error
	// Conversation returns the session's continuity state.
	Conversation() *Conversation
	// TryBeginTurn claims the session's single turn slot.
	TryBeginTurn() (release func(), ok bool)
	// WhileAuthenticated runs fn only if the session is still
	// authenticated, holding off any state change until fn returns.
	WhileAuthenticated(fn func() error) error
}

// Service runs chat turns against a backend.
type Service struct {
	backend domain.Backend
	tools   domain.ToolResolver
	log     logger.Logger
}

// NewService returns a Service. tools may be nil when no tools are configured.
func NewService(backend domain.Backend, tools domain.ToolResolver, log logger.Logger) *Service {
	return &Service{backend: backend, tools: tools, log: log.With(logger.Component("conversation"))}
}

// RunTurn sends prompt to the backend, passes each text delta to onDelta as
// it arrives, and commits the turn once the reply is complete.
//
// On any failure the conversation is left as it was before the call. A
// reply that finishes after the session timed out is dropped and
// domain.ErrSessionTimedOut is returned.
func (s *Service) RunTurn(ctx context.Context, o Owner, prompt string, onDelta func(string) error) (domain.Message, error) {
	if strings.TrimSpace(prompt) == "" {
		return domain.Message{}, ErrEmptyPrompt
	}
	if err := o.Touch(); err != nil {
		return domain.Message{}, err
	}

	release, ok := o.TryBeginTurn()
	if !ok {
		return domain.Message{}, domain.ErrTurnInProgress
	}
	defer release()

	var tools *domain.ToolConfig
	if s.tools != nil {
		t, err := s.tools.ToolConfig(ctx)
		if err != nil {
			return domain.Message{}, fmt.Errorf("resolve tools: %w", err)
		}
		tools = t
	}

	conv := o.Conversation()
	if err := conv.RecordUserTurn(prompt); err != nil {
		return domain.Message{}, err
	}
	req, err := conv.PrepareRequest(tools)
	if err != nil {
		conv.DiscardPendingTurn()
		return domain.Message{}, err
	}

	reply, handle, err := s.stream(ctx, req, onDelta)
	if err != nil {
		conv.DiscardPendingTurn()
		return domain.Message{}, err
	}

	err = o.WhileAuthenticated(func() error {
		return conv.RecordAssistantTurn(reply, handle)
	})
	if err != nil {
		conv.DiscardPendingTurn()
		if errors.Is(err, domain.ErrSessionTimedOut) {
			s.log.Info("discarding reply for timed-out session")
		}
		return domain.Message{}, err
	}

	_ = o.Touch()
	return domain.Message{Role: domain.RoleAssistant, Content: reply}, nil
}

func (s *Service) stream(ctx context.Context, req domain.TurnRequest, onDelta func(string) error) (string, domain.ContinuationHandle, error) {
	st, err := s.backend.StreamTurn(ctx, req)
	if err != nil {
		return "", "", err
	}
	defer st.Close()

	var b strings.Builder
	for {
		delta, err := st.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", "", err
		}
		b.WriteString(delta)
		if onDelta != nil {
			if err := onDelta(delta); err != nil {
				return "", "", err
			}
		}
	}

	handle := st.Handle()
	if handle == "" {
		return "", "", ErrNoHandle
	}
	return b.String(), handle, nil
}
