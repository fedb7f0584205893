package assistant

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"chatgate/internal/domain"
)

// ErrIncompleteStream is returned when the event stream ends before the
// response is reported complete.
var ErrIncompleteStream = errors.New("assistant stream ended before response completed")

// StreamError is a failure reported inside an event stream.
type StreamError struct {
	Code    string
	Message string
}

func (e *StreamError) Error() string {
	if e.Code == "" {
		return "assistant stream: " + e.Message
	}
	return fmt.Sprintf("assistant stream: %s: %s", e.Code, e.Message)
}

type streamEvent struct {
	Type     string `json:"type"`
	Delta    string `json:"delta"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Response *struct {
		ID    string `json:"id"`
		Error *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	} `json:"response"`
}

// Stream is one streamed reply. It is not safe for concurrent use.
type Stream struct {
	body   io.ReadCloser
	sc     *sseScanner
	handle domain.ContinuationHandle
	done   bool
	err    error
}

func newStream(body io.ReadCloser) *Stream {
	return &Stream{body: body, sc: newSSEScanner(body)}
}

// Next returns the next text delta, or io.EOF once the response is complete.
func (s *Stream) Next() (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if s.done {
		return "", io.EOF
	}

	for s.sc.Next() {
		ev := s.sc.Event()
		if ev.Data == "[DONE]" {
			continue
		}
		var se streamEvent
		if err := json.Unmarshal([]byte(ev.Data), &se); err != nil {
			return "", s.fail(fmt.Errorf("assistant stream: decode %q event: %w", ev.Type, err))
		}
		typ := se.Type
		if typ == "" {
			typ = ev.Type
		}

		switch typ {
		case "response.created", "response.in_progress":
			if se.Response != nil && se.Response.ID != "" {
				s.handle = domain.ContinuationHandle(se.Response.ID)
			}
		case "response.output_text.delta":
			if se.Delta != "" {
				return se.Delta, nil
			}
		case "response.completed":
			if se.Response != nil && se.Response.ID != "" {
				s.handle = domain.ContinuationHandle(se.Response.ID)
			}
			s.done = true
			return "", io.EOF
		case "response.failed", "response.incomplete":
			e := &StreamError{Message: typ}
			if se.Response != nil && se.Response.Error != nil {
				e.Code = se.Response.Error.Code
				e.Message = se.Response.Error.Message
			}
			return "", s.fail(e)
		case "error":
			return "", s.fail(&StreamError{Code: se.Code, Message: se.Message})
		}
	}

	if err := s.sc.Err(); err != nil {
		return "", s.fail(fmt.Errorf("assistant stream: %w", err))
	}
	return "", s.fail(ErrIncompleteStream)
}

// Handle returns the response id, which continues the conversation. It is
// only final after Next has returned io.EOF.
func (s *Stream) Handle() domain.ContinuationHandle { return s.handle }

// Close releases the underlying connection.
func (s *Stream) Close() error { return s.body.Close() }

func (s *Stream) fail(err error) error {
	s.err = err
	return err
}

var _ domain.TurnStream = (*Stream)(nil)
