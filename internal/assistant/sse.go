package assistant

import (
	"bufio"
	"io"
	"strings"
)

// sseEvent is a single Server-Sent Event.
type sseEvent struct {
	// Type is the "event:" field, or "" when the event had none.
	Type string
	// Data joins the event's "data:" lines with newlines.
	Data string
}

// sseScanner reads Server-Sent Events from a stream. Events are separated
// by blank lines; comment lines and unknown fields are skipped.
type sseScanner struct {
	r   *bufio.Reader
	cur sseEvent
	err error
}

func newSSEScanner(r io.Reader) *sseScanner {
	return &sseScanner{r: bufio.NewReaderSize(r, 64*1024)}
}

// Next advances to the next event and reports whether there was one.
func (s *sseScanner) Next() bool {
	if s.err != nil {
		return false
	}
	s.cur = sseEvent{}

	var (
		data    []string
		typ     string
		hasData bool
	)
	emit := func() {
		s.cur = sseEvent{Type: typ, Data: strings.Join(data, "\n")}
	}

	for {
		line, err := s.r.ReadString('\n')
		if err != nil && line == "" {
			s.err = err
			if err == io.EOF && hasData {
				emit()
				return true
			}
			return false
		}

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if hasData {
				emit()
				return true
			}
			typ = ""
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, ok := strings.Cut(line, ":")
		if ok {
			value = strings.TrimPrefix(value, " ")
		}
		switch field {
		case "data":
			data = append(data, value)
			hasData = true
		case "event":
			typ = value
		}
	}
}

// Event returns the event read by the last successful Next.
func (s *sseScanner) Event() sseEvent { return s.cur }

// Err returns the error that stopped the scanner, or nil at a clean EOF.
func (s *sseScanner) Err() error {
	if s.err == io.EOF {
		return nil
	}
	return s.err
}
