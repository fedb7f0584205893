package domain

import "time"

// Username identifies the person a login token was issued for.
type Username string

// ContinuationHandle is the backend's opaque reference to the prior turn.
// The zero value means "start a fresh conversation".
type ContinuationHandle string

// Fingerprint is a short, human-comparable digest of a public key.
type Fingerprint string

// Role marks who authored a Message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of the displayable conversation history.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Claims are the signed fields of a login token message.
type Claims struct {
	Username Username
	Expiry   int64 // Unix seconds
}

// Reason explains why a token was rejected. It is for logs only; users
// always see MsgInvalidToken.
type Reason string

const (
	ReasonMalformed    Reason = "malformed"
	ReasonBadSignature Reason = "bad-signature"
	ReasonExpired      Reason = "expired"
)

// AuthResult is the outcome of authenticating a login token.
type AuthResult struct {
	Valid    bool
	Username Username // set when Valid
	Reason   Reason   // set when !Valid
	Cause    error    // underlying decode/parse error, if any
}

// Accepted returns a valid result for u.
func Accepted(u Username) AuthResult { return AuthResult{Valid: true, Username: u} }

// Rejected returns an invalid result with the given reason and optional cause.
func Rejected(r Reason, cause error) AuthResult {
	return AuthResult{Reason: r, Cause: cause}
}

// SessionState is the authentication state of a session.
type SessionState int

const (
	Unauthenticated SessionState = iota
	Authenticated
	TimedOut
)

func (s SessionState) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Authenticated:
		return "authenticated"
	case TimedOut:
		return "timed-out"
	default:
		return "unknown"
	}
}

// IdlePolicy controls how often a session is checked for inactivity and how
// long it may stay idle before it times out.
type IdlePolicy struct {
	Poll    time.Duration
	Timeout time.Duration
}

// SessionSnapshot is a read-only copy of a session's observable state.
type SessionSnapshot struct {
	ID              string
	State           SessionState
	Username        Username
	CreatedAt       time.Time
	LastInteraction time.Time
	TimedOutAt      time.Time
	History         []Message
}

// ToolConfig enables optional backend tools for a turn.
type ToolConfig struct {
	// VectorStoreIDs enables file search over these stores when non-empty.
	VectorStoreIDs []string
}

// FileSearch reports whether file search is enabled.
func (t *ToolConfig) FileSearch() bool { return t != nil && len(t.VectorStoreIDs) > 0 }

// AssistantProfile is the backend assistant's configuration, fetched once.
type AssistantProfile struct {
	ID           string
	Model        string
	Instructions string
	Tools        ToolConfig
}

// TurnRequest is what the backend needs to produce the next reply.
type TurnRequest struct {
	Prompt      string
	PriorHandle ContinuationHandle // empty on the first turn
	Tools       *ToolConfig        // nil when no tools are enabled
}
