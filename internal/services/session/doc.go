// Package session implements the per-visitor authentication state machine
// and the registry that owns live sessions.
//
// States
//
//	Unauthenticated --Login(valid)------------------> Authenticated(u)
//	Unauthenticated --Login(invalid)----------------> Unauthenticated
//	Authenticated(u) --Touch------------------------> Authenticated(u)
//	Authenticated(u) --idle check, idle > timeout---> TimedOut
//
// TimedOut is terminal: the username and conversation are cleared and every
// further operation fails with domain.ErrSessionTimedOut. Getting back in
// needs a fresh token and a new Session.
//
// # Idle checks
//
// Each authenticated session runs a watcher goroutine that evaluates the
// idle rule every poll interval, whether or not the visitor does anything.
// Touch also evaluates the rule first, so a session that is already past
// its timeout cannot be revived by activity that lands between two polls.
//
// # Manager
//
// Manager maps session ids to sessions for the HTTP layer, starts and stops
// watchers, and sweeps timed-out sessions once they have been kept long
// enough to tell the visitor what happened.
package session
