// Package conversation threads a multi-turn chat through the backend.
//
// A Conversation holds the displayable history and the backend's
// continuation handle for one session. The backend keeps the full context
// on its side; each request only carries the new prompt and the handle of
// the previous reply.
//
// A turn is two-phase. RecordUserTurn stages the prompt, and
// RecordAssistantTurn commits the prompt, the reply and the new handle
// together once the reply stream is drained. If the backend fails,
// DiscardPendingTurn drops the staged prompt so history and handle look
// exactly as they did before the turn started.
//
// Service.RunTurn drives one turn end to end for a session: it serialises
// turns, streams deltas to the caller and refuses to commit a reply to a
// session that timed out while the reply was being generated.
package conversation
