// Package server is chatgate's HTTP surface.
//
// HTTP API
//
//	GET /?message=...&signature=...
//	    Log in with a signed token. Always starts a new session and sets
//	    the session cookie. Any rejected token answers 401 with
//	    {"error": "Invalid login token."}.
//
//	GET /
//	    Without token parameters, show the cookie's session:
//	    {"user": ..., "about": ..., "history": [...]}. A timed-out session
//	    answers 401 {"error": "Session timed out."}.
//
//	POST /chat {"prompt": "..."}
//	    Run one chat turn. The reply streams as Server-Sent Events:
//	    "delta" events carry {"text": ...}, a final "done" event carries
//	    {"content": ...}, and a backend failure mid-reply ends the stream
//	    with an "error" event. Failures before the first delta are plain
//	    JSON errors (400 empty prompt, 409 turn already running, 502
//	    backend failure).
//
//	GET /history
//	    The session's completed turns.
//
//	POST /activity
//	    Report UI activity; refreshes the idle clock. 204 on success.
//
//	GET /about
//	    {"about": "Logged in as *alice*"} or "Not logged in".
//
//	GET /healthz
//	    Liveness probe.
//
// Behaviour
//
//   - Every request on an authenticated session counts as activity.
//   - Authentication failures never say which check failed.
//   - Each request gets an X-Request-ID and one access-log line. Query
//     strings are not logged because they carry login tokens.
package server
