// Package assistant provides an HTTP implementation of domain.Backend for
// OpenAI-compatible APIs.
//
// Two endpoints are used:
//
//	GET  /v1/assistants/{id}
//	    Read the configured assistant once: its model, its instructions and
//	    the vector stores it can search. The result is cached for the life
//	    of the Client; failures are not cached.
//
//	POST /v1/responses  (stream: true)
//	    Produce one reply. The request carries the new prompt and, after
//	    the first turn, previous_response_id so the server supplies the
//	    earlier context. The reply arrives as Server-Sent Events:
//	    response.output_text.delta events carry text, and
//	    response.completed carries the response id that becomes the next
//	    continuation handle.
//
// Non-2xx statuses are returned as *APIError with the status code and the
// server's error message. A stream that reports response.failed or error,
// or that ends before response.completed, fails the turn.
package assistant
