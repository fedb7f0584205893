// Package logintoken implements the signed login tokens that grant access
// to the chat.
//
// # Format
//
// A token is two URL query parameters:
//
//	message   = "<username>:<expiry>"     expiry in Unix seconds
//	signature = base64url(Ed25519(message)), padded
//
// The signature covers the exact message bytes. Usernames are non-empty and
// may not contain ':'.
//
// # Flow
//
// Authenticate runs the checks in a fixed order and stops at the first
// failure:
//  1. Decode the signature (malformed on failure).
//  2. Parse the message into username and expiry (malformed on failure).
//  3. Verify the signature with the public key (bad-signature on mismatch).
//  4. Require expiry > now (expired otherwise).
//
// The reason is reported for logging only. Callers show every failure the
// same way.
//
// # Security notes
//
// A token is a bearer capability: anyone holding the URL can log in as the
// named user until it expires. Nothing records used tokens, so a token can
// be replayed within its validity window. Keep timeouts short.
package logintoken
