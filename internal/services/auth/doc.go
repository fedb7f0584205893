// Package auth checks login tokens against the deployment's public key.
//
// It binds the cached verification key, the clock and the logger around
// logintoken.Authenticate. Each rejection is logged with its reason so
// operators can tell a garbled link from a forged or stale one, but the
// result handed back to the HTTP layer is shown to the visitor as the same
// message in every case.
package auth
