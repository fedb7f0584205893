// Package domain defines core data models and interfaces shared across the app.
// It contains plain types (tokens, sessions, conversation state), the sentinel
// errors callers match with errors.Is, and contracts (interfaces) only.
package domain
