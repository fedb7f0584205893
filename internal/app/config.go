package app

import (
	"net/http"

	"chatgate/internal/clock"
	"chatgate/internal/config"
	"chatgate/internal/logger"
)

// Config holds runtime wiring options for building the app.
type Config struct {
	Settings *config.Config // loaded environment section
	Logger   logger.Logger  // optional; built from Settings.Log when nil
	Clock    clock.Clock    // optional; defaults to clock.Real()
	HTTP     *http.Client   // optional; defaults to a client with the backend timeout
}
