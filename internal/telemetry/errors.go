package telemetry

import "errors"

// Telemetry errors
var (
	ErrServerClosed         = errors.New("telemetry server is closed")
	ErrServerAlreadyRunning = errors.New("telemetry server is already running")
	ErrFrameTooLarge        = errors.New("telemetry frame too large")
)
