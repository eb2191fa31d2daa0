package telemetry

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level sets the minimum log level (trace, debug, info, warn, error).
	Level string

	// Format specifies the log format (console, json).
	Format string

	// Output specifies where logs are written (stdout, stderr, file path).
	Output string

	// EnableCaller adds file:line caller information to logs.
	EnableCaller bool
}

// EventsConfig configures event publishing.
type EventsConfig struct {
	// Enabled controls whether events are published at all. A disabled
	// publisher accepts and drops everything.
	Enabled bool

	// BufferSize is the channel buffer size for asynchronous publishing.
	BufferSize int

	// EnableAsync delivers events on a background goroutine instead of
	// inline. Planning runs publish inline so report order stays fixed.
	EnableAsync bool
}

// DefaultLoggingConfig returns console logging at info level on stderr.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{Level: "info", Format: "console", Output: "stderr"}
}

// DefaultEventsConfig returns a synchronous, enabled publisher configuration.
func DefaultEventsConfig() EventsConfig {
	return EventsConfig{Enabled: true, BufferSize: 64}
}
