package observability

import "log/slog"

// AppMode tags which runtime role a process is playing, surfaced on every
// log line and span as app.mode.
type AppMode string

const (
	ModeLibrary   AppMode = "library"
	ModeWorker    AppMode = "worker"
	ModeDiagnostic AppMode = "diagnostic"
)

const defaultShutdownTimeoutSec = 5

// Config drives [Init]. An empty OTLPEndpoint runs with no-op tracing and
// metrics providers, leaving only the structured logger active.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Mode           AppMode

	OTLPEndpoint string
	OTLPInsecure bool
	OTLPHeaders  map[string]string

	TraceVerbose bool
	DebugTrace   bool
	SampleRatio  float64

	LogLevel slog.Level
	LogJSON  bool

	ShutdownTimeoutSec int
}
