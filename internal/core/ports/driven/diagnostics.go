package driven

// DiagnosticSink records diagnostic messages.
// Record must never block or fail the caller.
type DiagnosticSink interface {
	Record(message string)
}
