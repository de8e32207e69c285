// Package diagnostics provides DiagnosticSink implementations.
//
// FileSink appends timestamped lines to a file from a background writer so
// Record never blocks; LogSink forwards to the verbose logger; Multi fans a
// record out to several sinks.
package diagnostics
