package services

import (
	"fmt"
	"log"

	"github.com/custodia-labs/idlekit/internal/core/ports/driven"
)

// reporter writes background failures to the process log and mirrors
// them to the diagnostic sink.
type reporter struct {
	diag driven.DiagnosticSink
}

func (r reporter) Printf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Print(msg)
	if r.diag != nil {
		r.diag.Record(msg)
	}
}
