package orchestrator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ZebulonRouseFrantzich/egetbox/internal/diag"
)

var (
	// ErrProtocolStall means the resolver still failed after its one
	// fetch-and-retry cycle.
	ErrProtocolStall = errors.New("resolver stalled after fetching its requested asset")
	// ErrInvalidRepo is returned for an unusable repository identifier.
	ErrInvalidRepo = errors.New("invalid repository")
	// ErrAssetPath is returned when the resolver asks for an asset at a
	// guest path that cannot hold fetched files.
	ErrAssetPath = errors.New("unusable needed-asset path")
)

// CapabilityError is a terminal resolver failure.
type CapabilityError struct {
	Record   diag.ErrorRecord
	ExitCode int
	// Attempt is 1 or 2.
	Attempt int
}

// Error returns the classified message, or the raw diagnostic verbatim
// when the classifier found no fields.
func (e *CapabilityError) Error() string {
	msg := strings.TrimSpace(e.Record.Error)
	switch {
	case msg == "":
		return fmt.Sprintf("resolver exited with status %d", e.ExitCode)
	case e.Record.Path != "":
		return fmt.Sprintf("%s: %s", msg, e.Record.Path)
	case e.Record.URL != "":
		return fmt.Sprintf("%s: %s", msg, e.Record.URL)
	default:
		return e.Record.Error
	}
}
