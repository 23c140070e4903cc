package egetbox

import (
	"context"

	"github.com/ZebulonRouseFrantzich/egetbox/internal/diag"
	"github.com/ZebulonRouseFrantzich/egetbox/internal/fetch"
	"github.com/ZebulonRouseFrantzich/egetbox/internal/logging"
	"github.com/ZebulonRouseFrantzich/egetbox/internal/orchestrator"
	"github.com/ZebulonRouseFrantzich/egetbox/internal/platform"
	"github.com/ZebulonRouseFrantzich/egetbox/internal/sandbox"
)

type (
	// DownloadOptions is the per-call configuration of Download.
	DownloadOptions = orchestrator.DownloadSpec
	// Progress is one progress event of an asset fetch.
	Progress     = fetch.Progress
	ProgressFunc = fetch.ProgressFunc

	// HTTPError is a failed asset fetch; Kind tells the variants apart.
	HTTPError    = fetch.HTTPError
	HTTPKind     = fetch.Kind
	TimeoutError = fetch.TimeoutError
	// CapabilityError is a terminal resolver failure.
	CapabilityError = orchestrator.CapabilityError
	ErrorRecord     = diag.ErrorRecord

	RunOutcome  = sandbox.RunOutcome
	NeededAsset = sandbox.NeededAsset
	Capability  = sandbox.Capability
	Invocation  = sandbox.Invocation
	RunResult   = sandbox.Result

	// WasmCapability and LuaCapability are the built-in resolvers.
	WasmCapability = sandbox.WasmCapability
	LuaCapability  = sandbox.LuaCapability

	AssetVerifier = orchestrator.AssetVerifier
	Detector      = platform.Detector
	SystemInfo    = platform.Info
	Logger        = logging.Logger
)

// HTTP failure kinds.
const (
	KindGeneric     = fetch.KindGeneric
	KindNotFound    = fetch.KindNotFound
	KindServerError = fetch.KindServerError
	KindRateLimited = fetch.KindRateLimited
)

var (
	ErrHTTP          = fetch.ErrHTTP
	ErrNotFound      = fetch.ErrNotFound
	ErrServerError   = fetch.ErrServerError
	ErrRateLimited   = fetch.ErrRateLimited
	ErrTimeout       = fetch.ErrTimeout
	ErrProtocolStall = orchestrator.ErrProtocolStall
	ErrInvalidRepo   = orchestrator.ErrInvalidRepo
)

// Classify parses resolver diagnostic text into an ErrorRecord.
func Classify(raw string) ErrorRecord {
	return diag.Classify(raw)
}

// ResetModuleCache drops the shared compiled WASI module.
func ResetModuleCache(ctx context.Context) error {
	return sandbox.ResetModuleCache(ctx)
}
