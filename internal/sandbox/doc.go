// Package sandbox runs the release resolver with no network access and a
// filesystem view restricted to one scope directory, and turns its exit
// status and diagnostics into a RunOutcome.
//
// # Guest Layout
//
// Every Capability presents the same filesystem to the resolver:
//
//	/        the sandbox root (fetched assets live here)
//	/work    the host output directory; also the resolver's working dir
//
// Paths reported by the resolver are guest paths; ResolveGuestPath maps
// them back to host paths and refuses anything escaping the mounts.
//
// # Capabilities
//
//   - WasmCapability runs a WASI preview1 module under wazero. WASI has no
//     sockets, so the guest cannot reach the network. The compiled module is
//     kept in a ModuleCache slot shared by all instances.
//   - LuaCapability runs a resolver script in a gopher-lua VM stripped of
//     os, io, require and load*, with a small fs table confined to the
//     guest layout above.
//
// The Runner never retries. A failed run whose diagnostic names a URL is
// reported as a NeededAsset; the caller decides whether to fetch it.
package sandbox
