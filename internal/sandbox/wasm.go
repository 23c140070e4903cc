package sandbox

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"
)

// ModuleCache holds one compiled resolver module and the runtime that owns
// it. The slot is filled on first use and reused until Reset.
type ModuleCache struct {
	mu      sync.Mutex
	runtime wazero.Runtime
	module  wazero.CompiledModule
}

// defaultModuleCache is shared by every WasmCapability without its own
// cache, so the process compiles the resolver once.
var defaultModuleCache = &ModuleCache{}

// ResetModuleCache tears down the shared compiled module.
func ResetModuleCache(ctx context.Context) error {
	return defaultModuleCache.Reset(ctx)
}

// Get returns the cached runtime and module, compiling the bytes from load
// on first use. Failed compilations are not cached.
func (c *ModuleCache) Get(ctx context.Context, load func() ([]byte, error)) (wazero.Runtime, wazero.CompiledModule, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.module != nil {
		return c.runtime, c.module, nil
	}

	wasm, err := load()
	if err != nil {
		return nil, nil, fmt.Errorf("load resolver module: %w", err)
	}

	rt := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfig().WithCloseOnContextDone(true))
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		rt.Close(ctx)
		return nil, nil, fmt.Errorf("instantiate WASI: %w", err)
	}

	mod, err := rt.CompileModule(ctx, wasm)
	if err != nil {
		rt.Close(ctx)
		return nil, nil, fmt.Errorf("compile resolver module: %w", err)
	}

	c.runtime = rt
	c.module = mod
	return rt, mod, nil
}

// Loaded reports whether the slot currently holds a compiled module.
func (c *ModuleCache) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.module != nil
}

// Reset closes the runtime and empties the slot. Safe on an empty cache.
func (c *ModuleCache) Reset(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.runtime == nil {
		return nil
	}
	err := c.runtime.Close(ctx)
	c.runtime = nil
	c.module = nil
	if err != nil {
		return fmt.Errorf("close wasm runtime: %w", err)
	}
	return nil
}

// WasmCapability runs the resolver as a WASI preview1 module.
type WasmCapability struct {
	// ModulePath is read when Source is nil.
	ModulePath string
	// Source supplies the module bytes directly.
	Source func() ([]byte, error)
	// ProgramName is argv[0]; defaults to DefaultProgramName.
	ProgramName string
	// Cache defaults to the process-wide slot.
	Cache *ModuleCache
}

var _ Capability = (*WasmCapability)(nil)

// Execute instantiates the module with the guest layout described in the
// package doc and waits for it to exit.
func (w *WasmCapability) Execute(ctx context.Context, inv Invocation) (Result, error) {
	cache := w.Cache
	if cache == nil {
		cache = defaultModuleCache
	}

	rt, compiled, err := cache.Get(ctx, w.load)
	if err != nil {
		return Result{}, err
	}

	name := w.ProgramName
	if name == "" {
		name = DefaultProgramName
	}

	fsConfig := wazero.NewFSConfig().WithDirMount(inv.SandboxRoot, GuestRoot)
	cwd := GuestRoot
	if inv.WorkDir != "" {
		fsConfig = fsConfig.WithDirMount(inv.WorkDir, GuestWorkDir)
		cwd = GuestWorkDir
	}

	var stdout, stderr bytes.Buffer
	config := wazero.NewModuleConfig().
		WithName(""). // anonymous, so concurrent instances don't collide
		WithArgs(append([]string{name}, inv.Args...)...).
		WithEnv("PWD", cwd).
		WithEnv("HOME", GuestRoot).
		WithStdout(&stdout).
		WithStderr(&stderr).
		WithFSConfig(fsConfig).
		WithSysWalltime().
		WithSysNanotime().
		WithRandSource(rand.Reader)

	mod, err := rt.InstantiateModule(ctx, compiled, config)
	if mod != nil {
		defer mod.Close(ctx)
	}

	if ctx.Err() != nil {
		return Result{}, ctx.Err()
	}

	res := Result{}
	if err != nil {
		var exitErr *sys.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = int(exitErr.ExitCode())
		} else {
			// A trap is a resolver crash, not a host failure.
			res.ExitCode = 1
			if stderr.Len() > 0 {
				stderr.WriteByte('\n')
			}
			stderr.WriteString(err.Error())
		}
	}

	res.Stdout = stdout.String()
	res.Stderr = stderr.String()
	return res, nil
}

func (w *WasmCapability) load() ([]byte, error) {
	if w.Source != nil {
		return w.Source()
	}
	if w.ModulePath == "" {
		return nil, fmt.Errorf("no resolver module configured")
	}
	return os.ReadFile(w.ModulePath)
}
