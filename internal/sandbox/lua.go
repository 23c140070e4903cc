package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ZebulonRouseFrantzich/egetbox/internal/platform"
	lua "github.com/yuin/gopher-lua"
)

// LuaCapability runs a resolver written in Lua. The script sees:
//
//	arg          -- argv without the program name, 1-indexed
//	platform     -- read-only host table (when Platform is set)
//	print(...)   -- writes to stdout
//	stderr(...)  -- writes a diagnostic line
//	exit(code)   -- stops the script with the given status
//	fs.exists(p), fs.read(p), fs.write(p, s), fs.copy(src, dst), fs.mkdir(p)
//
// fs paths are guest paths. A script that raises an error exits 1 with the
// message on stderr; a numeric return value becomes the exit code.
type LuaCapability struct {
	// Script is the resolver source. ScriptPath is read when Script is empty.
	Script     string
	ScriptPath string
	Platform   *platform.Info
}

var _ Capability = (*LuaCapability)(nil)

var chunkPrefix = regexp.MustCompile(`^<string>:\d+:\s*`)

type exitSignal struct {
	set  bool
	code int
}

// Execute runs the script once in a fresh VM.
func (c *LuaCapability) Execute(ctx context.Context, inv Invocation) (Result, error) {
	src := c.Script
	if src == "" {
		if c.ScriptPath == "" {
			return Result{}, fmt.Errorf("no resolver script configured")
		}
		data, err := os.ReadFile(c.ScriptPath)
		if err != nil {
			return Result{}, fmt.Errorf("read resolver script: %w", err)
		}
		src = string(data)
	}

	L := newSandboxedVM()
	defer L.Close()
	L.SetContext(ctx)

	var stdout, stderr bytes.Buffer
	exit := &exitSignal{}

	args := L.NewTable()
	L.SetField(args, "n", lua.LNumber(len(inv.Args)))
	for i, a := range inv.Args {
		args.RawSetInt(i+1, lua.LString(a))
	}
	L.SetGlobal("arg", args)

	L.SetGlobal("print", L.NewFunction(writer(&stdout)))
	L.SetGlobal("stderr", L.NewFunction(writer(&stderr)))
	L.SetGlobal("exit", L.NewFunction(func(L *lua.LState) int {
		exit.set = true
		exit.code = L.OptInt(1, 0)
		L.RaiseError("exit")
		return 0
	}))
	L.SetGlobal("fs", newFSTable(L, inv))

	if c.Platform != nil {
		platform.InjectPlatformTable(L, c.Platform)
	}

	err := L.DoString(src)

	if ctx.Err() != nil {
		return Result{}, ctx.Err()
	}

	res := Result{}
	switch {
	case exit.set:
		res.ExitCode = exit.code
	case err != nil:
		res.ExitCode = 1
		if stderr.Len() > 0 && !bytes.HasSuffix(stderr.Bytes(), []byte("\n")) {
			stderr.WriteByte('\n')
		}
		stderr.WriteString(scriptError(err))
		stderr.WriteByte('\n')
	default:
		if top := L.GetTop(); top > 0 {
			if n, ok := L.Get(top).(lua.LNumber); ok {
				res.ExitCode = int(n)
			}
		}
	}

	res.Stdout = stdout.String()
	res.Stderr = stderr.String()
	return res, nil
}

// newSandboxedVM creates a Lua state without os, io, module loading or
// the debug library. string, table and math remain.
func newSandboxedVM() *lua.LState {
	L := lua.NewState()
	for _, name := range []string{"os", "io", "require", "dofile", "loadfile", "load", "loadstring", "debug", "module", "package"} {
		L.SetGlobal(name, lua.LNil)
	}
	return L
}

func scriptError(err error) string {
	var apiErr *lua.ApiError
	if errors.As(err, &apiErr) && apiErr.Object != nil {
		return chunkPrefix.ReplaceAllString(apiErr.Object.String(), "")
	}
	return chunkPrefix.ReplaceAllString(err.Error(), "")
}

func writer(w io.Writer) lua.LGFunction {
	return func(L *lua.LState) int {
		n := L.GetTop()
		parts := make([]string, 0, n)
		for i := 1; i <= n; i++ {
			parts = append(parts, L.ToStringMeta(L.Get(i)).String())
		}
		fmt.Fprintln(w, strings.Join(parts, "\t"))
		return 0
	}
}

func newFSTable(L *lua.LState, inv Invocation) *lua.LTable {
	resolve := func(L *lua.LState, n int) string {
		guest := L.CheckString(n)
		host, err := ResolveGuestPath(inv.SandboxRoot, inv.WorkDir, guest)
		if err != nil {
			L.RaiseError("%v", err)
		}
		return host
	}

	t := L.NewTable()

	L.SetField(t, "exists", L.NewFunction(func(L *lua.LState) int {
		_, err := os.Stat(resolve(L, 1))
		L.Push(lua.LBool(err == nil))
		return 1
	}))

	L.SetField(t, "read", L.NewFunction(func(L *lua.LState) int {
		guest := L.CheckString(1)
		data, err := os.ReadFile(resolve(L, 1))
		if err != nil {
			L.RaiseError("open %s: %v", guest, unwrapPathError(err))
		}
		L.Push(lua.LString(data))
		return 1
	}))

	L.SetField(t, "write", L.NewFunction(func(L *lua.LState) int {
		guest := L.CheckString(1)
		host := resolve(L, 1)
		data := L.CheckString(2)
		if err := os.MkdirAll(filepath.Dir(host), 0o755); err != nil {
			L.RaiseError("create %s: %v", guest, unwrapPathError(err))
		}
		if err := os.WriteFile(host, []byte(data), 0o644); err != nil {
			L.RaiseError("create %s: %v", guest, unwrapPathError(err))
		}
		return 0
	}))

	L.SetField(t, "copy", L.NewFunction(func(L *lua.LState) int {
		srcGuest := L.CheckString(1)
		src := resolve(L, 1)
		dstGuest := L.CheckString(2)
		dst := resolve(L, 2)
		if err := copyFile(src, dst); err != nil {
			L.RaiseError("copy %s to %s: %v", srcGuest, dstGuest, unwrapPathError(err))
		}
		return 0
	}))

	L.SetField(t, "mkdir", L.NewFunction(func(L *lua.LState) int {
		guest := L.CheckString(1)
		if err := os.MkdirAll(resolve(L, 1), 0o755); err != nil {
			L.RaiseError("mkdir %s: %v", guest, unwrapPathError(err))
		}
		return 0
	}))

	return t
}

// unwrapPathError drops the host path from a *PathError so diagnostics
// only ever mention guest paths.
func unwrapPathError(err error) error {
	var pe *os.PathError
	if errors.As(err, &pe) {
		return pe.Err
	}
	return err
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
