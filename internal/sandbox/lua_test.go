package sandbox

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ZebulonRouseFrantzich/egetbox/internal/platform"
)

func runScript(t *testing.T, script string, inv Invocation) Result {
	t.Helper()
	if inv.SandboxRoot == "" {
		inv.SandboxRoot = t.TempDir()
	}
	c := &LuaCapability{
		Script:   script,
		Platform: &platform.Info{OS: "linux", Arch: "amd64", ArchRaw: "x86_64"},
	}
	res, err := c.Execute(context.Background(), inv)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	return res
}

func TestLuaCapability_ExitStatus(t *testing.T) {
	tests := []struct {
		name       string
		script     string
		wantCode   int
		wantStderr string
	}{
		{"falls off the end", `local x = 1`, 0, ""},
		{"exit zero", `exit(0)`, 0, ""},
		{"exit code", `stderr("nope") exit(4)`, 4, "nope\n"},
		{"numeric return", `return 7`, 7, ""},
		{"string return ignored", `return "done"`, 0, ""},
		{"error call", `error("asset not cached: https://example/asset.tgz")`, 1, "asset not cached: https://example/asset.tgz\n"},
		{"error level zero", `error("plain", 0)`, 1, "plain\n"},
		{"syntax error exits one", `this is not lua`, 1, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runScript(t, tt.script, Invocation{})
			if res.ExitCode != tt.wantCode {
				t.Errorf("ExitCode = %d, want %d (stderr %q)", res.ExitCode, tt.wantCode, res.Stderr)
			}
			if tt.wantStderr != "" && res.Stderr != tt.wantStderr {
				t.Errorf("Stderr = %q, want %q", res.Stderr, tt.wantStderr)
			}
		})
	}
}

func TestLuaCapability_ArgsAndOutput(t *testing.T) {
	script := `
		print(arg.n, arg[1], arg[2])
		print(platform.system)
	`
	res := runScript(t, script, Invocation{Args: []string{"--tag", "v1.2.3"}})

	want := "2\t--tag\tv1.2.3\nlinux/amd64\n"
	if res.Stdout != want {
		t.Errorf("Stdout = %q, want %q", res.Stdout, want)
	}
}

func TestLuaCapability_Sandboxed(t *testing.T) {
	globals := []string{"os", "io", "require", "dofile", "loadfile", "load", "loadstring", "debug"}
	for _, g := range globals {
		t.Run(g, func(t *testing.T) {
			res := runScript(t, `if `+g+` ~= nil then exit(9) end`, Invocation{})
			if res.ExitCode != 0 {
				t.Errorf("%s is reachable from the resolver", g)
			}
		})
	}

	t.Run("platform is read-only", func(t *testing.T) {
		res := runScript(t, `platform.os = "windows"`, Invocation{})
		if res.ExitCode != 1 || !strings.Contains(res.Stderr, "read-only") {
			t.Errorf("got exit %d stderr %q", res.ExitCode, res.Stderr)
		}
	})
}

func TestLuaCapability_FS(t *testing.T) {
	root := t.TempDir()
	work := t.TempDir()

	if err := os.WriteFile(filepath.Join(root, "tool.tgz"), []byte("archive"), 0o644); err != nil {
		t.Fatal(err)
	}

	script := `
		if not fs.exists("/tool.tgz") then exit(2) end
		fs.copy("/tool.tgz", "/work/bin/tool")
		fs.write("/cache/state", fs.read("/tool.tgz") .. "!")
		fs.mkdir("/empty/dir")
	`
	res := runScript(t, script, Invocation{SandboxRoot: root, WorkDir: work})
	if res.ExitCode != 0 {
		t.Fatalf("ExitCode = %d, stderr %q", res.ExitCode, res.Stderr)
	}

	got, err := os.ReadFile(filepath.Join(work, "bin", "tool"))
	if err != nil || string(got) != "archive" {
		t.Errorf("copied file = %q, %v", got, err)
	}
	got, err = os.ReadFile(filepath.Join(root, "cache", "state"))
	if err != nil || string(got) != "archive!" {
		t.Errorf("written file = %q, %v", got, err)
	}
	if info, err := os.Stat(filepath.Join(root, "empty", "dir")); err != nil || !info.IsDir() {
		t.Errorf("mkdir did not create directory: %v", err)
	}
}

func TestLuaCapability_FSConfined(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "sandbox")
	if err := os.Mkdir(root, 0o755); err != nil {
		t.Fatal(err)
	}
	secret := filepath.Join(parent, "secret")
	if err := os.WriteFile(secret, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	res := runScript(t, `if fs.exists("../secret") then exit(3) end`, Invocation{SandboxRoot: root})
	if res.ExitCode != 0 {
		t.Errorf("script escaped the sandbox root")
	}
}

func TestLuaCapability_MissingFileDiagnostic(t *testing.T) {
	res := runScript(t, `fs.read("/tool.tgz")`, Invocation{})
	if res.ExitCode != 1 {
		t.Fatalf("ExitCode = %d", res.ExitCode)
	}
	want := "open /tool.tgz: no such file or directory\n"
	if res.Stderr != want {
		t.Errorf("Stderr = %q, want %q", res.Stderr, want)
	}
}

func TestLuaCapability_ScriptPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resolver.lua")
	if err := os.WriteFile(path, []byte(`return 5`), 0o644); err != nil {
		t.Fatal(err)
	}

	c := &LuaCapability{ScriptPath: path}
	res, err := c.Execute(context.Background(), Invocation{SandboxRoot: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	if res.ExitCode != 5 {
		t.Errorf("ExitCode = %d, want 5", res.ExitCode)
	}

	if _, err := (&LuaCapability{}).Execute(context.Background(), Invocation{SandboxRoot: t.TempDir()}); err == nil {
		t.Error("Execute() without a script should fail")
	}
}

func TestLuaCapability_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	c := &LuaCapability{Script: `while true do end`}
	_, err := c.Execute(ctx, Invocation{SandboxRoot: t.TempDir()})
	if err == nil {
		t.Fatal("Execute() should fail when the context expires")
	}
}
