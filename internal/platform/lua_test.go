package platform

import (
	"strings"
	"testing"

	lua "github.com/yuin/gopher-lua"
)

func TestInjectPlatformTable(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	InjectPlatformTable(L, &Info{
		OS:       "linux",
		Arch:     "arm64",
		ArchRaw:  "aarch64",
		Platform: "ubuntu",
		Family:   "debian",
		Version:  "24.04",
	})

	tests := []struct {
		name string
		code string
		want lua.LValue
	}{
		{"system", `return platform.system`, lua.LString("linux/arm64")},
		{"os", `return platform.os`, lua.LString("linux")},
		{"arch", `return platform.arch`, lua.LString("arm64")},
		{"arch_raw", `return platform.arch_raw`, lua.LString("aarch64")},
		{"is_linux", `return platform.is_linux`, lua.LTrue},
		{"is_macos", `return platform.is_macos`, lua.LFalse},
		{"distro.id", `return platform.distro.id`, lua.LString("ubuntu")},
		{"distro.family", `return platform.distro.family`, lua.LString("debian")},
		{"distro.version", `return platform.distro.version`, lua.LString("24.04")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := L.DoString(tt.code); err != nil {
				t.Fatalf("DoString(%q) error = %v", tt.code, err)
			}
			got := L.Get(-1)
			L.Pop(1)
			if got != tt.want {
				t.Errorf("%s = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}

func TestInjectPlatformTable_NoDistroOffLinux(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	InjectPlatformTable(L, &Info{OS: "darwin", Arch: "arm64"})

	if err := L.DoString(`return platform.distro`); err != nil {
		t.Fatal(err)
	}
	if got := L.Get(-1); got != lua.LNil {
		t.Errorf("platform.distro = %v, want nil", got)
	}
}

func TestInjectPlatformTable_ReadOnly(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	InjectPlatformTable(L, &Info{OS: "linux", Arch: "amd64"})

	tests := []string{
		`platform.os = "windows"`,
		`platform.new_field = 1`,
		`setmetatable(platform, nil)`,
	}

	for _, code := range tests {
		err := L.DoString(code)
		if err == nil {
			t.Errorf("DoString(%q) should fail on a read-only table", code)
			continue
		}
		if !strings.Contains(err.Error(), "read-only") && !strings.Contains(err.Error(), "protected") {
			t.Errorf("DoString(%q) error = %v, want read-only/protected error", code, err)
		}
	}
}
