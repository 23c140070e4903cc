package platform

import (
	"testing"
)

func TestNormalizeArch(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"amd64", "amd64", "amd64", false},
		{"x86_64", "x86_64", "amd64", false},
		{"arm64", "arm64", "arm64", false},
		{"aarch64", "aarch64", "arm64", false},
		{"i686", "i686", "386", false},
		{"armv7l", "armv7l", "arm", false},
		{"uppercase", "X86_64", "amd64", false},
		{"riscv64", "riscv64", "riscv64", false},
		{"unknown", "sparc", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeArch(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("normalizeArch() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("normalizeArch() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalizePlatform(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"ubuntu", "ubuntu"},
		{"Ubuntu", "ubuntu"},
		{"  ubuntu  ", "ubuntu"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := normalizePlatform(tt.input); got != tt.want {
			t.Errorf("normalizePlatform(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestMapFamily(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"debian", FamilyDebian},
		{"ubuntu", FamilyDebian},
		{"CentOS", FamilyRHEL},
		{"manjaro", FamilyArch},
		{"alpine", FamilyAlpine},
		{"plan9", FamilyUnknown},
		{"", FamilyUnknown},
	}

	for _, tt := range tests {
		if got := mapFamily(tt.input); got != tt.want {
			t.Errorf("mapFamily(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
