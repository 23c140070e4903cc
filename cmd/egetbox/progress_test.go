package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ZebulonRouseFrantzich/egetbox"
)

func TestFormatProgress(t *testing.T) {
	tests := []struct {
		name string
		p    egetbox.Progress
		want string
	}{
		{"known total", egetbox.Progress{Current: 500, Total: 1000}, "500B / 1kB (50.0%)"},
		{"unknown total", egetbox.Progress{Current: 2000, Total: -1}, "2kB downloaded"},
		{"empty body", egetbox.Progress{Current: 0, Total: 0}, "0B / 0B (100.0%)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatProgress(tt.p); got != tt.want {
				t.Errorf("formatProgress() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProgressPrinter_NonTerminal(t *testing.T) {
	var buf bytes.Buffer
	printer := newProgressPrinter(&buf, false)

	url := "https://example.test/tool.tgz"
	for _, cur := range []int64{0, 400, 1000, 1000} {
		printer(egetbox.Progress{URL: url, Current: cur, Total: 1000})
	}

	want := "Downloaded https://example.test/tool.tgz (1kB)\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestProgressPrinter_Terminal(t *testing.T) {
	var buf bytes.Buffer
	printer := newProgressPrinter(&buf, true)

	url := "https://example.test/tool.tgz"
	printer(egetbox.Progress{URL: url, Current: 10, Total: 20})
	printer(egetbox.Progress{URL: url, Current: 20, Total: 20})

	out := buf.String()
	if strings.Count(out, "\r") != 2 {
		t.Errorf("expected two redraws, got %q", out)
	}
	if !strings.HasSuffix(out, "(100.0%)\n") {
		t.Errorf("final line not terminated: %q", out)
	}
}
