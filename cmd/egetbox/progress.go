package main

import (
	"fmt"
	"io"
	"sync"

	units "github.com/docker/go-units"
	"golang.org/x/term"

	"github.com/ZebulonRouseFrantzich/egetbox"
)

var isTerminalFd = term.IsTerminal

// newProgressPrinter reports fetch progress on w. On a terminal the line
// is redrawn in place; otherwise only the finished size is printed.
func newProgressPrinter(w io.Writer, tty bool) egetbox.ProgressFunc {
	var mu sync.Mutex
	done := map[string]bool{}

	return func(p egetbox.Progress) {
		mu.Lock()
		defer mu.Unlock()

		if done[p.URL] {
			return
		}
		finished := p.Total >= 0 && p.Current >= p.Total

		if tty {
			fmt.Fprintf(w, "\r%s %s", p.URL, formatProgress(p))
			if finished {
				fmt.Fprintln(w)
			}
		} else if finished {
			fmt.Fprintf(w, "Downloaded %s (%s)\n", p.URL, units.HumanSize(float64(p.Total)))
		}

		if finished {
			done[p.URL] = true
		}
	}
}

func formatProgress(p egetbox.Progress) string {
	if p.Total < 0 {
		return fmt.Sprintf("%s downloaded", units.HumanSize(float64(p.Current)))
	}
	pct := 100.0
	if p.Total > 0 {
		pct = float64(p.Current) / float64(p.Total) * 100 //nolint:mnd
	}
	return fmt.Sprintf("%s / %s (%.1f%%)", units.HumanSize(float64(p.Current)), units.HumanSize(float64(p.Total)), pct)
}
