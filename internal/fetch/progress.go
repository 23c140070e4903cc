package fetch

import "io"

// Progress describes one chunk boundary of a single download.
type Progress struct {
	URL     string
	Current int64 // Bytes written so far; never decreases within one download.
	Total   int64 // Content-Length; -1 if unknown.
}

// ProgressFunc observes download progress. It is invoked synchronously on
// the goroutine performing the transfer, once per written chunk.
type ProgressFunc func(Progress)

// progressWriter wraps an io.Writer and reports after every write.
type progressWriter struct {
	w          io.Writer
	url        string
	total      int64
	written    int64
	onProgress ProgressFunc
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n, err := pw.w.Write(p)
	pw.written += int64(n)
	if n > 0 && pw.onProgress != nil {
		pw.onProgress(Progress{URL: pw.url, Current: pw.written, Total: pw.total})
	}
	return n, err
}
