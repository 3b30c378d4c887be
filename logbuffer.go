package main

import (
	"bytes"
	"sync"
)

// maxLogBytes bounds the in-memory log; older output is dropped first
const maxLogBytes = 64 << 10

// logBuffer is the log sink shared by the UI and the background
// session goroutines
type logBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *logBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n, err := b.buf.Write(p)
	if over := b.buf.Len() - maxLogBytes; over > 0 {
		// drop whole lines so the panel never starts mid-entry
		data := b.buf.Bytes()[over:]
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			data = data[i+1:]
		}
		kept := bytes.Clone(data)
		b.buf.Reset()
		b.buf.Write(kept)
	}
	return n, err
}

func (b *logBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *logBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Reset()
}
