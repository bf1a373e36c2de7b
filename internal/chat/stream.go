package chat

import (
	"context"
	"io"
	"sync"
	"unicode/utf8"
)

// StreamHandle represents one in-flight generation request. Exactly one
// handle is active per conversation at a time; it never outlives its HTTP
// exchange.
type StreamHandle struct {
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	bytes  int64
}

func newStreamHandle(cancel context.CancelFunc) *StreamHandle {
	return &StreamHandle{cancel: cancel}
}

// Cancel signals cooperative cancellation. Safe to call more than once and
// after the stream has already closed naturally.
func (h *StreamHandle) Cancel() {
	h.cancel()
}

// Closed reports whether the stream has finished (success, error or cancel)
func (h *StreamHandle) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// BytesReceived returns the accumulated fragment byte count (observability only)
func (h *StreamHandle) BytesReceived() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.bytes
}

func (h *StreamHandle) addBytes(n int) {
	h.mu.Lock()
	h.bytes += int64(n)
	h.mu.Unlock()
}

func (h *StreamHandle) markClosed() {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
}

const fragmentBufSize = 4096

// FragmentReader decodes a raw UTF-8 byte stream into text fragments.
// A chunk boundary may split a multi-byte character; the incomplete tail is
// carried over and prepended to the next chunk, so every returned fragment
// contains only whole codepoints.
type FragmentReader struct {
	r        io.Reader
	buf      []byte
	pending  []byte
	savedErr error
}

// NewFragmentReader wraps r (typically a streaming response body)
func NewFragmentReader(r io.Reader) *FragmentReader {
	return &FragmentReader{
		r:   r,
		buf: make([]byte, fragmentBufSize),
	}
}

// Next returns the next non-empty decoded fragment. io.EOF signals normal
// completion; any other error is a read-time failure. Fragments are returned
// strictly in arrival order.
func (fr *FragmentReader) Next() (string, error) {
	for {
		if fr.savedErr != nil {
			err := fr.savedErr
			if err == io.EOF && len(fr.pending) > 0 {
				// Stream ended mid-codepoint; flush the raw remainder as-is
				frag := string(fr.pending)
				fr.pending = nil
				return frag, nil
			}
			return "", err
		}

		n, err := fr.r.Read(fr.buf)
		if n > 0 {
			fr.pending = append(fr.pending, fr.buf[:n]...)
		}
		if err != nil {
			fr.savedErr = err
		}

		if complete := completeRunePrefix(fr.pending); complete > 0 {
			frag := string(fr.pending[:complete])
			fr.pending = append([]byte(nil), fr.pending[complete:]...)
			return frag, nil
		}
	}
}

// completeRunePrefix returns the length of the longest prefix of b that ends
// on a codepoint boundary. Malformed sequences pass through untouched; only a
// plausibly incomplete trailing rune is held back.
func completeRunePrefix(b []byte) int {
	n := len(b)
	if n == 0 {
		return 0
	}
	if b[n-1] < utf8.RuneSelf {
		return n
	}

	start := n - 1
	for start > 0 && n-start < utf8.UTFMax && !utf8.RuneStart(b[start]) {
		start--
	}
	if !utf8.RuneStart(b[start]) {
		// No rune start within reach: not a split codepoint, pass through
		return n
	}
	if utf8.FullRune(b[start:]) {
		return n
	}
	return start
}
