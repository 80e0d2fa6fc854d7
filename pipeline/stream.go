/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package pipeline

import (
	"errors"
	"net"
	"sync"
	"time"

	liberr "github/sabouaram/htcore/errors"
)

// pushbackCapacity is the minimum size of the push-back ring required by the
// design: bytes read past the header terminator, or peeked by available(),
// live here until the scanner or a future Read consumes them.
const pushbackCapacity = 512

// probeTimeout is the read deadline installed for the single-byte peek read
// performed by available(). It must be the smallest non-zero duration the
// platform accepts so the probe never masks a slow-but-alive peer as closed.
const probeTimeout = time.Millisecond

// DefaultIdleTimeout is the idle read deadline applied to a stream whose
// caller did not configure one. It matches the acceptor's own default so a
// Pipeline built outside the acceptor still times out a silent peer.
const DefaultIdleTimeout = 60 * time.Second

// PipelineStream wraps a net.Conn with a non-blocking available() probe and
// a small push-back region above the raw socket.
type PipelineStream interface {
	// Available reports the number of push-backed bytes immediately ready
	// to Read without blocking, probing the socket for half-close when the
	// push-back region is empty. It never blocks longer than probeTimeout.
	Available() (int, liberr.Error)
	// Read drains push-backed bytes first, then reads from the raw socket.
	Read(p []byte) (int, error)
	// Pushback re-queues bytes at the front of the stream, to be returned
	// by the next Read/Available before any new socket bytes.
	Pushback(p []byte)
	// SetDeadline proxies net.Conn.SetDeadline.
	SetDeadline(t time.Time) error
	// Closed reports whether Available has already observed end-of-stream
	// or Close has run.
	Closed() bool
	// Close closes the underlying socket. Idempotent.
	Close() error
}

type pipelineStream struct {
	mu     sync.Mutex
	conn   net.Conn
	pushed []byte
	closed bool
	idle   time.Duration
}

// NewPipelineStream wraps conn for non-blocking header probing. idleTimeout
// is the read deadline restored after every probe (the same one the
// acceptor installs on accept); idleTimeout <= 0 falls back to
// DefaultIdleTimeout.
func NewPipelineStream(conn net.Conn, idleTimeout time.Duration) PipelineStream {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}

	return &pipelineStream{conn: conn, pushed: make([]byte, 0, pushbackCapacity), idle: idleTimeout}
}

func (s *pipelineStream) Pushback(p []byte) {
	if len(p) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Prepend: bytes pushed back must be seen before anything already
	// queued from an earlier probe or a previous pushback.
	buf := make([]byte, 0, len(p)+len(s.pushed))
	buf = append(buf, p...)
	buf = append(buf, s.pushed...)
	s.pushed = buf
}

func (s *pipelineStream) Read(p []byte) (int, error) {
	s.mu.Lock()
	if len(s.pushed) > 0 {
		n := copy(p, s.pushed)
		s.pushed = s.pushed[n:]
		s.mu.Unlock()
		return n, nil
	}
	s.mu.Unlock()

	return s.conn.Read(p)
}

// Available implements the three-step probe from the design: drain the
// push-back region first; otherwise install a one-millisecond deadline,
// attempt a one-byte read, push the byte back on success, and re-arm the
// idle read deadline (now + idle) in every path, since the re-arm happens
// in a defer before Available returns.
func (s *pipelineStream) Available() (int, liberr.Error) {
	s.mu.Lock()
	n := len(s.pushed)
	closed := s.closed
	s.mu.Unlock()

	if closed {
		return 0, liberr.ErrorPeerClosed.Error(nil)
	}

	if n > 0 {
		return n, nil
	}

	return s.probe()
}

func (s *pipelineStream) probe() (int, liberr.Error) {
	// The idle-read deadline set by the acceptor (or a prior poll) is not
	// read back; it is re-armed instead: the probe is re-entrant and must never
	// leak its millisecond deadline onto the next blocking operation. A
	// zero time.Time would clear the deadline entirely, so every path
	// re-arms it at now+idle rather than disarming it.
	if err := s.conn.SetReadDeadline(time.Now().Add(probeTimeout)); err != nil {
		return 0, liberr.ErrorIOError.Error(err)
	}

	defer func() {
		_ = s.conn.SetReadDeadline(time.Now().Add(s.idle))
	}()

	var b [1]byte
	n, err := s.conn.Read(b[:])

	if n > 0 {
		s.Pushback(b[:n])
		return n, nil
	}

	if err == nil {
		return 0, nil
	}

	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return 0, nil
	}

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	return 0, liberr.ErrorPeerClosed.Error(err)
}

func (s *pipelineStream) SetDeadline(t time.Time) error {
	return s.conn.SetDeadline(t)
}

func (s *pipelineStream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *pipelineStream) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	// The socket is closed even when Available already observed
	// end-of-stream; a second Close reports no error.
	if err := s.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}

	return nil
}
