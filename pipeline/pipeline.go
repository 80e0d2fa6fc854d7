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

// Package pipeline owns one accepted socket for the lifetime of its
// keep-alive connection: its input/output streams, its attribute bag and
// its peer identity. The Poller and Scheduler packages drive a Pipeline;
// they never touch the underlying net.Conn directly.
package pipeline

import (
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Pipeline owns one accepted, keep-alive TCP connection: its streams, an
// attribute bag, and its peer address. Any pair of Attribute operations is
// serialized; Close is idempotent and safe to race against an in-flight
// Read, which either completes or observes an I/O error — never a
// corrupted buffer, since Close only ever closes the socket, it does not
// touch the push-back region directly.
type Pipeline interface {
	// ID returns the pipeline's identity, also mirrored into Attributes
	// under KeyPipelineID.
	ID() uuid.UUID
	// Input returns the same PipelineStream instance across calls: the
	// scanner buffer the Poller maintains is attached to this identity.
	Input() PipelineStream
	// Output returns the pipeline's (optionally buffered) output stream.
	Output() BufferedOutput
	// PeerAddress returns the remote address of the underlying socket.
	PeerAddress() net.Addr
	// Attr exposes the pipeline's attribute bag.
	Attr() Attributes
	// Closed reports whether Close has already run.
	Closed() bool
	// Close releases both streams and the socket. Idempotent: only the
	// first call does work and can return the socket's close error.
	Close() error
}

type pipeline struct {
	mu     sync.Mutex
	id     uuid.UUID
	conn   net.Conn
	in     PipelineStream
	out    BufferedOutput
	attr   Attributes
	closed bool
}

// New wraps conn as a Pipeline with an output buffer of writeBufferBytes
// bytes (0 disables buffering). idleTimeout is the read deadline the input
// stream restores after every Available probe; idleTimeout <= 0 falls back
// to DefaultIdleTimeout.
func New(conn net.Conn, writeBufferBytes int, idleTimeout time.Duration) Pipeline {
	id := uuid.New()
	attr := NewAttributes()
	attr.Set(KeyPipelineID, id.String())

	return &pipeline{
		id:   id,
		conn: conn,
		in:   NewPipelineStream(conn, idleTimeout),
		out:  NewBufferedOutput(conn, writeBufferBytes),
		attr: attr,
	}
}

func (p *pipeline) ID() uuid.UUID {
	return p.id
}

func (p *pipeline) Input() PipelineStream {
	return p.in
}

func (p *pipeline) Output() BufferedOutput {
	return p.out
}

func (p *pipeline) PeerAddress() net.Addr {
	return p.conn.RemoteAddr()
}

func (p *pipeline) Attr() Attributes {
	return p.attr
}

func (p *pipeline) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *pipeline) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	_ = p.out.Close()
	return p.in.Close()
}
