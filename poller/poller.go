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

// Package poller implements the per-pipeline state object that performs one
// non-blocking attempt to consume the current request's header using a
// Boyer-Moore scan for the CRLFCRLF terminator.
package poller

import (
	liberr "github/sabouaram/htcore/errors"
	"github/sabouaram/htcore/pipeline"
)

// readChunk is the maximum number of bytes pulled from the pipeline's
// input stream in a single inner read during one poll step.
const readChunk = 512

// growChunk is the minimum amount a poller's buffer grows by once it runs
// low on room, short of the hard header-limit cap.
const growChunk = 512

// Outcome is the result of one Poll() step.
type Outcome int

const (
	// Wait means no terminator was found and no more bytes are currently
	// available; the scheduler should place the poller in its wait bucket.
	Wait Outcome = iota
	// Ready means the header terminator was found; Header holds every
	// byte up to and including it.
	Ready
	// Dead means the pipeline must be closed: peer closed, an I/O error,
	// or an oversize header (Result.Oversize=true, under either policy).
	Dead
)

// Result is the outcome of one Poll() step.
type Result struct {
	Outcome  Outcome
	Phase    int
	Header   []byte
	Oversize bool
	Err      liberr.Error
}

// Poller is the per-pipeline, per-request scanning state. It is not safe
// for concurrent use: the design's single-owner invariant means at most
// one goroutine (a scheduler worker) ever calls Poll on a given instance.
type Poller interface {
	// Poll performs one non-blocking attempt to consume the current
	// request's header and reports Ready, Wait, or Dead.
	Poll() Result
	// Phase returns the current consecutive-empty-poll count.
	Phase() int
}

type poller struct {
	pl          pipeline.Pipeline
	buf         []byte
	count       int
	off         int
	phase       int
	headerLimit int
	// invokeOnOversize records whether serverconfig.InvokeHandler is in
	// force. Poll does not read it: an oversize header is always reported
	// via Result.Oversize=true, and the handler invocation policy is
	// applied one layer up, in the scheduler.
	invokeOnOversize bool
}

// New returns a Poller for a freshly scheduled or newly pipelined request
// on pl. headerLimit bounds the header region (spec default: 8192);
// invokeOnOversize mirrors serverconfig.InvokeHandler.
func New(pl pipeline.Pipeline, headerLimit int, invokeOnOversize bool) Poller {
	return &poller{
		pl:               pl,
		buf:              make([]byte, 0, readChunk),
		off:              tokenLen,
		headerLimit:      headerLimit,
		invokeOnOversize: invokeOnOversize,
	}
}

func (p *poller) Phase() int {
	return p.phase
}

// Poll implements the algorithm from §4.3/§4.4: it pulls bytes in chunks
// of at most readChunk, growing the buffer as needed up to headerLimit,
// scanning after every chunk, and only returns once a terminator is
// found, the pipeline is dead, the header is oversize, or available()
// reports nothing left to read this step.
func (p *poller) Poll() Result {
	consumedAny := false

	for {
		avail, err := p.pl.Input().Available()
		if err != nil {
			return Result{Outcome: Dead, Err: err}
		}

		if avail == 0 {
			break
		}

		n := avail
		if n > readChunk {
			n = readChunk
		}

		if p.count+n > p.headerLimit {
			return p.oversize()
		}

		p.ensureCapacity(p.count + n)

		p.buf = p.buf[:p.count+n]
		read, rerr := p.pl.Input().Read(p.buf[p.count : p.count+n])
		p.buf = p.buf[:p.count+read]

		if read > 0 {
			consumedAny = true
		}

		if rerr != nil && read == 0 {
			return Result{Outcome: Dead, Err: liberr.ErrorIOError.Error(rerr)}
		}

		p.count += read

		matchEnd, newOff, found := scanForTerminator(p.buf, p.count, p.off)
		p.off = newOff

		if found {
			header := make([]byte, matchEnd)
			copy(header, p.buf[:matchEnd])

			if leftover := p.count - matchEnd; leftover > 0 {
				tail := make([]byte, leftover)
				copy(tail, p.buf[matchEnd:p.count])
				p.pl.Input().Pushback(tail)
			}

			p.phase = 0
			return Result{Outcome: Ready, Header: header}
		}
	}

	if consumedAny {
		p.phase = 0
	} else {
		p.phase++
	}

	return Result{Outcome: Wait, Phase: p.phase}
}

func (p *poller) oversize() Result {
	return Result{
		Outcome:  Dead,
		Oversize: true,
		Err:      liberr.ErrorHeaderTooLong.Error(nil),
	}
}

// ensureCapacity grows buf, preserving buf[0:count], so it can hold at
// least need bytes, in increments of growChunk, never beyond headerLimit
// (the caller already rejected requests that would exceed it).
func (p *poller) ensureCapacity(need int) {
	if cap(p.buf) >= need {
		return
	}

	newCap := cap(p.buf)
	for newCap < need {
		newCap += growChunk
	}
	if newCap > p.headerLimit {
		newCap = p.headerLimit
	}

	grown := make([]byte, p.count, newCap)
	copy(grown, p.buf[:p.count])
	p.buf = grown
}
