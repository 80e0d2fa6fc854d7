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

// Package handler defines the single boundary between the connection core
// and application code: RequestHandler receives one pipelined request's
// header bytes and decides whether the pipeline stays open.
package handler

import (
	"context"

	"github/sabouaram/htcore/pipeline"
)

// Outcome is the disposition a RequestHandler hands back to the scheduler.
type Outcome int

const (
	// KeepAlive schedules the next Poller on the same pipeline.
	KeepAlive Outcome = iota
	// Close closes the pipeline once the handler returns.
	Close
	// FatalError logs and closes the pipeline; used for panics and
	// handler-reported unrecoverable conditions.
	FatalError
)

func (o Outcome) String() string {
	switch o {
	case KeepAlive:
		return "keep_alive"
	case Close:
		return "close"
	case FatalError:
		return "fatal_error"
	default:
		return "unknown"
	}
}

// RequestHandler is the only interface application code implements against
// this core. Handle receives everything read up to and including the
// terminating CRLFCRLF; bytes past it have already been pushed back onto
// the pipeline's input stream. header is nil when the invocation is for an
// oversize header under serverconfig.InvokeHandler, in which case
// pipeline.Attr() carries pipeline.KeyOversize=true.
type RequestHandler interface {
	Handle(ctx context.Context, pl pipeline.Pipeline, header []byte) Outcome
}

// Func adapts a plain function to RequestHandler.
type Func func(ctx context.Context, pl pipeline.Pipeline, header []byte) Outcome

func (f Func) Handle(ctx context.Context, pl pipeline.Pipeline, header []byte) Outcome {
	return f(ctx, pl, header)
}

// badResponse is the literal bytes of a minimal 500 response, written when
// no handler has been configured.
var badResponse = []byte("HTTP/1.1 500 Internal Server Error\r\nContent-Length: 0\r\nConnection: close\r\n\r\n")

// NewBadHandler returns the fallback RequestHandler used when a server is
// started without one configured: every request is answered with a bare
// 500 and the pipeline is closed.
func NewBadHandler() RequestHandler {
	return Func(func(_ context.Context, pl pipeline.Pipeline, _ []byte) Outcome {
		_, _ = pl.Output().Write(badResponse)
		_ = pl.Output().Flush()
		return Close
	})
}
