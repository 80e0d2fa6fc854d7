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
	"bufio"
	"io"

	brc "github/sabouaram/htcore/ioutils/bufferReadCloser"
	"github/sabouaram/htcore/ioutils/nopwritecloser"
)

// BufferedOutput batches writes to the connection's output stream. It is
// reused across every pipelined response on one Pipeline; a size of zero
// disables buffering (Write goes straight to the socket).
type BufferedOutput interface {
	io.Writer
	io.StringWriter
	// Flush forces any buffered bytes onto the underlying writer.
	Flush() error
	// Close flushes then releases the buffer. Idempotent.
	Close() error
}

type bufferedOutput struct {
	bw *bufio.Writer
	w  brc.Writer
}

// NewBufferedOutput wraps w with a size-byte write buffer. size <= 0
// disables buffering: writes pass straight through, unbuffered, and Flush
// is a no-op.
func NewBufferedOutput(w io.Writer, size int) BufferedOutput {
	if size <= 0 {
		return &passthroughOutput{w: w}
	}

	bw := bufio.NewWriterSize(nopwritecloser.New(w), size)

	return &bufferedOutput{
		bw: bw,
		w:  brc.NewWriter(bw, nil),
	}
}

func (b *bufferedOutput) Write(p []byte) (int, error) {
	return b.w.Write(p)
}

func (b *bufferedOutput) WriteString(s string) (int, error) {
	return b.w.WriteString(s)
}

func (b *bufferedOutput) Flush() error {
	return b.bw.Flush()
}

func (b *bufferedOutput) Close() error {
	return b.w.Close()
}

type passthroughOutput struct {
	w io.Writer
}

func (p *passthroughOutput) Write(b []byte) (int, error) {
	return p.w.Write(b)
}

func (p *passthroughOutput) WriteString(s string) (int, error) {
	if sw, ok := p.w.(io.StringWriter); ok {
		return sw.WriteString(s)
	}
	return p.w.Write([]byte(s))
}

func (p *passthroughOutput) Flush() error {
	return nil
}

func (p *passthroughOutput) Close() error {
	return nil
}
