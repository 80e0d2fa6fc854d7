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
	"net"

	"github.com/google/uuid"
)

// FilterPipeline delegates every operation to an inner Pipeline. It exists
// so wrapping behavior (alternate output buffering, future TLS) is
// composition rather than inheritance: a FilterPipeline is externally
// indistinguishable from the Pipeline it wraps unless a specific method is
// overridden.
type FilterPipeline struct {
	Inner Pipeline
}

// NewFilterPipeline returns a FilterPipeline delegating to inner.
func NewFilterPipeline(inner Pipeline) *FilterPipeline {
	return &FilterPipeline{Inner: inner}
}

func (f *FilterPipeline) ID() uuid.UUID {
	return f.Inner.ID()
}

func (f *FilterPipeline) Input() PipelineStream {
	return f.Inner.Input()
}

func (f *FilterPipeline) Output() BufferedOutput {
	return f.Inner.Output()
}

func (f *FilterPipeline) PeerAddress() net.Addr {
	return f.Inner.PeerAddress()
}

func (f *FilterPipeline) Attr() Attributes {
	return f.Inner.Attr()
}

func (f *FilterPipeline) Closed() bool {
	return f.Inner.Closed()
}

func (f *FilterPipeline) Close() error {
	return f.Inner.Close()
}

var _ Pipeline = (*FilterPipeline)(nil)
