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
	libatm "github/sabouaram/htcore/atomic"
)

// KeyPipelineID is the reserved Attributes key under which a Pipeline mirrors
// its own identity so a RequestHandler can read it without a dedicated
// accessor.
const KeyPipelineID = "pipeline.id"

// KeyOversize is the reserved Attributes key set true on the single handler
// invocation triggered by serverconfig.InvokeHandler when the header exceeds
// the configured limit.
const KeyOversize = "htcore.oversize"

// Attributes is a concurrent string -> opaque object bag attached to a
// Pipeline. Name enumeration is a best-effort, live snapshot: a consumer
// must always re-check per-key presence rather than trust Names() to be
// consistent with a concurrent Set/Remove.
type Attributes interface {
	Get(name string) (value interface{}, ok bool)
	Has(name string) bool
	Set(name string, value interface{})
	Remove(name string)
	// Names returns a snapshot of currently known keys. Concurrent Set/Remove
	// calls may make the snapshot stale by the time the caller reads it.
	Names() []string
}

type attributes struct {
	m libatm.Map[string]
}

// NewAttributes returns an empty, ready-to-use Attributes bag.
func NewAttributes() Attributes {
	return &attributes{m: libatm.NewMapAny[string]()}
}

func (a *attributes) Get(name string) (interface{}, bool) {
	return a.m.Load(name)
}

func (a *attributes) Has(name string) bool {
	_, ok := a.m.Load(name)
	return ok
}

func (a *attributes) Set(name string, value interface{}) {
	a.m.Store(name, value)
}

func (a *attributes) Remove(name string) {
	a.m.Delete(name)
}

func (a *attributes) Names() []string {
	names := make([]string, 0)

	a.m.Range(func(key string, _ interface{}) bool {
		names = append(names, key)
		return true
	})

	return names
}
