/*
MIT License

Copyright (c) 2019 Nicolas JUHEL

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

package context

import (
	"context"
	"time"
)

type isolated struct {
	parent context.Context
	done   chan struct{}
	once   func()
}

// IsolateParent returns a context that carries the parent's values and is
// cancelled when the parent is, but never inherits the parent's deadline.
// A pipelined request handler uses this so a long-lived connection deadline
// does not leak into the per-request context it hands to a RequestHandler.
func IsolateParent(parent context.Context) context.Context {
	if parent == nil {
		parent = context.Background()
	}

	i := &isolated{
		parent: parent,
		done:   make(chan struct{}),
	}

	var closeOnce bool
	i.once = func() {
		if !closeOnce {
			closeOnce = true
			close(i.done)
		}
	}

	go func() {
		select {
		case <-parent.Done():
			i.once()
		case <-i.done:
		}
	}()

	return i
}

func (i *isolated) Deadline() (deadline time.Time, ok bool) {
	return time.Time{}, false
}

func (i *isolated) Done() <-chan struct{} {
	return i.done
}

func (i *isolated) Err() error {
	select {
	case <-i.done:
		return i.parent.Err()
	default:
		return nil
	}
}

func (i *isolated) Value(key any) any {
	return i.parent.Value(key)
}
