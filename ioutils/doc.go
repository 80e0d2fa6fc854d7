/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
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

/*
Package ioutils provides small io.Closer/io.WriteCloser wrapping helpers used
by the pipeline output path.

# Subpackages

  - bufferReadCloser: io.Closer wrappers around bytes.Buffer and bufio types,
    used to give the pipeline a reusable, resettable outbound byte buffer.
  - nopwritecloser: wraps an io.Writer with a no-op Close(), used where a
    component needs an io.WriteCloser but the underlying writer (e.g. a
    net.Conn already closed elsewhere) must not be closed twice.

NewBufferReadCloser, in this file's sibling, adapts a *bytes.Buffer into an
io.ReadCloser whose Close resets the buffer for reuse.
*/
package ioutils
