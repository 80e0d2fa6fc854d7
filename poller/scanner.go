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

package poller

import "bytes"

// headerToken is the 4-byte HTTP/1.x header terminator: CR LF CR LF.
var headerToken = []byte{'\r', '\n', '\r', '\n'}

// tokenLen is len(headerToken); the scan cursor never precedes it.
const tokenLen = 4

// shiftTable is the 256-entry bad-character table built from headerToken
// at package init: delta[b] = 4 for every byte not in the token, except
// delta['\r'] = 0 and delta['\n'] = 1, the two bytes the token is made of.
// Building it from the token (rather than hardcoding it) keeps the table
// provably derivable from headerToken alone.
var shiftTable = buildShiftTable(headerToken)

func buildShiftTable(token []byte) [256]int {
	var t [256]int

	for i := range t {
		t[i] = tokenLen
	}

	// Bad-character rule: for each byte in the token, the shift is its
	// index. Scanning right to left means the leftmost occurrence of a
	// repeated byte wins, which for CRLFCRLF gives delta['\r'] = 0 and
	// delta['\n'] = 1.
	for i := len(token) - 1; i >= 0; i-- {
		t[token[i]] = i
	}

	return t
}

// scanForTerminator searches buf[0:count] starting at cursor off (off is
// the position just past the last byte already examined; off >= tokenLen)
// for headerToken using the bad-character rule. It returns the index just
// past a found terminator and found=true, or the advanced cursor (to
// resume scanning on the next poll) and found=false.
func scanForTerminator(buf []byte, count int, off int) (matchEnd int, newOff int, found bool) {
	last := headerToken[tokenLen-1]

	for off <= count {
		b := buf[off-1]

		if b == last && off >= tokenLen && bytes.Equal(buf[off-tokenLen:off], headerToken) {
			return off, off, true
		}

		// delta['\r'] is 0 by the table's construction (CR is the token's
		// first byte), which would stall the cursor on a lone trailing CR;
		// force at least one byte of progress per step.
		if shift := shiftTable[b]; shift > 0 {
			off += shift
		} else {
			off++
		}
	}

	return 0, off, false
}
