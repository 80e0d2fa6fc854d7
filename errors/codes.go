/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
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

package errors

// MinPkgCore is the error-code floor reserved for the connection/pipeline
// processing core (pipeline, poller, scheduler, acceptor, handler).
const MinPkgCore = 9000

const (
	ErrorPeerClosed CodeError = iota + MinPkgCore
	ErrorIOError
	ErrorHeaderTooLong
	ErrorInterruptedWait
	ErrorAcceptorFatal
	ErrorHandlerPanic
	ErrorInvalidConfig
)

var isCoreCodeError = false

func IsCoreCodeError() bool {
	return isCoreCodeError
}

func init() {
	isCoreCodeError = ExistInMapMessage(ErrorPeerClosed)
	RegisterIdFctMessage(ErrorPeerClosed, getCoreMessage)
}

func getCoreMessage(code CodeError) (message string) {
	switch code {
	case ErrorPeerClosed:
		return "remote peer closed the connection"
	case ErrorIOError:
		return "i/o error on pipeline connection"
	case ErrorHeaderTooLong:
		return "request header exceeds the configured limit"
	case ErrorInterruptedWait:
		return "poller wait was interrupted by shutdown"
	case ErrorAcceptorFatal:
		return "acceptor listener failed fatally"
	case ErrorHandlerPanic:
		return "request handler panicked"
	case ErrorInvalidConfig:
		return "server configuration is invalid"
	}

	return ""
}
