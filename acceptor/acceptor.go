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

// Package acceptor owns the listening socket: it accepts connections,
// configures them per the core's defaults, wraps each in a Pipeline and
// hands it to the Scheduler.
package acceptor

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	liblog "github/sabouaram/htcore/logger"

	"github/sabouaram/htcore/pipeline"
	"github/sabouaram/htcore/serverconfig"
)

// Scheduler is the subset of scheduler.Scheduler the acceptor depends on;
// declared locally so the acceptor depends on this contract rather than on
// the scheduler package itself.
type Scheduler interface {
	Submit(pl pipeline.Pipeline)
}

// Acceptor is the lifecycle of one bound listening socket.
type Acceptor interface {
	// Start binds cfg.ListenAddress and runs the accept loop in a new
	// goroutine. Returns once the socket is listening.
	Start(ctx context.Context) error
	// Stop closes the listening socket, causing the accept loop to exit.
	Stop() error
	// IsRunning reports whether the accept loop is currently active.
	IsRunning() bool
	// GetError returns the last fatal error observed by the accept loop.
	GetError() error
}

type acceptor struct {
	cfg *serverconfig.Config
	sch Scheduler
	log liblog.FuncLog

	m       sync.RWMutex
	ln      net.Listener
	running bool
	err     error
}

// New returns an Acceptor that will bind cfg.ListenAddress and hand every
// accepted connection to sch.
func New(cfg *serverconfig.Config, sch Scheduler, log liblog.FuncLog) Acceptor {
	return &acceptor{cfg: cfg, sch: sch, log: log}
}

func (a *acceptor) logger() liblog.Logger {
	a.m.RLock()
	defer a.m.RUnlock()

	if a.log == nil {
		return liblog.GetDefault()
	}
	if l := a.log(); l != nil {
		return l
	}
	return liblog.GetDefault()
}

func (a *acceptor) Start(ctx context.Context) error {
	lc := net.ListenConfig{Backlog: a.cfg.AcceptBacklog}

	ln, err := lc.Listen(ctx, "tcp", a.cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("acceptor: listen %s: %w", a.cfg.ListenAddress, err)
	}

	a.m.Lock()
	a.ln = ln
	a.running = true
	a.err = nil
	a.m.Unlock()

	go a.acceptLoop()

	a.logger().Entry(liblog.InfoLevel, "acceptor listening").FieldAdd("address", a.cfg.ListenAddress).Log()
	return nil
}

func (a *acceptor) acceptLoop() {
	defer func() {
		a.m.Lock()
		a.running = false
		a.m.Unlock()
	}()

	for {
		ln := a.getListener()
		if ln == nil {
			return
		}

		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}

			var ne net.Error
			if errors.As(err, &ne) && ne.Temporary() {
				a.logger().Entry(liblog.DebugLevel, "acceptor: temporary accept error").ErrorAdd(true, err).Check(liblog.NilLevel)
				continue
			}

			a.setError(err)
			a.logger().Entry(liblog.ErrorLevel, "acceptor: fatal listener error").ErrorAdd(true, err).Check(liblog.NilLevel)
			return
		}

		a.handleAccepted(conn)
	}
}

func (a *acceptor) handleAccepted(conn net.Conn) {
	idle := a.idleTimeout()

	if err := a.configureConn(conn, idle); err != nil {
		a.logger().Entry(liblog.DebugLevel, "acceptor: could not configure accepted socket").ErrorAdd(true, err).Check(liblog.NilLevel)
		_ = conn.Close()
		return
	}

	pl := pipeline.New(conn, a.cfg.WriteBufferBytes, idle)
	a.sch.Submit(pl)
}

// idleTimeout resolves the configured idle read deadline, falling back to
// pipeline.DefaultIdleTimeout when IdleTimeoutMS is unset.
func (a *acceptor) idleTimeout() time.Duration {
	idle := time.Duration(a.cfg.IdleTimeoutMS) * time.Millisecond
	if idle <= 0 {
		idle = pipeline.DefaultIdleTimeout
	}
	return idle
}

// configureConn applies the core's per-connection defaults: an idle read
// timeout, TCP_NODELAY, and disabled lingering.
func (a *acceptor) configureConn(conn net.Conn, idle time.Duration) error {
	if err := conn.SetReadDeadline(time.Now().Add(idle)); err != nil {
		return err
	}

	if tc, ok := conn.(*net.TCPConn); ok {
		if err := tc.SetNoDelay(true); err != nil {
			return err
		}
		if err := tc.SetLinger(0); err != nil {
			return err
		}
	}

	return nil
}

func (a *acceptor) Stop() error {
	ln := a.getListener()
	if ln == nil {
		return nil
	}
	return ln.Close()
}

func (a *acceptor) IsRunning() bool {
	a.m.RLock()
	defer a.m.RUnlock()
	return a.running
}

func (a *acceptor) GetError() error {
	a.m.RLock()
	defer a.m.RUnlock()
	return a.err
}

func (a *acceptor) getListener() net.Listener {
	a.m.RLock()
	defer a.m.RUnlock()
	return a.ln
}

func (a *acceptor) setError(err error) {
	a.m.Lock()
	defer a.m.Unlock()
	a.err = err
}
