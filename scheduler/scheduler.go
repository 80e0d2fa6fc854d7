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

// Package scheduler runs the fixed worker pool that drives every pipeline's
// Poller: a ready FIFO queue, a phase-bucketed wait queue with a single
// timer moving expired entries back to ready, and per-worker dispatch that
// invokes the RequestHandler on a Ready outcome.
package scheduler

import (
	"context"
	"sync"
	"time"

	liblog "github/sabouaram/htcore/logger"

	htctx "github/sabouaram/htcore/context"
	"github/sabouaram/htcore/handler"
	"github/sabouaram/htcore/pipeline"
	"github/sabouaram/htcore/poller"
	"github/sabouaram/htcore/serverconfig"

	"github.com/prometheus/client_golang/prometheus"
)

// tickInterval is the wait-timer's wake-up granularity. It is well below
// the schedule's smallest non-zero delay (10ms) so bucket 1 entries are
// not held noticeably longer than their nominal delay.
const tickInterval = 5 * time.Millisecond

// job pairs a pipeline with the Poller currently scanning its next
// request. A job is single-owner: at most one worker or wait-bucket slot
// references it at any instant, which is what keeps per-pipeline ordering
// strict.
type job struct {
	pipe pipeline.Pipeline
	pol  poller.Poller
}

type waitEntry struct {
	j   *job
	due time.Time
}

// Scheduler owns the ready/wait queues and the fixed worker pool.
type Scheduler interface {
	// Start launches the worker pool and the wait-bucket timer. ctx is the
	// root context from which every handler invocation's context is
	// isolated.
	Start(ctx context.Context) error
	// Submit schedules a freshly accepted pipeline's first Poller.
	Submit(pl pipeline.Pipeline)
	// Stop signals shutdown, waits for in-flight handlers to complete,
	// and closes every pipeline left in the queues.
	Stop()
}

type scheduler struct {
	cfg *serverconfig.Config
	hdl handler.RequestHandler
	log liblog.FuncLog
	met *metrics

	rootCtx context.Context

	mu      sync.Mutex
	cond    *sync.Cond
	readyQ  []*job
	buckets [][]waitEntry
	closing bool

	wg     sync.WaitGroup
	stopCh chan struct{}
}

// New returns a Scheduler bound to cfg. reg may be nil to disable metrics
// registration; log may be nil to use the package default logger.
func New(cfg *serverconfig.Config, hdl handler.RequestHandler, log liblog.FuncLog, reg prometheus.Registerer) Scheduler {
	if hdl == nil {
		hdl = handler.NewBadHandler()
	}

	s := &scheduler{
		cfg:     cfg,
		hdl:     hdl,
		log:     log,
		met:     newMetrics(reg),
		buckets: make([][]waitEntry, len(cfg.PollScheduleMS)),
		stopCh:  make(chan struct{}),
	}
	s.cond = sync.NewCond(&s.mu)

	return s
}

func (s *scheduler) logger() liblog.Logger {
	if s.log == nil {
		return liblog.GetDefault()
	}
	if l := s.log(); l != nil {
		return l
	}
	return liblog.GetDefault()
}

func (s *scheduler) Start(ctx context.Context) error {
	s.rootCtx = ctx

	for i := 0; i < s.cfg.Workers; i++ {
		s.wg.Add(1)
		go s.workerLoop(i)
	}

	s.wg.Add(1)
	go s.waitLoop()

	s.logger().Entry(liblog.InfoLevel, "scheduler started").FieldAdd("workers", s.cfg.Workers).Log()
	return nil
}

func (s *scheduler) Submit(pl pipeline.Pipeline) {
	p := poller.New(pl, s.cfg.HeaderLimitBytes, s.cfg.OnHeaderTooLong == serverconfig.InvokeHandler)
	s.enqueueReady(&job{pipe: pl, pol: p})
}

func (s *scheduler) Stop() {
	s.mu.Lock()
	s.closing = true
	s.mu.Unlock()

	close(s.stopCh)
	s.cond.Broadcast()
	s.wg.Wait()

	s.mu.Lock()
	remaining := s.readyQ
	s.readyQ = nil
	var waiting []waitEntry
	for i := range s.buckets {
		waiting = append(waiting, s.buckets[i]...)
		s.buckets[i] = nil
	}
	s.mu.Unlock()

	for _, j := range remaining {
		_ = j.pipe.Close()
	}
	for _, e := range waiting {
		_ = e.j.pipe.Close()
	}

	s.logger().Entry(liblog.InfoLevel, "scheduler stopped").Log()
}

func (s *scheduler) enqueueReady(j *job) {
	s.mu.Lock()
	s.readyQ = append(s.readyQ, j)
	s.met.readyDepth.Set(float64(len(s.readyQ)))
	s.mu.Unlock()
	s.cond.Signal()
}

// dequeueReady blocks until the ready queue is non-empty or shutdown has
// begun, in which case it returns nil.
func (s *scheduler) dequeueReady() *job {
	s.mu.Lock()
	defer s.mu.Unlock()

	for len(s.readyQ) == 0 && !s.closing {
		s.cond.Wait()
	}

	if len(s.readyQ) == 0 {
		return nil
	}

	j := s.readyQ[0]
	s.readyQ = s.readyQ[1:]
	s.met.readyDepth.Set(float64(len(s.readyQ)))
	return j
}

func (s *scheduler) bucketIndex(phase int) int {
	if phase < 0 {
		return 0
	}
	if phase >= len(s.buckets) {
		return len(s.buckets) - 1
	}
	return phase
}

func (s *scheduler) enqueueWait(j *job, phase int) {
	idx := s.bucketIndex(phase)
	due := time.Now().Add(time.Duration(s.cfg.DelayFor(phase)) * time.Millisecond)

	s.mu.Lock()
	s.buckets[idx] = append(s.buckets[idx], waitEntry{j: j, due: due})
	s.met.setWaitDepth(idx, len(s.buckets[idx]))
	s.mu.Unlock()
}

// waitLoop is the scheduler's single timer: it wakes on tickInterval,
// moves every expired wait-bucket entry back to the ready queue, and exits
// once Stop has closed stopCh.
func (s *scheduler) waitLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case now := <-ticker.C:
			s.promoteExpired(now)
		}
	}
}

func (s *scheduler) promoteExpired(now time.Time) {
	var due []*job

	s.mu.Lock()
	for i := range s.buckets {
		kept := s.buckets[i][:0]
		for _, e := range s.buckets[i] {
			if !now.Before(e.due) {
				due = append(due, e.j)
			} else {
				kept = append(kept, e)
			}
		}
		s.buckets[i] = kept
		s.met.setWaitDepth(i, len(kept))
	}
	s.mu.Unlock()

	for _, j := range due {
		s.enqueueReady(j)
	}
}

func (s *scheduler) workerLoop(id int) {
	defer s.wg.Done()

	for {
		j := s.dequeueReady()
		if j == nil {
			return
		}

		s.step(j)
	}
}

func (s *scheduler) step(j *job) {
	start := time.Now()
	res := j.pol.Poll()
	s.met.pollDuration.Observe(time.Since(start).Seconds())

	switch res.Outcome {
	case poller.Ready:
		s.dispatch(j, res.Header)

	case poller.Wait:
		if res.Phase >= s.cfg.MaxEmptyPhases {
			s.logger().Entry(liblog.DebugLevel, "pipeline reaped: max empty phases reached").FieldAdd("phase", res.Phase).Check(liblog.NilLevel)
			_ = j.pipe.Close()
			return
		}
		s.enqueueWait(j, res.Phase)

	case poller.Dead:
		if res.Oversize && s.cfg.OnHeaderTooLong == serverconfig.InvokeHandler {
			j.pipe.Attr().Set(pipeline.KeyOversize, true)
			s.invoke(j, nil)
		} else if res.Err != nil {
			s.logger().Entry(liblog.DebugLevel, "pipeline closed").ErrorAdd(true, res.Err).Check(liblog.NilLevel)
		}
		_ = j.pipe.Close()
	}
}

func (s *scheduler) dispatch(j *job, header []byte) {
	outcome := s.invoke(j, header)

	switch outcome {
	case handler.KeepAlive:
		j.pol = poller.New(j.pipe, s.cfg.HeaderLimitBytes, s.cfg.OnHeaderTooLong == serverconfig.InvokeHandler)
		s.enqueueReady(j)
	default:
		_ = j.pipe.Close()
	}
}

// invoke calls the RequestHandler with a per-request context isolated from
// the scheduler's root context: it inherits values and the root's eventual
// cancellation, but not any deadline (a pipelined connection may live far
// longer than any single request's own processing budget). A panic inside
// the handler is recovered and reported as FatalError; a FatalError the
// handler returns itself is logged too.
func (s *scheduler) invoke(j *job, header []byte) (outcome handler.Outcome) {
	root := s.rootCtx
	if root == nil {
		root = context.Background()
	}
	ctx := htctx.IsolateParent(root)

	defer func() {
		if r := recover(); r != nil {
			s.logger().Entry(liblog.ErrorLevel, "request handler panicked").FieldAdd("recover", r).Log()
			outcome = handler.FatalError
		}
		s.met.handlerOutcome.WithLabelValues(outcome.String()).Inc()
	}()

	outcome = s.hdl.Handle(ctx, j.pipe, header)
	if outcome == handler.FatalError {
		s.logger().Entry(liblog.ErrorLevel, "request handler returned FatalError").Log()
	}

	return outcome
}
