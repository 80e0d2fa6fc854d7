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

// Package serverconfig holds the tunable parameters of the connection
// processing core: worker pool size, wait-bucket schedule, header limit and
// the policy applied when a header exceeds it.
package serverconfig

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	liberr "github/sabouaram/htcore/errors"
)

// HeaderTooLongPolicy controls what the scheduler does when a connection's
// header has not terminated within HeaderLimitBytes.
type HeaderTooLongPolicy string

const (
	// CloseImmediately closes the pipeline without invoking the handler.
	CloseImmediately HeaderTooLongPolicy = "close_immediately"
	// InvokeHandler calls the handler once with a nil header and the
	// Attributes sentinel key "htcore.oversize" set true, then closes the
	// pipeline regardless of the outcome the handler returns.
	InvokeHandler HeaderTooLongPolicy = "invoke_handler"
)

// Config holds every recognized option of the connection/pipeline core.
type Config struct {
	// ListenAddress is the "host:port" the acceptor binds to.
	ListenAddress string `mapstructure:"listen_address" json:"listen_address" yaml:"listen_address" toml:"listen_address" validate:"required,hostname_port"`

	// Workers is the fixed number of goroutines the scheduler dispatches
	// Poller cycles and handler invocations onto.
	Workers int `mapstructure:"workers" json:"workers" yaml:"workers" toml:"workers" validate:"required,min=1"`

	// AcceptBacklog is the listen(2) backlog passed to the kernel socket.
	AcceptBacklog int `mapstructure:"accept_backlog" json:"accept_backlog" yaml:"accept_backlog" toml:"accept_backlog" validate:"min=0"`

	// IdleTimeoutMS is the read deadline (in milliseconds) applied to a
	// freshly accepted connection and reset after every successful header
	// dispatch.
	IdleTimeoutMS int64 `mapstructure:"idle_timeout_ms" json:"idle_timeout_ms" yaml:"idle_timeout_ms" toml:"idle_timeout_ms" validate:"required,min=1"`

	// HeaderLimitBytes is the hard cap on header-only bytes (CRLFCRLF not
	// yet found) a pipeline will buffer before OnHeaderTooLong applies.
	HeaderLimitBytes int `mapstructure:"header_limit_bytes" json:"header_limit_bytes" yaml:"header_limit_bytes" toml:"header_limit_bytes" validate:"required,min=256"`

	// WriteBufferBytes sizes the pipeline's buffered output writer.
	WriteBufferBytes int `mapstructure:"write_buffer_bytes" json:"write_buffer_bytes" yaml:"write_buffer_bytes" toml:"write_buffer_bytes" validate:"required,min=64"`

	// PollScheduleMS is the wait-bucket back-off schedule, in milliseconds,
	// indexed by a pipeline's consecutive-empty-poll phase. The last entry
	// is the plateau delay applied to every phase beyond the slice length.
	PollScheduleMS []int64 `mapstructure:"poll_schedule_ms" json:"poll_schedule_ms" yaml:"poll_schedule_ms" toml:"poll_schedule_ms" validate:"required,min=1"`

	// MaxEmptyPhases is the consecutive-empty-poll count at which a
	// pipeline is declared dead and closed: once a poller's Phase reaches
	// MaxEmptyPhases it is reaped instead of being re-queued into the
	// PollScheduleMS wait bucket for that phase.
	MaxEmptyPhases int `mapstructure:"max_empty_phases" json:"max_empty_phases" yaml:"max_empty_phases" toml:"max_empty_phases" validate:"required,min=1"`

	// OnHeaderTooLong selects the policy applied when HeaderLimitBytes is
	// exceeded without a complete header boundary.
	OnHeaderTooLong HeaderTooLongPolicy `mapstructure:"on_header_too_long" json:"on_header_too_long" yaml:"on_header_too_long" toml:"on_header_too_long" validate:"required,oneof=close_immediately invoke_handler"`
}

// Default returns a Config populated with the reference values from the
// connection core's design: the default wait-bucket schedule
// [0, 10, 50, 250, 1000, 5000]ms, a 5-phase cap, an 8KiB header limit and
// CloseImmediately on oversize headers.
func Default() *Config {
	return &Config{
		ListenAddress:    "127.0.0.1:8080",
		Workers:          8,
		AcceptBacklog:    128,
		IdleTimeoutMS:    60000,
		HeaderLimitBytes: 8192,
		WriteBufferBytes: 4096,
		PollScheduleMS:   []int64{0, 10, 50, 250, 1000, 5000},
		MaxEmptyPhases:   5,
		OnHeaderTooLong:  CloseImmediately,
	}
}

// Clone returns an independent copy of the Config.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}

	n := *c
	n.PollScheduleMS = make([]int64, len(c.PollScheduleMS))
	copy(n.PollScheduleMS, c.PollScheduleMS)

	return &n
}

// Validate runs struct-tag validation and rejects a decreasing or empty
// PollScheduleMS, which would make the wait-bucket back-off non-monotonic.
func (c *Config) Validate() liberr.Error {
	val := validator.New()
	err := val.Struct(c)

	out := liberr.ErrorInvalidConfig.Error(nil)

	if e, ok := err.(*validator.InvalidValidationError); ok {
		out.Add(e)
	} else if err != nil {
		for _, e := range err.(validator.ValidationErrors) {
			out.Add(fmt.Errorf("config field '%s' is not validated by constraint '%s'", e.Field(), e.ActualTag()))
		}
	}

	for i := 1; i < len(c.PollScheduleMS); i++ {
		if c.PollScheduleMS[i] < c.PollScheduleMS[i-1] {
			out.Add(fmt.Errorf("poll_schedule_ms must be non-decreasing, got %v", c.PollScheduleMS))
			break
		}
	}

	if out.HasParent() {
		return out
	}

	return nil
}

// DelayFor returns the wait delay for the given phase, capped at the last
// schedule entry once phase reaches or exceeds the slice length.
func (c *Config) DelayFor(phase int) int64 {
	if len(c.PollScheduleMS) == 0 {
		return 0
	}

	if phase < 0 {
		phase = 0
	}

	if phase >= len(c.PollScheduleMS) {
		phase = len(c.PollScheduleMS) - 1
	}

	return c.PollScheduleMS[phase]
}
