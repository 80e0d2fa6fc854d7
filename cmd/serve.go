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

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	liblog "github/sabouaram/htcore/logger"

	"github/sabouaram/htcore/acceptor"
	"github/sabouaram/htcore/handler"
	"github/sabouaram/htcore/scheduler"
	"github/sabouaram/htcore/serverconfig"
)

const envPrefix = "HTCORE"

func newServeCommand(hdl handler.RequestHandler) *cobra.Command {
	var cfgFile string

	serve := &cobra.Command{
		Use:   "serve",
		Short: "bind the listening socket and run the scheduler until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, cfgFile)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, hdl)
		},
	}

	flags := serve.Flags()
	flags.StringVar(&cfgFile, "config", "", "path to a YAML configuration file")
	flags.String("listen-address", serverconfig.Default().ListenAddress, "address the acceptor binds to")
	flags.Int("workers", serverconfig.Default().Workers, "fixed worker pool size")
	flags.Int("header-limit-bytes", serverconfig.Default().HeaderLimitBytes, "maximum header size before HeaderTooLong applies")
	flags.Int64("idle-timeout-ms", serverconfig.Default().IdleTimeoutMS, "idle read timeout applied to accepted connections")

	return serve
}

func loadConfig(cmd *cobra.Command, cfgFile string) (*serverconfig.Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("cmd: reading config file %s: %w", cfgFile, err)
		}
	}

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("cmd: binding flags: %w", err)
	}

	cfg := serverconfig.Default()
	if cfgFile != "" {
		if err := v.Unmarshal(cfg); err != nil {
			return nil, fmt.Errorf("cmd: unmarshalling config: %w", err)
		}
	}

	if v.IsSet("listen-address") {
		cfg.ListenAddress = v.GetString("listen-address")
	}
	if v.IsSet("workers") {
		cfg.Workers = v.GetInt("workers")
	}
	if v.IsSet("header-limit-bytes") {
		cfg.HeaderLimitBytes = v.GetInt("header-limit-bytes")
	}
	if v.IsSet("idle-timeout-ms") {
		cfg.IdleTimeoutMS = v.GetInt64("idle-timeout-ms")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("cmd: invalid configuration: %w", err)
	}

	return cfg, nil
}

func run(ctx context.Context, cfg *serverconfig.Config, hdl handler.RequestHandler) error {
	logFn := func() liblog.Logger { return liblog.GetDefault() }

	sch := scheduler.New(cfg, hdl, logFn, prometheus.DefaultRegisterer)
	acc := acceptor.New(cfg, sch, logFn)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := sch.Start(runCtx); err != nil {
		return fmt.Errorf("cmd: starting scheduler: %w", err)
	}
	if err := acc.Start(runCtx); err != nil {
		return fmt.Errorf("cmd: starting acceptor: %w", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	select {
	case <-quit:
	case <-runCtx.Done():
	}

	_ = acc.Stop()
	cancel()
	sch.Stop()

	return acc.GetError()
}
