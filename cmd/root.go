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

// Package cmd wires the connection/pipeline core into a runnable binary: a
// cobra root command with a "serve" subcommand bringing up the Acceptor and
// Scheduler, viper-backed configuration (flags, env, and an optional YAML
// file), and a "version" subcommand.
package cmd

import (
	"github.com/spf13/cobra"

	"github/sabouaram/htcore/handler"
)

// NewRootCommand builds the root cobra.Command with its "serve" and
// "version" subcommands. hdl is the application's RequestHandler; a nil
// hdl falls back to handler.NewBadHandler.
func NewRootCommand(hdl handler.RequestHandler) *cobra.Command {
	root := &cobra.Command{
		Use:   "htcore",
		Short: "connection/pipeline processing core",
	}

	root.AddCommand(newServeCommand(hdl))
	root.AddCommand(newVersionCommand())

	return root
}

// Execute runs the root command against os.Args.
func Execute(hdl handler.RequestHandler) error {
	return NewRootCommand(hdl).Execute()
}
