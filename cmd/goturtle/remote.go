/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"goturtle/internal/backend"
	"goturtle/internal/config"
	"goturtle/internal/diagfmt"
	"goturtle/internal/storage"
)

func newServeCmd(a *app) *cobra.Command {
	var addr, dsn string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the program gallery server",
		Long: `Serve exposes check, render and the program gallery over HTTP. Programs are
stored in PostgreSQL when a DSN is configured (TURTLE_DATABASE_URL) and in
memory otherwise. Tokens are signed with TURTLE_SERVER_SECRET.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sc := a.cfg.Server
			if addr != "" {
				sc.Addr = addr
			}
			if dsn != "" {
				sc.DSN = dsn
			}
			ro, err := a.renderOptions()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return backend.Run(ctx, sc, ro)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringVar(&dsn, "dsn", "", "PostgreSQL DSN (default from config)")
	return cmd
}

func (a *app) client() *backend.Client {
	return backend.NewClientFromConfig(a.cfg.Backend, a.token)
}

func newLoginCmd(a *app) *cobra.Command {
	var subject string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Request a gallery token and store it in the OS keyring",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if subject == "" {
				subject = os.Getenv("USER")
			}
			tr, err := a.client().RequestToken(cmd.Context(), subject)
			if err != nil {
				return err
			}
			if err := config.SetToken(tr.Token); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in to %s as %s (token expires %s)\n",
				a.cfg.Backend.BaseURL, subject, tr.ExpiresAt.Local().Format("2006-01-02 15:04"))
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "as", "", "author name (default $USER)")
	return cmd
}

func newLogoutCmd(_ *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored gallery token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.ClearToken(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func newPublishCmd(a *app) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "publish [file|workspace]",
		Short: "Upload a program to the gallery",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.token == "" {
				return errors.New("not logged in; run goturtle login first")
			}
			path := ""
			if len(args) > 0 {
				path = args[0]
			}
			if fi, err := os.Stat(path); err == nil && fi.IsDir() {
				ws, err := storage.OpenWorkspace(path)
				if err != nil {
					return err
				}
				path = ws.ProgramPath
				if name == "" {
					name = ws.Manifest.Name
				}
			}
			text, src, err := readProgram(cmd, path)
			if err != nil {
				return err
			}
			if name == "" {
				name = strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
			}
			p, err := a.client().Publish(cmd.Context(), name, text)
			var de *backend.DiagnosticsError
			if errors.As(err, &de) {
				errw := cmd.ErrOrStderr()
				if perr := diagfmt.Pretty(errw, src, text, de.Diagnostics, diagfmt.PrettyOpts{Color: a.colorFor(errw), Max: a.maxDiags, Summary: true}); perr != nil {
					return perr
				}
				return errMalformed
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Published %q as #%d (%d op(s))\n", p.Name, p.ID, p.Ops)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "program name (default: file or workspace name)")
	return cmd
}

func newGalleryCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "gallery [id]",
		Short: "List published programs, or print one program's source",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			c := a.client()
			if len(args) == 1 {
				id, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid program id %q", args[0])
				}
				p, err := c.GetProgram(cmd.Context(), id)
				if err != nil {
					return err
				}
				_, err = fmt.Fprint(out, p.Source)
				return err
			}
			list, err := c.ListPrograms(cmd.Context(), limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tAUTHOR\tOPS\tCREATED")
			for _, p := range list {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", p.ID, p.Name, p.Author, p.Ops, p.CreatedAt.Local().Format("2006-01-02 15:04"))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of programs to list")
	return cmd
}
