/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"goturtle/internal/script"
	"goturtle/internal/storage"
	"goturtle/internal/ui"
)

func newInitCmd(a *app) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Create a workspace with an empty program and a history database",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := a.workspaceDir(args)
			ws, err := storage.InitWorkspace(dir, name)
			if err != nil {
				return err
			}
			db, err := storage.OpenHistory(ws.Root)
			if err != nil {
				return err
			}
			_ = db.Close()
			fmt.Fprintln(cmd.OutOrStdout(), "Created workspace at", ws.Root)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "workspace name (default: directory name)")
	return cmd
}

func newHistoryCmd(a *app) *cobra.Command {
	var (
		limit   int
		restore int64
		prune   bool
		rebuild bool
	)
	cmd := &cobra.Command{
		Use:   "history [workspace]",
		Short: "List, restore or prune program snapshots",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			dir := a.workspaceDir(args)
			if rebuild {
				rebuilt, err := storage.DetectAndRebuildHistory(ctx, dir)
				if err != nil {
					return err
				}
				if rebuilt {
					fmt.Fprintln(out, "History database was corrupt and has been rebuilt.")
				} else {
					fmt.Fprintln(out, "History database is healthy.")
				}
				return nil
			}
			ws, err := storage.OpenWorkspace(dir)
			if err != nil {
				return err
			}
			if prune {
				n, err := storage.PruneSnapshots(ctx, ws, a.cfg.History.KeepLast)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Pruned %d snapshot(s), keeping %d.\n", n, a.cfg.History.KeepLast)
				return nil
			}
			if restore > 0 {
				return restoreSnapshot(cmd, ws, restore)
			}

			snaps, err := storage.ListSnapshots(ctx, ws, limit)
			if err != nil {
				return err
			}
			if len(snaps) == 0 {
				fmt.Fprintln(out, "No snapshots.")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTIME\tKIND\tLINES\tERRORS\tFIRST LINE")
			for _, s := range snaps {
				lines := script.SplitLines(s.Text)
				first := ""
				if len(lines) > 0 {
					first = strings.TrimSpace(lines[0])
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%s\n", s.ID, s.TS.Local().Format("2006-01-02 15:04:05"), s.Kind, len(lines), s.Errors, first)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of snapshots to list")
	cmd.Flags().Int64Var(&restore, "restore", 0, "write snapshot ID back to the program file")
	cmd.Flags().BoolVar(&prune, "prune", false, "delete all but the configured number of newest snapshots")
	cmd.Flags().BoolVar(&rebuild, "rebuild", false, "check the history database and rebuild it if corrupt")
	return cmd
}

func restoreSnapshot(cmd *cobra.Command, ws *storage.Workspace, id int64) error {
	ctx := cmd.Context()
	snaps, err := storage.ListSnapshots(ctx, ws, 1<<20)
	if err != nil {
		return err
	}
	for _, s := range snaps {
		if s.ID != id {
			continue
		}
		if err := storage.WriteProgram(ws, s.Text); err != nil {
			return err
		}
		// the restore itself becomes the newest snapshot
		if _, err := storage.SaveSnapshot(ctx, ws, storage.Snapshot{Kind: storage.KindSave, Text: s.Text, Errors: s.Errors}); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Restored snapshot %d to %s\n", id, ws.ProgramPath)
		return nil
	}
	return fmt.Errorf("snapshot %d not found", id)
}

func newEditCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "edit [workspace]",
		Short: "Open the desktop editor (build with -tags fyne)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ui.Run(a.cfg, a.workspaceDir(args))
		},
	}
}
