//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	fstorage "fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"goturtle/internal/config"
	"goturtle/internal/crash"
	"goturtle/internal/export"
	applog "goturtle/internal/log"
	"goturtle/internal/script"
	"goturtle/internal/storage"
	"goturtle/internal/version"
)

// Run opens the workspace at dir (created if missing) in the desktop editor
// and blocks until the window is closed.
func Run(cfg config.AppConfig, dir string) error {
	l := applog.WithComponent("ui")
	l.Info("starting UI")

	if dir == "" {
		dir = cfg.Editor.Workspace
	}
	if dir == "" {
		dir = "."
	}
	abs, _ := filepath.Abs(dir)
	ws, err := storage.OpenOrInitWorkspace(abs)
	if err != nil {
		return fmt.Errorf("open workspace: %w", err)
	}
	opts, err := export.FromConfig(cfg)
	if err != nil {
		return err
	}
	sess := NewSession(ws, opts, cfg.History.KeepLast)
	defer crash.Recover(ws, sess.Text)

	fyneApp := app.NewWithID("goturtle")
	w := fyneApp.NewWindow("GoTurtle: " + ws.Manifest.Name)
	prefs := fyneApp.Preferences()
	winW := prefs.IntWithFallback("window.width", 1400)
	winH := prefs.IntWithFallback("window.height", 960)
	if winW < 800 {
		winW = 800
	}
	if winH < 600 {
		winH = 600
	}
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	ed := newEditor(w, sess, cfg.Editor.Debounce(), l)

	saveItem := fyne.NewMenuItem("Save", func() { ed.save(storage.KindSave) })
	saveItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyS, Modifier: fyne.KeyModifierShortcutDefault}
	w.Canvas().AddShortcut(saveItem.Shortcut, func(fyne.Shortcut) { ed.save(storage.KindSave) })
	historyItem := fyne.NewMenuItem("History…", func() { ed.showHistory() })
	fileMenu := fyne.NewMenu("File", saveItem, historyItem)

	exportItem := func(f export.Format) *fyne.MenuItem {
		return fyne.NewMenuItem("Export "+strings.ToUpper(string(f))+"…", func() { ed.exportAs(f) })
	}
	exportMenu := fyne.NewMenu("Export", exportItem(export.FormatPNG), exportItem(export.FormatSVG), exportItem(export.FormatPDF))

	aboutItem := fyne.NewMenuItem("About GoTurtle", func() {
		l.Info("menu: about")
		exe, _ := os.Executable()
		info := fmt.Sprintf("GoTurtle\nVersion: %s\nOS: %s\nArch: %s\nGo: %s\nExecutable: %s\nWorkspace: %s",
			version.String(), runtime.GOOS, runtime.GOARCH, runtime.Version(), exe, ws.Root)
		dialog.ShowInformation("About", info, w)
	})
	w.SetMainMenu(fyne.NewMainMenu(fileMenu, exportMenu, fyne.NewMenu("About", aboutItem)))

	w.SetCloseIntercept(func() {
		ed.debounce.Stop()
		ed.save(storage.KindAutosave)
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
		w.Close()
	})

	text, err := storage.ReadProgram(ws)
	if err != nil {
		l.Error("read program failed", slog.Any("err", err))
		dialog.ShowError(err, w)
	}
	w.SetContent(ed.content())
	ed.entry.SetText(text)
	ed.refresh(text)

	w.ShowAndRun()
	return nil
}

// editor wires the text entry, the picture and the diagnostics list to a
// Session.
type editor struct {
	w        fyne.Window
	sess     *Session
	log      *slog.Logger
	debounce *Debouncer

	entry  *widget.Entry
	image  *canvas.Image
	diags  *widget.List
	status *widget.Label
	shown  []script.Diagnostic
}

func newEditor(w fyne.Window, sess *Session, delay time.Duration, l *slog.Logger) *editor {
	ed := &editor{w: w, sess: sess, log: l, debounce: &Debouncer{Delay: delay}}

	ed.entry = widget.NewMultiLineEntry()
	ed.entry.TextStyle = fyne.TextStyle{Monospace: true}
	ed.entry.Wrapping = fyne.TextWrapOff
	ed.entry.SetPlaceHolder("pendown\nforward 100\nturnright 90\n…")
	ed.entry.OnChanged = func(s string) {
		ed.debounce.Trigger(func() { ed.refresh(s) })
	}

	ed.image = canvas.NewImageFromImage(nil)
	ed.image.FillMode = canvas.ImageFillContain
	ed.image.ScaleMode = canvas.ImageScaleSmooth

	ed.diags = widget.NewList(
		func() int { return len(ed.shown) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(id widget.ListItemID, o fyne.CanvasObject) {
			if id >= 0 && id < len(ed.shown) {
				o.(*widget.Label).SetText(DiagnosticLabel(ed.shown[id]))
			}
		},
	)
	ed.diags.OnSelected = func(id widget.ListItemID) {
		if id < 0 || id >= len(ed.shown) {
			return
		}
		d := ed.shown[id]
		ed.entry.CursorRow = d.StartLine - 1
		ed.entry.CursorColumn = d.StartColumn - 1
		ed.entry.Refresh()
		ed.w.Canvas().Focus(ed.entry)
		ed.diags.UnselectAll()
	}
	ed.status = widget.NewLabel("Ready")
	return ed
}

func (ed *editor) content() fyne.CanvasObject {
	bg := canvas.NewRectangle(color.RGBA{R: 30, G: 30, B: 34, A: 255})
	picture := container.NewStack(bg, ed.image)
	left := container.NewVSplit(ed.entry, container.NewBorder(widget.NewLabel("Problems"), nil, nil, nil, ed.diags))
	left.Offset = 0.8
	split := container.NewHSplit(left, picture)
	split.Offset = 0.35
	return container.NewBorder(nil, ed.status, nil, nil, split)
}

// refresh runs the pipeline off the UI goroutine and applies the result on it.
func (ed *editor) refresh(text string) {
	go func() {
		defer crash.Recover(ed.sess.Workspace(), ed.sess.Text)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		start := time.Now()
		out, err := ed.sess.Update(ctx, text)
		if errors.Is(err, ErrStale) {
			return
		}
		took := time.Since(start)
		fyne.Do(func() {
			if err != nil {
				ed.log.Error("pipeline failed", slog.Any("err", err))
				ed.status.SetText("Error: " + err.Error())
				return
			}
			ed.shown = out.Diagnostics
			ed.diags.Refresh()
			ed.image.Image = out.Image
			ed.image.Refresh()
			if out.Fresh {
				ed.status.SetText(fmt.Sprintf("OK · turtle at (%.1f, %.1f) heading %.1f° · %s",
					out.State.Position.X, out.State.Position.Y, out.State.Heading, took.Round(time.Millisecond)))
			} else {
				ed.status.SetText(fmt.Sprintf("%d problem(s); showing last good drawing", len(out.Diagnostics)))
			}
		})
		if err == nil {
			ed.persist(storage.KindAutosave)
		}
	}()
}

func (ed *editor) persist(k storage.SnapshotKind) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ed.sess.Persist(ctx, k); err != nil {
		ed.log.Warn("persist failed", slog.String("kind", string(k)), slog.Any("err", err))
	}
}

func (ed *editor) save(k storage.SnapshotKind) {
	text := ed.entry.Text
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := ed.sess.Update(ctx, text); err != nil {
		ed.log.Error("update before save failed", slog.Any("err", err))
	}
	if err := ed.sess.Persist(ctx, k); err != nil {
		ed.log.Error("save failed", slog.Any("err", err))
		dialog.ShowError(err, ed.w)
		return
	}
	ed.status.SetText("Saved " + ed.sess.Workspace().ProgramPath)
}

func (ed *editor) exportAs(f export.Format) {
	save := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, ed.w)
			return
		}
		if uc == nil {
			return
		}
		path := uc.URI().Path()
		_ = uc.Close()
		if err := ed.sess.Export(path); err != nil {
			ed.log.Error("export failed", slog.String("path", path), slog.Any("err", err))
			dialog.ShowError(err, ed.w)
			return
		}
		ed.status.SetText("Exported " + path)
	}, ed.w)
	save.SetFileName("drawing." + string(f))
	save.SetFilter(fstorage.NewExtensionFileFilter([]string{"." + string(f)}))
	if ws := ed.sess.Workspace(); ws != nil {
		if err := os.MkdirAll(ws.ExportsDir(), 0o755); err == nil {
			if lu, err := fstorage.ListerForURI(fstorage.NewFileURI(ws.ExportsDir())); err == nil {
				save.SetLocation(lu)
			}
		}
	}
	save.Show()
}

func (ed *editor) showHistory() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	snaps, err := storage.ListSnapshots(ctx, ed.sess.Workspace(), 100)
	if err != nil {
		dialog.ShowError(err, ed.w)
		return
	}
	if len(snaps) == 0 {
		dialog.ShowInformation("History", "No snapshots yet.", ed.w)
		return
	}
	var d dialog.Dialog
	list := widget.NewList(
		func() int { return len(snaps) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(id widget.ListItemID, o fyne.CanvasObject) {
			s := snaps[id]
			o.(*widget.Label).SetText(fmt.Sprintf("%s  %-8s  %d line(s), %d error(s)",
				s.TS.Local().Format("2006-01-02 15:04:05"), s.Kind, len(script.SplitLines(s.Text)), s.Errors))
		},
	)
	list.OnSelected = func(id widget.ListItemID) {
		s := snaps[id]
		dialog.ShowConfirm("Restore snapshot", "Replace the editor text with this snapshot?", func(ok bool) {
			if !ok {
				list.UnselectAll()
				return
			}
			ed.entry.SetText(s.Text)
			ed.refresh(s.Text)
			if d != nil {
				d.Hide()
			}
		}, ed.w)
	}
	d = dialog.NewCustom("History", "Close", container.NewGridWrap(fyne.NewSize(560, 400), list), ed.w)
	d.Show()
}
