package commands

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/glueforge/xsgen/config"
	"github.com/glueforge/xsgen/errors"
	"github.com/glueforge/xsgen/logger"
	"github.com/glueforge/xsgen/xs/diag"
	"github.com/glueforge/xsgen/xs/driver"
)

// WatchCmd re-runs generation whenever an input or typemap file changes
var WatchCmd = &cobra.Command{
	Use:   "watch <file.xs> [more.xs...]",
	Short: "Regenerate glue code on input or typemap change",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runWatch,
}

func init() {
	WatchCmd.Flags().StringSliceP("typemap", "t", nil,
		"Extra typemap file(s) layered over the configured ones")
	WatchCmd.Flags().Duration("debounce", 200*time.Millisecond,
		"Settle time after a change before regenerating")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	extra, _ := cmd.Flags().GetStringSlice("typemap")
	debounce, _ := cmd.Flags().GetDuration("debounce")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "creating file watcher")
	}
	defer watcher.Close()

	// Watch the containing directories: editors replace files on save, so
	// watching paths directly loses them after the first write.
	watched := make(map[string]bool)
	tracked := make(map[string]bool)
	for _, path := range append(append([]string{}, args...), cfg.Typemap.Paths...) {
		tracked[filepath.Clean(path)] = true
		dir := filepath.Dir(path)
		if !watched[dir] {
			if err := watcher.Add(dir); err != nil {
				return errors.Wrapf(err, "watching %s", dir)
			}
			watched[dir] = true
		}
	}
	for _, path := range extra {
		tracked[filepath.Clean(path)] = true
		dir := filepath.Dir(path)
		if !watched[dir] {
			if err := watcher.Add(dir); err != nil {
				return errors.Wrapf(err, "watching %s", dir)
			}
			watched[dir] = true
		}
	}

	generate := func() {
		dict, err := buildDictionary(cfg, extra)
		if err != nil {
			logger.Errorw("typemap load failed", "error", err)
			return
		}
		runID := uuid.New().String()
		rep := diag.NewReporter(diag.ContextTerminal)
		d := driver.New(driver.Options{
			Flags: featuresFrom(cfg),
			Dict:  dict,
			RunID: runID,
		}, rep)
		for _, in := range args {
			if err := d.CompileFile(in, outputPathFor(cfg, in)); err != nil {
				logger.Errorw("generation aborted", "input", in, "error", err)
				return
			}
		}
		for _, msg := range rep.Format() {
			cmd.ErrOrStderr().Write([]byte(msg + "\n"))
		}
		if rep.Failed() {
			logger.Warnw("generation finished with errors",
				"run_id", runID, "errors", len(rep.Errors()))
		} else {
			logger.Infow("generation complete", "run_id", runID)
		}
	}

	generate()
	logger.Infow("watching for changes", "inputs", len(args))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	var timer *time.Timer
	timerCh := make(<-chan time.Time)
	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !tracked[filepath.Clean(ev.Name)] {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			logger.Debugw("change detected", "path", ev.Name, "op", ev.Op.String())
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(debounce)
			timerCh = timer.C
		case <-timerCh:
			generate()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warnw("watch error", "error", err)
		case <-sigCh:
			logger.Infow("stopping watch")
			return nil
		}
	}
}
