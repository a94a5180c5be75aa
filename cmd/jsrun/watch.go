package main

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/wippyai/jsbridge/errors"
	"github.com/wippyai/jsbridge/runtime"
)

const watchDebounce = 100 * time.Millisecond

// watch runs the job, then re-runs it whenever one of its script files
// changes, until ctx is done. Directories are watched rather than files
// so editors that replace files on save are handled.
func watch(ctx context.Context, j *job, report func(runtime.Output, error)) error {
	if len(j.files) == 0 {
		return errors.InvalidInput(errors.PhaseConfig, "--watch needs at least one script file")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "create file watcher")
	}
	defer w.Close()

	watched := make(map[string]bool)
	dirs := make(map[string]bool)
	for _, f := range j.files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "resolve "+f)
		}
		watched[abs] = true
		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := w.Add(dir); err != nil {
			return errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "watch "+dir)
		}
		dirs[dir] = true
	}

	log := runtime.Logger()
	report(j.run(ctx, nil))

	timer := time.NewTimer(watchDebounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !watched[filepath.Clean(ev.Name)] {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			log.Debug("script changed", zap.String("file", ev.Name), zap.String("op", ev.Op.String()))
			timer.Reset(watchDebounce)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("file watcher error", zap.Error(err))

		case <-timer.C:
			report(j.run(ctx, nil))
		}
	}
}
