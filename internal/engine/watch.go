package engine

// watch.go - Re-run affected queries when query files change

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long Watch waits for changes to settle.
const DefaultDebounce = 100 * time.Millisecond

// Watch runs every query under dir, then re-runs the queries affected by
// each change until ctx is done. Each run is passed to report: the batch
// holds only the queries that ran, err is set when planning failed.
func (e *Engine) Watch(ctx context.Context, dir string, debounce time.Duration, report func(*Batch, error)) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watchDir(watcher, dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	last, err := e.RunDir(ctx, dir)
	if ctx.Err() != nil {
		return nil
	}
	report(last, err)

	// Debounce timer
	var debounceTimer *time.Timer
	fire := make(chan struct{}, 1)
	pending := make(map[string]bool)

	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) && isWatchableDir(event.Name) {
				if err := watchDir(watcher, event.Name); err != nil {
					e.logger.Warn("failed to watch new directory", slog.String("dir", event.Name), slog.String("error", err.Error()))
				}
				continue
			}
			if filepath.Ext(event.Name) != ".sql" || isHidden(filepath.Base(event.Name)) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			pending[filepath.Clean(event.Name)] = true
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})

		case <-fire:
			changed := make([]string, 0, len(pending))
			for path := range pending {
				changed = append(changed, path)
			}
			pending = make(map[string]bool)

			e.logger.Info("change detected", slog.Int("files", len(changed)))
			batch, full, err := e.rerun(ctx, dir, changed, last)
			if ctx.Err() != nil {
				return nil
			}
			switch {
			case err != nil:
			case full:
				last = batch
			default:
				last = mergeBatches(last, batch)
			}
			report(batch, err)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			e.logger.Warn("watcher error", slog.String("error", err.Error()))
		}
	}
}

// rerun re-plans dir and executes the queries downstream of changed files.
// A changed file missing from the new plan was removed or renamed, so the
// whole plan runs again and full is true.
func (e *Engine) rerun(ctx context.Context, dir string, changed []string, previous *Batch) (batch *Batch, full bool, err error) {
	plan, err := e.Plan(dir)
	if err != nil {
		return nil, false, err
	}

	outputs := plan.Outputs(changed)
	if previous == nil || len(outputs) < len(changed) {
		batch, err = e.Execute(ctx, plan, ExecuteOptions{})
		return batch, true, err
	}
	batch, err = e.Execute(ctx, plan, ExecuteOptions{
		Only:     plan.Graph.Affected(outputs),
		Previous: previous,
	})
	return batch, false, err
}

// mergeBatches returns prev with the analyses of next replacing those of
// the same output. Queries that failed or were skipped in next are dropped.
func mergeBatches(prev, next *Batch) *Batch {
	if prev == nil {
		return next
	}
	replaced := make(map[string]bool, len(next.Analyses))
	for _, a := range next.Analyses {
		replaced[a.Output()] = true
	}
	dropped := make(map[string]bool, len(next.Failed)+len(next.Skipped))
	for path := range next.Failed {
		dropped[path] = true
	}
	for _, path := range next.Skipped {
		dropped[path] = true
	}

	merged := &Batch{Failed: next.Failed, Skipped: next.Skipped}
	for _, a := range prev.Analyses {
		if !replaced[a.Output()] && !dropped[a.Query.Path] {
			merged.Analyses = append(merged.Analyses, a)
		}
	}
	merged.Analyses = append(merged.Analyses, next.Analyses...)
	return merged
}

// watchDir recursively adds a directory to the watcher.
func watchDir(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

func isWatchableDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir() && !isHidden(filepath.Base(path))
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
