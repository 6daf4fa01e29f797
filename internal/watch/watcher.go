// Package watch ingests dialer exports dropped into a directory.
package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/rotisserie/eris"

	"dialer-insights-go/internal/dataset"
	"dialer-insights-go/internal/logger"
	"dialer-insights-go/internal/processor"
)

const (
	defaultPoll    = 500 * time.Millisecond
	defaultMaxWait = 30 * time.Second
)

// IngestFunc processes one complete export file.
type IngestFunc func(ctx context.Context, path string) error

// Watcher monitors Dir for new exports and hands each one to Ingest once its
// size stops changing.
type Watcher struct {
	Dir     string
	Ingest  IngestFunc
	MaxWait time.Duration
	Poll    time.Duration

	mu       sync.Mutex
	inflight map[string]bool
	done     map[string]time.Time
}

func New(dir string, maxWait time.Duration, ingest IngestFunc) *Watcher {
	return &Watcher{
		Dir:     dir,
		Ingest:  ingest,
		MaxWait: maxWait,
		Poll:    defaultPoll,
	}
}

// Start watches Dir until ctx is canceled. Files are handled concurrently.
func (w *Watcher) Start(ctx context.Context) error {
	log := logger.New().WithField("component", "watch")

	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return eris.Wrapf(err, "watch: create %s", w.Dir)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return eris.Wrap(err, "watch: new watcher")
	}
	if err := watcher.Add(w.Dir); err != nil {
		watcher.Close()
		return eris.Wrapf(err, "watch: add %s", w.Dir)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if evt.Op&(fsnotify.Create|fsnotify.Rename|fsnotify.Write) != 0 && accepts(evt.Name) {
					go w.handleLogged(ctx, evt.Name)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.WithError(err).Warn("watcher error")
			}
		}
	}()
	log.WithField("dir", w.Dir).Info("watching for exports")
	return nil
}

// Backfill ingests exports already present in Dir.
func (w *Watcher) Backfill(ctx context.Context) error {
	entries, err := filepath.Glob(filepath.Join(w.Dir, "*"))
	if err != nil {
		return eris.Wrap(err, "watch: list dir")
	}
	for _, e := range entries {
		if accepts(e) {
			w.handleLogged(ctx, e)
		}
	}
	return nil
}

func (w *Watcher) handleLogged(ctx context.Context, path string) {
	log := logger.New().WithField("component", "watch").WithField("file", filepath.Base(path))
	if err := w.Handle(ctx, path); err != nil {
		log.WithError(err).Error("ingest failed")
	}
}

// Handle ingests path once. A file that is still growing, or whose rows are
// not all there yet, is retried with exponential backoff for up to MaxWait.
func (w *Watcher) Handle(ctx context.Context, path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return eris.Wrapf(err, "watch: stat %s", path)
	}
	if !w.claim(path, fi.ModTime()) {
		return nil
	}
	var ingestedAt time.Time

	last := int64(-1)
	op := func() error {
		fi, err := os.Stat(path)
		if err != nil {
			return backoff.Permanent(eris.Wrapf(err, "watch: stat %s", path))
		}
		if fi.Size() == 0 || fi.Size() != last {
			last = fi.Size()
			return eris.Errorf("watch: %s still being written", filepath.Base(path))
		}
		ingestedAt = fi.ModTime()
		err = w.Ingest(ctx, path)
		if permanent(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = w.Poll
	if b.InitialInterval <= 0 {
		b.InitialInterval = defaultPoll
	}
	b.MaxElapsedTime = w.MaxWait
	if b.MaxElapsedTime <= 0 {
		b.MaxElapsedTime = defaultMaxWait
	}
	err = backoff.Retry(op, backoff.WithContext(b, ctx))
	w.release(path, ingestedAt, err == nil)
	if err != nil {
		return err
	}
	logger.New().WithField("component", "watch").WithField("file", filepath.Base(path)).Info("export ingested")
	return nil
}

// claim reserves path unless it is already being handled or this version
// of the file was already ingested.
func (w *Watcher) claim(path string, modTime time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.inflight == nil {
		w.inflight = map[string]bool{}
		w.done = map[string]time.Time{}
	}
	if w.inflight[path] {
		return false
	}
	if prev, ok := w.done[path]; ok && !modTime.After(prev) {
		return false
	}
	w.inflight[path] = true
	return true
}

func (w *Watcher) release(path string, modTime time.Time, ok bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.inflight, path)
	if ok {
		w.done[path] = modTime
	}
}

func accepts(path string) bool {
	return dataset.DetectFormat(path) != dataset.FormatUnknown
}

// permanent reports whether retrying the same file contents cannot succeed.
func permanent(err error) bool {
	return errors.Is(err, dataset.ErrUnsupportedFormat) ||
		errors.Is(err, dataset.ErrMalformed) ||
		errors.Is(err, processor.ErrNoUsableData)
}
