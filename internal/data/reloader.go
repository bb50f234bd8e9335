package data

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"path/filepath"
	"sync"
	"time"

	"github.com/TomasB/geolookup/internal/metrics"
	"github.com/fsnotify/fsnotify"
)

const defaultSettle = 500 * time.Millisecond

// Reloader is a Source backed by an MmdbReader that can be swapped for a
// freshly opened one when the file on disk changes. Lookups hold a read lock,
// so a reader is never closed while a lookup is using it.
type Reloader struct {
	path    string
	edition Edition
	settle  time.Duration

	mu     sync.RWMutex
	reader *MmdbReader
}

// NewReloader opens the database at path. Failure here is a startup failure.
func NewReloader(path string, edition Edition) (*Reloader, error) {
	reader, err := NewMmdbReader(path, edition)
	if err != nil {
		return nil, err
	}
	return &Reloader{
		path:    path,
		edition: edition,
		settle:  defaultSettle,
		reader:  reader,
	}, nil
}

// Get returns the record for ip from the current reader.
func (r *Reloader) Get(ip netip.Addr) (Record, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.reader == nil {
		return nil, false, errors.New("database is closed")
	}
	return r.reader.Get(ip)
}

// Ready reports whether a database is loaded.
func (r *Reloader) Ready() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.reader == nil {
		return fmt.Errorf("%s database not loaded", r.edition)
	}
	return nil
}

// Reload opens the file again and swaps it in. On failure the current reader
// stays in service.
func (r *Reloader) Reload() error {
	next, err := NewMmdbReader(r.path, r.edition)
	if err != nil {
		metrics.DatabaseReloadsTotal.WithLabelValues(string(r.edition), "error").Inc()
		return err
	}

	r.mu.Lock()
	prev := r.reader
	r.reader = next
	r.mu.Unlock()

	if prev != nil {
		_ = prev.Close()
	}
	metrics.DatabaseReloadsTotal.WithLabelValues(string(r.edition), "ok").Inc()
	slog.Info("database reloaded", "path", r.path, "edition", r.edition, "database_type", next.DatabaseType())
	return nil
}

// Watch reloads the database whenever its file is written, created or renamed
// into place, until ctx is done. The parent directory is watched so that
// atomic replacement by rename is seen. Bursts of events are collapsed into a
// single reload once the file has been quiet for the settle interval.
func (r *Reloader) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Close()

	dir := filepath.Dir(r.path)
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	target := filepath.Clean(r.path)

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			slog.Debug("database file changed", "path", ev.Name, "op", ev.Op.String())
			pending = time.After(r.settle)
		case <-pending:
			pending = nil
			if err := r.Reload(); err != nil {
				slog.Warn("database reload failed, keeping previous", "path", r.path, "error", err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Warn("database watcher error", "path", r.path, "error", err)
		}
	}
}

// Close releases the current reader.
func (r *Reloader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.reader == nil {
		return nil
	}
	err := r.reader.Close()
	r.reader = nil
	return err
}
