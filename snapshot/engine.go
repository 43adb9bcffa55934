// Package snapshot serializes the keyspace to a single file, on demand
// (SAVE/BGSAVE) or on the three-threshold policy schedule described by the
// configuration. The format is gob, matching the teacher's own persistence
// technique (core/storagehash.go, controller/keeper.go) -- a self-
// describing, Go-native binary codec; no cross-language compatibility is
// required.
package snapshot

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mshaverdo/radish/config"
	"github.com/mshaverdo/radish/core"
	"github.com/mshaverdo/radish/log"
)

// BGSaveStartedMessage is the reply BGSAVE always gives, whether it started
// a new background save or found one already in flight.
const BGSaveStartedMessage = "Background saving started"

// Engine owns the single snapshot file and the policy pollers that decide
// when to write it.
type Engine struct {
	core *core.Core
	path string

	asyncTime time.Duration
	secCount  int64
	minCount  int64

	bgMu    sync.Mutex
	bgBusy  bool

	stopChan chan struct{}
	wg       sync.WaitGroup
}

// New constructs an Engine for c, persisting to cfg.PdbFile on cfg's
// policy schedule.
func New(c *core.Core, cfg config.Config) *Engine {
	return &Engine{
		core:      c,
		path:      cfg.PdbFile,
		asyncTime: time.Duration(cfg.AsyncTime) * time.Second,
		secCount:  int64(cfg.SecCount),
		minCount:  int64(cfg.MinCount),
		stopChan:  make(chan struct{}),
	}
}

// Load restores the keyspace from the snapshot file. A missing or
// unreadable file is not an error: the keyspace simply starts empty, and
// the event is logged.
func (e *Engine) Load() error {
	file, err := os.Open(e.path)
	if os.IsNotExist(err) {
		log.Infof("No snapshot at %s, starting with an empty keyspace", e.path)
		return nil
	}
	if err != nil {
		log.Warningf("Unable to open snapshot %s: %s, starting with an empty keyspace", e.path, err)
		return nil
	}
	defer file.Close()

	var entries []core.SnapshotEntry
	if err := gob.NewDecoder(file).Decode(&entries); err != nil {
		log.Warningf("Unable to decode snapshot %s: %s, starting with an empty keyspace", e.path, err)
		return nil
	}

	e.core.Restore(entries)
	log.Infof("Loaded %d keys from %s", len(entries), e.path)
	return nil
}

// Save performs a synchronous, durable snapshot: it returns only once the
// file is written and renamed into place.
func (e *Engine) Save() error {
	return e.save()
}

// BGSave starts a background snapshot unless one is already running, in
// which case it is a no-op -- both cases give the caller the same
// "Background saving started" reply.
func (e *Engine) BGSave() {
	e.bgMu.Lock()
	if e.bgBusy {
		e.bgMu.Unlock()
		return
	}
	e.bgBusy = true
	e.bgMu.Unlock()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer func() {
			e.bgMu.Lock()
			e.bgBusy = false
			e.bgMu.Unlock()
		}()

		if err := e.save(); err != nil {
			log.Errorf("Background save failed: %s", err)
		}
	}()
}

// save clones the keyspace, writes the clone to a temp file and atomically
// renames it into place, then resets the mutation counter. Core.Snapshot
// only holds Core's lock long enough to copy the key->Item map, so this
// never blocks command dispatch for the whole write.
func (e *Engine) save() error {
	entries := e.core.Snapshot()

	dir := filepath.Dir(e.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("snapshot: creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(e.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("snapshot: creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if err := gob.NewEncoder(tmp).Encode(entries); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("snapshot: encoding: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("snapshot: closing temp file: %w", err)
	}

	if err := os.Rename(tmpName, e.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("snapshot: renaming into place: %w", err)
	}

	e.core.ResetModCount()
	log.Debugf("Snapshot written: %d keys to %s", len(entries), e.path)
	return nil
}

// StartPolicy launches the three independent pollers described by the
// configuration: every AsyncTime seconds if any mutation happened, every
// second if at least SecCount mutations happened, every minute if at least
// MinCount mutations happened.
func (e *Engine) StartPolicy() {
	e.runPoller(e.asyncTime, func() bool { return e.core.ModCount() > 0 })
	e.runPoller(time.Second, func() bool { return e.core.ModCount() >= e.secCount })
	e.runPoller(time.Minute, func() bool { return e.core.ModCount() >= e.minCount })
}

func (e *Engine) runPoller(interval time.Duration, shouldSave func() bool) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-e.stopChan:
				return
			case <-ticker.C:
				if shouldSave() {
					e.BGSave()
				}
			}
		}
	}()
}

// Stop halts the policy pollers and waits for any in-flight background
// save to finish. It does not itself save -- callers that want a final
// snapshot call Save() after Stop().
func (e *Engine) Stop() {
	close(e.stopChan)
	e.wg.Wait()
}
