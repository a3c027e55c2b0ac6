// Package restorer regenerates target files from their persistent sources.
package restorer

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"sync"
	"time"

	"filekeeper/internal/model"
	"filekeeper/internal/util"

	"go.trai.ch/zerr"
)

// Restorer copies each source over its target. Restores of the same target
// are serialized; different targets never block each other.
type Restorer struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
	now   func() time.Time
}

func New() *Restorer {
	return &Restorer{
		locks: make(map[string]*sync.Mutex),
		now:   time.Now,
	}
}

func (r *Restorer) lockFor(name string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.locks[name]
	if !ok {
		l = &sync.Mutex{}
		r.locks[name] = l
	}
	return l
}

// Restore makes the target match its source. A missing source is not an
// error: there is nothing to restore and the target is left alone.
func (r *Restorer) Restore(target model.WatchTarget, trigger model.Trigger) model.RestoreOutcome {
	l := r.lockFor(target.Name)
	l.Lock()
	defer l.Unlock()

	start := r.now()
	outcome := r.restore(target)
	outcome.Target = target
	outcome.Trigger = trigger
	outcome.Timestamp = start
	outcome.Duration = r.now().Sub(start)

	return outcome
}

func (r *Restorer) restore(target model.WatchTarget) model.RestoreOutcome {
	data, err := os.ReadFile(target.SourcePath)
	if errors.Is(err, fs.ErrNotExist) {
		return model.RestoreOutcome{Success: true, SourceMissing: true}
	}
	if err != nil {
		return failed(model.KindSourceReadFailed, zerr.With(zerr.Wrap(err, model.ErrSourceReadFailed.Error()), "path", target.SourcePath))
	}

	sum := util.Checksum(data)

	if current, err := util.FileChecksum(target.TargetPath); err == nil && current == sum {
		repaired, err := repairAttributes(target)
		if err != nil {
			return failed(model.KindTargetWriteFailed, zerr.With(zerr.Wrap(err, model.ErrTargetWriteFailed.Error()), "path", target.TargetPath))
		}

		return model.RestoreOutcome{Success: true, Unchanged: !repaired, Repaired: repaired, Checksum: sum}
	}

	n, err := util.AtomicWrite(target.TargetPath, bytes.NewReader(data), target.Mode, target.UID, target.GID)
	if err != nil {
		return failed(model.KindTargetWriteFailed, zerr.With(zerr.Wrap(err, model.ErrTargetWriteFailed.Error()), "path", target.TargetPath))
	}

	return model.RestoreOutcome{Success: true, BytesCopied: n, Checksum: sum}
}

// repairAttributes fixes mode and ownership of a target whose content is
// already correct, without rewriting it. It reports whether anything changed;
// touching attributes that already match would notify the watcher again.
func repairAttributes(target model.WatchTarget) (bool, error) {
	info, err := os.Stat(target.TargetPath)
	if err != nil {
		return false, err
	}

	repaired := false
	if info.Mode().Perm() != target.Mode {
		if err := os.Chmod(target.TargetPath, target.Mode); err != nil {
			return false, err
		}
		repaired = true
	}

	if target.ChangesOwner() && !ownedBy(info, target.UID, target.GID) {
		if err := os.Chown(target.TargetPath, target.UID, target.GID); err != nil {
			return repaired, err
		}
		repaired = true
	}

	return repaired, nil
}

func failed(kind model.ErrorKind, err error) model.RestoreOutcome {
	return model.RestoreOutcome{Kind: kind, Err: err}
}
