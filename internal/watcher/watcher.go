// Package watcher turns fsnotify notifications into restore events.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"filekeeper/internal/logger"
	"filekeeper/internal/model"
	"filekeeper/internal/pipeline"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Notifier subscribes to change notifications for the target path of a
// WatchTarget. The parent directory is watched rather than the file, because
// a rename over the target (ours or anyone's) replaces the watched inode.
type Notifier struct {
	bufferSize int
}

func New(bufferSize int) *Notifier {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Notifier{bufferSize: bufferSize}
}

// Subscribe returns a channel of events for target.TargetPath. The channel
// is closed when ctx is done, or earlier if the subscription is lost; the
// caller tells the two apart by checking ctx.
func (n *Notifier) Subscribe(ctx context.Context, target model.WatchTarget) (<-chan model.RestoreEvent, error) {
	dir := filepath.Dir(target.TargetPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create watch dir: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w := &watch{
		fw:      fw,
		dir:     dir,
		eventCh: make(chan model.FileEvent, n.bufferSize),
	}
	go w.run(ctx)

	logger.Log.Debug("watching directory",
		zap.String("target", target.Name),
		zap.String("dir", dir))

	return toRestoreEvents(ctx, pipeline.Filter(w.eventCh, target.TargetPath), target), nil
}

type watch struct {
	fw      *fsnotify.Watcher
	dir     string
	eventCh chan model.FileEvent
}

func (w *watch) run(ctx context.Context) {
	defer close(w.eventCh)
	defer func() {
		_ = w.fw.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case fsEvent, ok := <-w.fw.Events:
			if !ok {
				return
			}

			if filepath.Clean(fsEvent.Name) == w.dir && fsEvent.Op.Has(fsnotify.Remove|fsnotify.Rename) {
				logger.Log.Warn("watched directory went away",
					zap.String("dir", w.dir))
				return
			}

			eventType := toEventType(fsEvent.Op)
			if eventType == "" {
				continue
			}

			w.emit(model.FileEvent{
				Type:      eventType,
				Path:      fsEvent.Name,
				Timestamp: time.Now(),
			})

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}

			if errors.Is(err, fsnotify.ErrEventOverflow) {
				logger.Log.Warn("event queue overflowed",
					zap.String("dir", w.dir))
				w.emit(model.FileEvent{Type: model.EventOverflow, Timestamp: time.Now()})
				continue
			}

			logger.Log.Error("watcher error",
				zap.String("dir", w.dir),
				zap.Error(err))
			return
		}
	}
}

// emit never blocks: an event already queued guarantees a restore.
func (w *watch) emit(event model.FileEvent) {
	select {
	case w.eventCh <- event:
	default:
		logger.Log.Warn("event channel is full, dropping event",
			zap.String("path", event.Path))
	}
}

func toRestoreEvents(ctx context.Context, inCh <-chan model.FileEvent, target model.WatchTarget) <-chan model.RestoreEvent {
	outCh := make(chan model.RestoreEvent, cap(inCh))

	go func() {
		defer close(outCh)

		for event := range inCh {
			select {
			case outCh <- model.RestoreEvent{
				Target:    target,
				Trigger:   model.TriggerFor(event.Type),
				Timestamp: event.Timestamp,
			}:
			case <-ctx.Done():
			}
		}
	}()

	return outCh
}

func toEventType(op fsnotify.Op) model.EventType {
	switch {
	case op.Has(fsnotify.Create):
		return model.EventCreate
	case op.Has(fsnotify.Write):
		return model.EventWrite
	case op.Has(fsnotify.Remove):
		return model.EventRemove
	case op.Has(fsnotify.Rename):
		return model.EventRename
	case op.Has(fsnotify.Chmod):
		// Mode or ownership drift; content is checked and left alone.
		return model.EventWrite
	default:
		return ""
	}
}
