package daemon

import (
	"context"
	"time"

	"filekeeper/internal/model"
	"filekeeper/internal/pipeline"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"
)

type State string

const (
	StateIdle          State = "IDLE"
	StateDebouncing    State = "DEBOUNCING"
	StateRestoring     State = "RESTORING"
	StateResubscribing State = "RESUBSCRIBING"
)

type Notifier interface {
	Subscribe(ctx context.Context, target model.WatchTarget) (<-chan model.RestoreEvent, error)
}

type Restorer interface {
	Restore(target model.WatchTarget, trigger model.Trigger) model.RestoreOutcome
}

type Observer interface {
	Report(outcome model.RestoreOutcome)
	SetState(name string, state State)
	SubscriptionLost(name string, err error)
}

type nopObserver struct{}

func (nopObserver) Report(model.RestoreOutcome)    {}
func (nopObserver) SetState(string, State)         {}
func (nopObserver) SubscriptionLost(string, error) {}

type Option func(*Loop)

func WithObserver(o Observer) Option {
	return func(l *Loop) {
		l.observer = o
	}
}

func WithBackOff(newBackOff func() backoff.BackOff) Option {
	return func(l *Loop) {
		l.newBackOff = newBackOff
	}
}

// Loop runs one independent watch task per target: restore once, then
// restore again after every debounced burst of change notifications.
type Loop struct {
	restorer   Restorer
	notifier   Notifier
	observer   Observer
	delay      time.Duration
	newBackOff func() backoff.BackOff
}

func NewLoop(r Restorer, n Notifier, delay time.Duration, opts ...Option) *Loop {
	l := &Loop{
		restorer:   r,
		notifier:   n,
		observer:   nopObserver{},
		delay:      delay,
		newBackOff: defaultBackOff,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// Run blocks until ctx is cancelled. In-flight restores finish, pending
// debounce windows are dropped, and Run returns nil.
func (l *Loop) Run(ctx context.Context, targets []model.WatchTarget) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, target := range targets {
		g.Go(func() error {
			l.watch(ctx, target)
			return nil
		})
	}

	return g.Wait()
}

func (l *Loop) watch(ctx context.Context, target model.WatchTarget) {
	// Nothing is subscribed yet, so this write cannot come back as an event.
	l.restore(target, model.TriggerInitial, false)

	b := l.newBackOff()
	resync := false
	echo := false

	for {
		events, err := l.notifier.Subscribe(ctx, target)
		if err != nil {
			if ctx.Err() != nil {
				return
			}

			l.observer.SubscriptionLost(target.Name, err)
			resync = true
			if !l.wait(ctx, target, b) {
				return
			}
			continue
		}

		b.Reset()
		echo = false
		if resync {
			// Changes made while unsubscribed went unseen.
			echo = l.restore(target, model.TriggerResync, false)
			resync = false
		}

		if !l.consume(ctx, target, events, echo) {
			return
		}

		l.observer.SubscriptionLost(target.Name, model.ErrSubscriptionLost)
		resync = true
		if !l.wait(ctx, target, b) {
			return
		}
	}
}

// consume drives Idle -> Debouncing -> Restoring -> Idle until the
// subscription ends. It reports whether the subscription was lost, as
// opposed to ctx being cancelled.
func (l *Loop) consume(ctx context.Context, target model.WatchTarget, events <-chan model.RestoreEvent, echo bool) bool {
	d := pipeline.NewDebouncer(l.delay)
	defer d.Stop()

	l.observer.SetState(target.Name, StateIdle)

	for {
		select {
		case <-ctx.Done():
			return false

		case event, ok := <-events:
			if !ok {
				return ctx.Err() == nil
			}

			if !d.Pending() {
				l.observer.SetState(target.Name, StateDebouncing)
			}
			d.Add(event)

		case <-d.C():
			event, ok := d.Take()
			if !ok {
				continue
			}
			echo = l.restore(target, event.Trigger, echo)
		}
	}
}

// restore runs one restore and reports whether it touched the target. A
// touched target notifies the watcher once more; when echo is set, that
// follow-up restore finding nothing to do is not reported.
func (l *Loop) restore(target model.WatchTarget, trigger model.Trigger, echo bool) bool {
	l.observer.SetState(target.Name, StateRestoring)
	outcome := l.restorer.Restore(target, trigger)
	if !echo || !outcome.Success || !outcome.Unchanged {
		l.observer.Report(outcome)
	}
	l.observer.SetState(target.Name, StateIdle)

	return outcome.Success && !outcome.Unchanged && !outcome.SourceMissing
}

func (l *Loop) wait(ctx context.Context, target model.WatchTarget, b backoff.BackOff) bool {
	l.observer.SetState(target.Name, StateResubscribing)

	d := b.NextBackOff()
	if d == backoff.Stop {
		d = l.delay
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
