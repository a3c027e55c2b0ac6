package daemon

import (
	"sync"
	"time"

	"filekeeper/internal/logger"
	"filekeeper/internal/model"
	"filekeeper/internal/repository"

	"go.uber.org/zap"
)

type HistoryStore interface {
	Save(outcome model.RestoreOutcome) error
	GetRecent(limit int) ([]model.History, error)
	GetByTarget(name string, limit int) ([]model.History, error)
	GetFailed(target string, limit int) ([]model.History, error)
	GetStats() (repository.Stats, error)
}

type TargetState struct {
	mu           sync.RWMutex
	Target       model.WatchTarget
	State        State
	StartedAt    time.Time
	Restored     int
	Unchanged    int
	Failed       int
	Lost         int
	LastResult   string
	LastError    string
	LastChecksum string
	LastRestore  *time.Time
}

func NewTargetState(target model.WatchTarget) *TargetState {
	return &TargetState{
		Target:    target,
		State:     StateIdle,
		StartedAt: time.Now(),
	}
}

func (s *TargetState) RecordRestore(outcome model.RestoreOutcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.LastRestore = new(outcome.Timestamp)
	s.LastResult = outcome.Result()
	s.LastError = ""

	switch {
	case !outcome.Success:
		s.Failed++
		if outcome.Err != nil {
			s.LastError = outcome.Err.Error()
		}
	case outcome.Unchanged || outcome.SourceMissing:
		s.Unchanged++
	default:
		s.Restored++
	}

	if outcome.Checksum != "" {
		s.LastChecksum = outcome.Checksum
	}
}

func (s *TargetState) SetState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.State = state
}

func (s *TargetState) RecordLost(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Lost++
	if err != nil {
		s.LastError = err.Error()
	}
}

func (s *TargetState) Snapshot() model.TargetSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return model.TargetSnapshot{
		Name:         s.Target.Name,
		Source:       s.Target.SourcePath,
		Target:       s.Target.TargetPath,
		State:        string(s.State),
		StartedAt:    s.StartedAt,
		Restored:     s.Restored,
		Unchanged:    s.Unchanged,
		Failed:       s.Failed,
		Lost:         s.Lost,
		LastResult:   s.LastResult,
		LastError:    s.LastError,
		LastChecksum: s.LastChecksum,
		LastRestore:  s.LastRestore,
	}
}

// Registry is the Observer of a running Loop. Every outcome becomes one
// log record, one metrics update and, with a store attached, one history row.
type Registry struct {
	order   []string
	targets map[string]*TargetState
	store   HistoryStore
}

func NewRegistry(targets []model.WatchTarget, store HistoryStore) *Registry {
	r := &Registry{
		targets: make(map[string]*TargetState, len(targets)),
		store:   store,
	}

	for _, t := range targets {
		r.order = append(r.order, t.Name)
		r.targets[t.Name] = NewTargetState(t)
	}

	return r
}

func (r *Registry) Target(name string) (model.WatchTarget, bool) {
	state, ok := r.targets[name]
	if !ok {
		return model.WatchTarget{}, false
	}
	return state.Target, true
}

func (r *Registry) Report(outcome model.RestoreOutcome) {
	name := outcome.Target.Name
	fields := []zap.Field{
		zap.String("target", name),
		zap.String("trigger", string(outcome.Trigger)),
		zap.String("result", outcome.Result()),
		zap.Int64("bytes", outcome.BytesCopied),
		zap.Duration("took", outcome.Duration),
	}

	switch {
	case !outcome.Success:
		logger.Log.Error("restore failed", append(fields,
			zap.String("kind", string(outcome.Kind)),
			zap.Error(outcome.Err))...)
	case outcome.SourceMissing:
		logger.Log.Info("source missing, nothing to restore", append(fields,
			zap.String("src", outcome.Target.SourcePath))...)
	case outcome.Unchanged:
		logger.Log.Debug("target up to date", fields...)
	default:
		logger.Log.Info("restored", append(fields,
			zap.String("dst", outcome.Target.TargetPath),
			zap.String("checksum", outcome.Checksum))...)
	}

	metricRestoreAttempts.WithLabelValues(name, outcome.Result()).Inc()
	metricRestoreBytes.WithLabelValues(name).Add(float64(outcome.BytesCopied))
	metricRestoreSeconds.WithLabelValues(name).Add(outcome.Duration.Seconds())

	if state, ok := r.targets[name]; ok {
		state.RecordRestore(outcome)
	}

	if r.store != nil {
		if err := r.store.Save(outcome); err != nil {
			logger.Log.Warn("failed to save history",
				zap.String("target", name),
				zap.Error(err))
		}
	}
}

func (r *Registry) SetState(name string, state State) {
	if s, ok := r.targets[name]; ok {
		s.SetState(state)
	}
}

func (r *Registry) SubscriptionLost(name string, err error) {
	logger.Log.Warn("change subscription lost, resubscribing",
		zap.String("target", name),
		zap.String("kind", string(model.KindSubscriptionLost)),
		zap.Error(err))

	metricSubscriptionsLost.WithLabelValues(name).Inc()

	if s, ok := r.targets[name]; ok {
		s.RecordLost(err)
	}
}

func (r *Registry) Snapshots() []model.TargetSnapshot {
	snaps := make([]model.TargetSnapshot, 0, len(r.order))
	for _, name := range r.order {
		snaps = append(snaps, r.targets[name].Snapshot())
	}

	return snaps
}
