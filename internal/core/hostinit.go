package core

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/3cpo-dev/hostinit/internal/prompt"
	"github.com/3cpo-dev/hostinit/internal/provision"
	"github.com/3cpo-dev/hostinit/internal/target"
	"github.com/3cpo-dev/hostinit/pkg/api"
)

// Metrics tracks step counts and time spent in a process.
type Metrics struct {
	steps    int64
	failures int64
	duration time.Duration
	mu       sync.RWMutex
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

// Observe is a provision.Observer.
func (m *Metrics) Observe(r provision.Result) {
	m.mu.Lock()
	m.steps++
	if r.Status == api.StepFailed {
		m.failures++
	}
	m.duration += r.Duration
	m.mu.Unlock()
}

// GetStats returns steps run, steps failed and their total duration.
func (m *Metrics) GetStats() (int64, int64, time.Duration) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.steps, m.failures, m.duration
}

// Hostinit runs provisioning operations against targets.
type Hostinit struct {
	config  Config
	targets *target.Registry
	store   *Store
	metrics *Metrics
}

// NewHostinit creates a Hostinit. store may be nil to disable the journal.
func NewHostinit(config Config, targets *target.Registry, store *Store) *Hostinit {
	return &Hostinit{
		config:  config,
		targets: targets,
		store:   store,
		metrics: NewMetrics(),
	}
}

// ApplyOptions are the per-invocation inputs of Apply.
type ApplyOptions struct {
	Source prompt.Source
	Out    io.Writer
	Stream io.Writer
	// Steps defaults to provision.DefaultSteps.
	Steps []provision.Step
}

// Report summarizes one Apply.
type Report struct {
	RunID    string
	Target   string
	Hostname string
	Username string
	PublicIP string
	Results  []provision.Result
}

// Apply opens the configured target and runs the provisioning steps. The
// report is filled as far as the run got, also on error.
func (h *Hostinit) Apply(ctx context.Context, opts ApplyOptions) (Report, error) {
	t, err := h.targets.Open(h.config.TargetOptions())
	if err != nil {
		return Report{}, fmt.Errorf("open target: %w", err)
	}
	defer t.Close()
	rep := Report{Target: t.Name()}

	steps := opts.Steps
	if steps == nil {
		steps = provision.DefaultSteps()
	}
	runner := provision.NewRunner(steps, provision.LogResult, h.metrics.Observe)

	// The journal is best effort: a broken database never stops a run.
	if h.store != nil {
		started := time.Now()
		if id, err := h.store.BeginRun(ctx, t.Name(), started); err != nil {
			log.Warn().Err(err).Msg("journal disabled for this run")
		} else {
			rep.RunID = id
			seq := 0
			runner.Observe(func(r provision.Result) {
				seq++
				if err := h.store.RecordStep(context.WithoutCancel(ctx), id, seq, r); err != nil {
					log.Warn().Err(err).Msg("journal")
				}
			})
		}
	}

	env := &provision.Env{
		Target:   t,
		Source:   opts.Source,
		Settings: h.config.Settings(),
		Out:      opts.Out,
		Stream:   opts.Stream,
	}
	rep.Results, err = runner.Run(ctx, env)
	rep.Hostname, rep.Username, rep.PublicIP = env.Hostname, env.Username, env.PublicIP

	if rep.RunID != "" {
		status := api.RunSucceeded
		if err != nil {
			status = api.RunFailed
		}
		if ferr := h.store.FinishRun(context.WithoutCancel(ctx), rep.RunID, status, env.Hostname, env.Username, err, time.Now()); ferr != nil {
			log.Warn().Err(ferr).Msg("journal")
		}
	}
	return rep, err
}

// Verify audits the configured target for drift from the provisioned state.
func (h *Hostinit) Verify(ctx context.Context, username string) ([]provision.Check, error) {
	t, err := h.targets.Open(h.config.TargetOptions())
	if err != nil {
		return nil, fmt.Errorf("open target: %w", err)
	}
	defer t.Close()
	if username == "" {
		username = h.config.Answers.Username
	}
	if username == "" {
		username = api.DefaultUsername
	}
	return provision.Verify(ctx, t, provision.VerifyOptions{Username: username, Settings: h.config.Settings()})
}

// History returns recent runs with their steps.
func (h *Hostinit) History(ctx context.Context, limit int) ([]api.RunRecord, map[string][]api.StepRecord, error) {
	if h.store == nil {
		return nil, nil, fmt.Errorf("journal is disabled")
	}
	runs, err := h.store.ListRuns(ctx, limit)
	if err != nil {
		return nil, nil, err
	}
	steps := make(map[string][]api.StepRecord, len(runs))
	for _, r := range runs {
		if steps[r.ID], err = h.store.Steps(ctx, r.ID); err != nil {
			return nil, nil, err
		}
	}
	return runs, steps, nil
}

// GetMetrics returns the metrics of every Apply so far.
func (h *Hostinit) GetMetrics() (int64, int64, time.Duration) {
	return h.metrics.GetStats()
}
