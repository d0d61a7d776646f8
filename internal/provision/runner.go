package provision

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/3cpo-dev/hostinit/pkg/api"
)

// Observer is told about every step result in order.
type Observer func(Result)

// Runner executes steps in order against one Env.
type Runner struct {
	Steps     []Step
	observers []Observer
}

func NewRunner(steps []Step, observers ...Observer) *Runner {
	return &Runner{Steps: steps, observers: observers}
}

func (r *Runner) Observe(o Observer) { r.observers = append(r.observers, o) }

// Run stops at the first failing critical step and returns a *RunError
// for it. Cancellation is checked before each step.
func (r *Runner) Run(ctx context.Context, env *Env) ([]Result, error) {
	env.Settings = env.Settings.withDefaults()
	results := make([]Result, 0, len(r.Steps))
	for _, st := range r.Steps {
		if err := ctx.Err(); err != nil {
			return results, &RunError{Step: st.Name, Err: fmt.Errorf("interrupted: %w", err)}
		}
		log.Info().Str("step", st.Name).Msg(st.Label)
		start := time.Now()
		status, msg, err := st.Apply(ctx, env)
		res := Result{Step: st.Name, Label: st.Label, Status: status, Message: msg, Err: err, Duration: time.Since(start)}
		switch {
		case err != nil && st.Critical:
			res.Status = api.StepFailed
		case err != nil:
			res.Status = api.StepWarned
			if res.Message == "" {
				res.Message = err.Error()
			}
		case res.Status == "":
			res.Status = api.StepApplied
		}
		results = append(results, res)
		r.notify(res)
		if res.Status == api.StepFailed {
			if err == nil {
				err = fmt.Errorf("%s", res.Message)
			}
			return results, &RunError{Step: st.Name, Err: err}
		}
	}
	return results, nil
}

func (r *Runner) notify(res Result) {
	for _, o := range r.observers {
		o(res)
	}
}

// LogResult is an Observer that writes results to the global logger.
func LogResult(res Result) {
	ev := log.Info()
	switch res.Status {
	case api.StepWarned, api.StepSkipped:
		ev = log.Warn()
	case api.StepFailed:
		ev = log.Error().Err(res.Err)
	}
	if res.Err != nil && res.Status != api.StepFailed {
		ev = ev.AnErr("cause", res.Err)
	}
	ev.Str("step", res.Step).
		Str("status", string(res.Status)).
		Dur("took", res.Duration).
		Msg(res.Message)
}
