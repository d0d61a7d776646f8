// Package prompt supplies the operator's answers to provisioning steps,
// either interactively or from a configuration file.
package prompt

import (
	"context"
	"strings"

	"github.com/3cpo-dev/hostinit/pkg/api"
)

// Source provides one value per call. Steps call it lazily, so a value is
// only asked for when the step that needs it runs.
type Source interface {
	Hostname(ctx context.Context, def string) (string, error)
	Timezone(ctx context.Context, def string) (string, error)
	Username(ctx context.Context, def string) (string, error)
	Password(ctx context.Context, username string) (string, error)
	SSHKeys(ctx context.Context, username string) ([]string, error)
}

// Static answers from a fixed set of values, for unattended runs.
type Static struct {
	Answers api.Answers
}

func NewStatic(a api.Answers) *Static { return &Static{Answers: a} }

func (s *Static) Hostname(_ context.Context, def string) (string, error) {
	return orDefault(s.Answers.Hostname, def), nil
}

func (s *Static) Timezone(_ context.Context, def string) (string, error) {
	return orDefault(s.Answers.Timezone, def), nil
}

func (s *Static) Username(_ context.Context, def string) (string, error) {
	return orDefault(s.Answers.Username, def), nil
}

func (s *Static) Password(_ context.Context, _ string) (string, error) {
	return s.Answers.Password, nil
}

func (s *Static) SSHKeys(_ context.Context, _ string) ([]string, error) {
	var keys []string
	for _, k := range s.Answers.SSHKeys {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}
