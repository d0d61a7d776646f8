package prompt

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/rs/zerolog/log"

	"github.com/3cpo-dev/hostinit/pkg/api"
)

type question struct {
	Title       string
	Description string
	Value       string
	// Default replaces a blank answer.
	Default  string
	Password bool
	Validate func(string) error
}

// Interactive asks the operator on the terminal. Values present in
// Defaults prefill the single-value prompts; a preset password or key list
// is used as is without asking.
type Interactive struct {
	Defaults   api.Answers
	Accessible bool

	ask func(ctx context.Context, q question) (string, error)
}

func NewInteractive(defaults api.Answers, accessible bool) *Interactive {
	return &Interactive{Defaults: defaults, Accessible: accessible}
}

func (p *Interactive) Hostname(ctx context.Context, def string) (string, error) {
	return p.input(ctx, question{
		Title:       "Hostname",
		Description: "Name this host will report (hostnamectl)",
		Value:       orDefault(p.Defaults.Hostname, def),
		Default:     orDefault(p.Defaults.Hostname, def),
		Validate:    ValidateHostname,
	})
}

func (p *Interactive) Timezone(ctx context.Context, def string) (string, error) {
	return p.input(ctx, question{
		Title:       "Timezone",
		Description: "IANA zone name, e.g. Europe/Moscow or UTC",
		Value:       orDefault(p.Defaults.Timezone, def),
		Default:     orDefault(p.Defaults.Timezone, def),
		Validate:    ValidateTimezone,
	})
}

func (p *Interactive) Username(ctx context.Context, def string) (string, error) {
	return p.input(ctx, question{
		Title:       "Admin username",
		Description: "Created with sudo and docker group membership if missing",
		Value:       orDefault(p.Defaults.Username, def),
		Default:     orDefault(p.Defaults.Username, def),
		Validate:    ValidateUsername,
	})
}

func (p *Interactive) Password(ctx context.Context, username string) (string, error) {
	if p.Defaults.Password != "" {
		return p.Defaults.Password, nil
	}
	return p.input(ctx, question{
		Title:       fmt.Sprintf("Password for %s", username),
		Description: "Used for console login; SSH accepts keys only",
		Password:    true,
		Validate:    ValidatePassword,
	})
}

// SSHKeys asks for one key per prompt until a blank answer.
func (p *Interactive) SSHKeys(ctx context.Context, username string) ([]string, error) {
	if len(p.Defaults.SSHKeys) > 0 {
		log.Info().Int("keys", len(p.Defaults.SSHKeys)).Msg("using SSH keys from config")
		return NewStatic(p.Defaults).SSHKeys(ctx, username)
	}
	var keys []string
	for i := 1; ; i++ {
		desc := fmt.Sprintf("Public key for %s (ssh-ed25519 AAAA... comment)", username)
		if i > 1 {
			desc = "Another key, or leave empty to finish"
		}
		k, err := p.input(ctx, question{
			Title:       fmt.Sprintf("SSH public key #%d", i),
			Description: desc,
			Validate:    validateOptionalKey,
		})
		if err != nil {
			return nil, err
		}
		if k == "" {
			return keys, nil
		}
		keys = append(keys, k)
	}
}

func (p *Interactive) input(ctx context.Context, q question) (string, error) {
	ask := p.ask
	if ask == nil {
		ask = p.runForm
	}
	if validate := q.Validate; validate != nil && q.Default != "" {
		q.Validate = func(s string) error {
			if strings.TrimSpace(s) == "" {
				return nil
			}
			return validate(s)
		}
	}
	v, err := ask(ctx, q)
	if err != nil {
		return "", fmt.Errorf("prompt %q: %w", q.Title, err)
	}
	if q.Password {
		return v, nil
	}
	if v = strings.TrimSpace(v); v == "" {
		return q.Default, nil
	}
	return v, nil
}

func (p *Interactive) runForm(ctx context.Context, q question) (string, error) {
	v := q.Value
	in := huh.NewInput().
		Title(q.Title).
		Description(q.Description).
		Value(&v)
	if q.Password {
		in = in.EchoMode(huh.EchoModePassword)
	}
	if q.Default != "" {
		in = in.Placeholder(q.Default)
	}
	if q.Validate != nil {
		in = in.Validate(q.Validate)
	}
	err := huh.NewForm(huh.NewGroup(in)).
		WithAccessible(p.Accessible).
		WithShowHelp(false).
		RunWithContext(ctx)
	return v, err
}
