package provision

import (
	"context"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/3cpo-dev/hostinit/internal/prompt"
	"github.com/3cpo-dev/hostinit/internal/target"
	"github.com/3cpo-dev/hostinit/pkg/api"
)

// Step is one provisioning action. Apply returns the outcome status and a
// short human message; a nil status with a nil error means applied.
type Step struct {
	Name  string
	Label string
	// Critical steps abort the run on error. Errors of other steps are
	// recorded as warnings.
	Critical bool
	Apply    func(ctx context.Context, env *Env) (api.StepStatus, string, error)
}

// Result is the recorded outcome of one step.
type Result struct {
	Step     string
	Label    string
	Status   api.StepStatus
	Message  string
	Err      error
	Duration time.Duration
}

// HostsPolicy controls how the 127.0.1.1 line is written to /etc/hosts.
type HostsPolicy string

const (
	// HostsAppend appends the line on every run, so reruns accumulate
	// duplicate lines.
	HostsAppend HostsPolicy = "append"
	// HostsEnsure appends the line only when it is missing.
	HostsEnsure HostsPolicy = "ensure"
)

// Settings are the non-interactive knobs of a run.
type Settings struct {
	Packages         []string
	FirewallPorts    []int
	SSHPort          int
	DockerInstallURL string
	HostsEntry       HostsPolicy
	PublicIPURL      string
}

// DefaultPackages is the base utility set installed in one batch.
var DefaultPackages = []string{
	"curl", "wget", "git", "htop", "vim", "nano", "unzip", "zip", "jq", "tmux",
	"ufw", "net-tools", "ca-certificates", "gnupg", "lsb-release", "bash-completion",
}

func DefaultSettings() Settings {
	return Settings{
		Packages:         append([]string(nil), DefaultPackages...),
		FirewallPorts:    []int{22, 80, 443},
		SSHPort:          22,
		DockerInstallURL: "https://get.docker.com",
		HostsEntry:       HostsAppend,
		PublicIPURL:      "https://api.ipify.org",
	}
}

// withDefaults fills zero fields from DefaultSettings. The sshd port is
// always allowed through the firewall.
func (s Settings) withDefaults() Settings {
	d := DefaultSettings()
	if len(s.Packages) == 0 {
		s.Packages = d.Packages
	}
	if len(s.FirewallPorts) == 0 {
		s.FirewallPorts = d.FirewallPorts
	}
	if s.SSHPort == 0 {
		s.SSHPort = d.SSHPort
	}
	if s.DockerInstallURL == "" {
		s.DockerInstallURL = d.DockerInstallURL
	}
	if s.HostsEntry == "" {
		s.HostsEntry = d.HostsEntry
	}
	if s.PublicIPURL == "" {
		s.PublicIPURL = d.PublicIPURL
	}
	if !slices.Contains(s.FirewallPorts, s.SSHPort) {
		s.FirewallPorts = append([]int{s.SSHPort}, s.FirewallPorts...)
	}
	return s
}

// Env is shared by the steps of one run. Steps fill in the resolved
// values as they go.
type Env struct {
	Target   target.Target
	Source   prompt.Source
	Settings Settings
	// Out receives operator-facing output such as the firewall status
	// and the reconnect hint.
	Out io.Writer
	// Stream, when set, receives the live output of long running commands.
	Stream io.Writer

	Hostname    string
	Timezone    string
	Username    string
	Group       string
	Home        string
	UserCreated bool
	Keys        int
	PublicIP    string
}

func (e *Env) run(ctx context.Context, format string, args ...any) (string, error) {
	return e.Target.Run(ctx, target.Sh(format, args...))
}

// stream runs a command whose output is passed through to Stream.
func (e *Env) stream(ctx context.Context, format string, args ...any) (string, error) {
	cmd := target.Sh(format, args...)
	cmd.Stdout = e.Stream
	return e.Target.Run(ctx, cmd)
}

// aptEnv keeps apt and dpkg from asking questions.
var aptEnv = map[string]string{"DEBIAN_FRONTEND": "noninteractive"}

// apt streams an apt-get invocation with aptEnv set.
func (e *Env) apt(ctx context.Context, format string, args ...any) (string, error) {
	cmd := target.Sh("apt-get "+format, args...)
	cmd.Env = aptEnv
	cmd.Stdout = e.Stream
	return e.Target.Run(ctx, cmd)
}

func (e *Env) printf(format string, args ...any) {
	if e.Out != nil {
		fmt.Fprintf(e.Out, format, args...)
	}
}
