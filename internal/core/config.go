package core

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/3cpo-dev/hostinit/internal/provision"
	"github.com/3cpo-dev/hostinit/internal/target"
	"github.com/3cpo-dev/hostinit/pkg/api"
)

// PasswordEnv carries the admin password for unattended runs.
const PasswordEnv = "HOSTINIT_PASSWORD"

// Config is the YAML configuration file.
type Config struct {
	Target      TargetConfig   `yaml:"target"`
	Answers     api.Answers    `yaml:"answers"`
	Packages    []string       `yaml:"packages"`
	Firewall    FirewallConfig `yaml:"firewall"`
	SSHD        SSHDConfig     `yaml:"sshd"`
	Docker      DockerConfig   `yaml:"docker"`
	HostsEntry  string         `yaml:"hosts_entry"`
	PublicIPURL string         `yaml:"public_ip_url"`
	Journal     JournalConfig  `yaml:"journal"`
}

// TargetConfig selects the host to provision. Kind is "local" or "ssh".
type TargetConfig struct {
	Kind             string        `yaml:"kind"`
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	User             string        `yaml:"user"`
	Identity         string        `yaml:"identity"`
	KnownHosts       string        `yaml:"known_hosts"`
	AcceptNewHostKey bool          `yaml:"accept_new_host_key"`
	Timeout          time.Duration `yaml:"timeout"`
	Retries          int           `yaml:"retries"`
}

type FirewallConfig struct {
	Ports []int `yaml:"ports"`
}

type SSHDConfig struct {
	Port int `yaml:"port"`
}

type DockerConfig struct {
	InstallURL string `yaml:"install_url"`
}

type JournalConfig struct {
	Path     string `yaml:"path"`
	Disabled bool   `yaml:"disabled"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	dir := ConfigDir()
	d := provision.DefaultSettings()
	return Config{
		Target: TargetConfig{
			Kind:       target.KindLocal,
			Port:       22,
			User:       "root",
			Identity:   filepath.Join(dir, "ssh", "id_ed25519"),
			KnownHosts: filepath.Join(dir, "known_hosts"),
			Timeout:    15 * time.Second,
			Retries:    3,
		},
		Packages:    d.Packages,
		Firewall:    FirewallConfig{Ports: d.FirewallPorts},
		SSHD:        SSHDConfig{Port: d.SSHPort},
		Docker:      DockerConfig{InstallURL: d.DockerInstallURL},
		HostsEntry:  string(d.HostsEntry),
		PublicIPURL: d.PublicIPURL,
		Journal:     JournalConfig{Path: filepath.Join(dir, "journal.db")},
	}
}

// LoadConfig reads YAML configuration from a path over DefaultConfig. If
// path is empty it resolves $XDG_CONFIG_HOME/hostinit/config.yaml or
// ~/.config/hostinit/config.yaml, and a missing file there is not an error.
// The password is merged from secrets.env next to the config file and
// then from the environment.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	explicit := path != ""
	if !explicit {
		path = filepath.Join(ConfigDir(), "config.yaml")
	}
	content, err := readConfig(path)
	switch {
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(content, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	secrets, err := LoadSecretsEnv(filepath.Join(filepath.Dir(path), "secrets.env"))
	if err != nil {
		return cfg, err
	}
	if v := os.Getenv(PasswordEnv); v != "" {
		secrets[PasswordEnv] = v
	}
	if v, ok := secrets[PasswordEnv]; ok && v != "" {
		cfg.Answers.Password = v
	}
	return cfg, cfg.Validate()
}

func readConfig(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return content, nil
}

// Validate rejects values no step could act on.
func (c Config) Validate() error {
	switch c.Target.Kind {
	case "", target.KindLocal, target.KindSSH:
	default:
		return fmt.Errorf("config: unknown target kind %q", c.Target.Kind)
	}
	switch provision.HostsPolicy(c.HostsEntry) {
	case "", provision.HostsAppend, provision.HostsEnsure:
	default:
		return fmt.Errorf("config: hosts_entry must be %q or %q, got %q", provision.HostsAppend, provision.HostsEnsure, c.HostsEntry)
	}
	for _, p := range append([]int{c.SSHD.Port, c.Target.Port}, c.Firewall.Ports...) {
		if p < 0 || p > 65535 {
			return fmt.Errorf("config: port %d out of range", p)
		}
	}
	return nil
}

// Settings converts the step knobs of the file.
func (c Config) Settings() provision.Settings {
	return provision.Settings{
		Packages:         c.Packages,
		FirewallPorts:    c.Firewall.Ports,
		SSHPort:          c.SSHD.Port,
		DockerInstallURL: c.Docker.InstallURL,
		HostsEntry:       provision.HostsPolicy(c.HostsEntry),
		PublicIPURL:      c.PublicIPURL,
	}
}

func (c Config) TargetOptions() target.Options {
	return target.Options{
		Kind:             c.Target.Kind,
		Host:             c.Target.Host,
		Port:             c.Target.Port,
		User:             c.Target.User,
		KeyPath:          c.Target.Identity,
		KnownHosts:       c.Target.KnownHosts,
		AcceptNewHostKey: c.Target.AcceptNewHostKey,
		Timeout:          c.Target.Timeout,
		Retries:          c.Target.Retries,
	}
}
