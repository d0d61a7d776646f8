package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/3cpo-dev/hostinit/internal/prompt"
	"github.com/3cpo-dev/hostinit/internal/provision"
	gssh "github.com/3cpo-dev/hostinit/internal/ssh"
	"github.com/3cpo-dev/hostinit/internal/target"
	"github.com/3cpo-dev/hostinit/internal/target/targettest"
	"github.com/3cpo-dev/hostinit/pkg/api"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestLoadConfigDefaultsWhenMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(PasswordEnv, "")
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Target.Kind != target.KindLocal || cfg.HostsEntry != "append" || len(cfg.Firewall.Ports) != 3 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Journal.Path != filepath.Join(ConfigDir(), "journal.db") {
		t.Fatalf("journal path %q", cfg.Journal.Path)
	}
}

func TestLoadConfigExplicitMissing(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for a missing explicit config")
	}
}

func TestLoadConfigFileAndSecrets(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(PasswordEnv, "")
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, `
target:
  kind: ssh
  host: 203.0.113.10
  timeout: 5s
answers:
  hostname: web1
  username: ops
  ssh_keys:
    - ssh-ed25519 AAAA ops
packages: [curl, git]
firewall:
  ports: [22, 443]
hosts_entry: ensure
`)
	writeFile(t, filepath.Join(dir, "secrets.env"), "# admin\nexport HOSTINIT_PASSWORD=\"from file\"\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Target.Kind != "ssh" || cfg.Target.Host != "203.0.113.10" || cfg.Target.Timeout != 5*time.Second {
		t.Fatalf("target %+v", cfg.Target)
	}
	if cfg.Target.User != "root" || cfg.Target.Port != 22 {
		t.Fatalf("target defaults lost: %+v", cfg.Target)
	}
	if cfg.Answers.Hostname != "web1" || cfg.Answers.Username != "ops" || len(cfg.Answers.SSHKeys) != 1 {
		t.Fatalf("answers %+v", cfg.Answers)
	}
	if cfg.Answers.Password != "from file" {
		t.Fatalf("password from secrets.env not merged")
	}
	set := cfg.Settings()
	if len(set.Packages) != 2 || len(set.FirewallPorts) != 2 || set.HostsEntry != provision.HostsEnsure {
		t.Fatalf("settings %+v", set)
	}
	opts := cfg.TargetOptions()
	if opts.Kind != target.KindSSH || opts.KeyPath == "" || opts.KnownHosts == "" {
		t.Fatalf("target options %+v", opts)
	}

	t.Setenv(PasswordEnv, "from env")
	cfg, err = LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Answers.Password != "from env" {
		t.Fatalf("environment must override secrets.env, got %q", cfg.Answers.Password)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	cases := map[string]string{
		"kind":  "target:\n  kind: docker\n",
		"hosts": "hosts_entry: replace\n",
		"port":  "firewall:\n  ports: [70000]\n",
		"yaml":  "target: [\n",
	}
	for name, content := range cases {
		path := filepath.Join(t.TempDir(), "config.yaml")
		writeFile(t, path, content)
		if _, err := LoadConfig(path); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestStoreJournal(t *testing.T) {
	ctx := context.Background()
	s, err := NewStore(filepath.Join(t.TempDir(), "state", "journal.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer s.Close()
	if err := s.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}

	start := time.Now()
	first, err := s.BeginRun(ctx, "local", start)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := s.RecordStep(ctx, first, 1, provision.Result{Step: "preflight", Status: api.StepFailed, Err: provision.ErrNotRoot, Duration: time.Millisecond}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := s.FinishRun(ctx, first, api.RunFailed, "", "", provision.ErrNotRoot, start.Add(time.Second)); err != nil {
		t.Fatalf("finish: %v", err)
	}
	second, err := s.BeginRun(ctx, "ssh:web1", start.Add(time.Minute))
	if err != nil {
		t.Fatalf("begin: %v", err)
	}

	runs, err := s.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != second || runs[1].ID != first {
		t.Fatalf("runs not newest first: %+v", runs)
	}
	if runs[0].Status != api.RunRunning || !runs[0].FinishedAt.IsZero() {
		t.Fatalf("open run %+v", runs[0])
	}
	if runs[1].Status != api.RunFailed || runs[1].Error == "" {
		t.Fatalf("failed run %+v", runs[1])
	}
	steps, err := s.Steps(ctx, first)
	if err != nil {
		t.Fatalf("steps: %v", err)
	}
	if len(steps) != 1 || steps[0].Name != "preflight" || steps[0].Status != api.StepFailed || steps[0].Duration != time.Millisecond {
		t.Fatalf("steps %+v", steps)
	}
}

func fakeRegistry(f *targettest.Fake) *target.Registry {
	r := target.NewRegistry()
	r.Register(target.KindLocal, func(target.Options) (target.Target, error) { return f, nil })
	return r
}

func provisionedFake(t *testing.T) (*targettest.Fake, api.Answers) {
	t.Helper()
	pub, err := gssh.GenerateEd25519Keypair(filepath.Join(t.TempDir(), "id"), "ops")
	if err != nil {
		t.Fatalf("keygen: %v", err)
	}
	f := targettest.New()
	f.On("id -u", targettest.Reply{Output: "0\n"})
	f.On("id -u admin", targettest.Reply{Code: 1})
	f.On("getent passwd admin", targettest.Reply{Output: "admin:x:1000:1000::/home/admin:/bin/bash\n"})
	f.On("id -gn admin", targettest.Reply{Output: "admin\n"})
	f.On("curl -fsS --max-time 5", targettest.Reply{Output: "198.51.100.4\n"})
	return f, api.Answers{Password: "pw", SSHKeys: []string{pub}}
}

func TestApplyJournalsRun(t *testing.T) {
	ctx := context.Background()
	s, err := NewStore(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer s.Close()
	f, a := provisionedFake(t)
	h := NewHostinit(DefaultConfig(), fakeRegistry(f), s)

	rep, err := h.Apply(ctx, ApplyOptions{Source: prompt.NewStatic(a)})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if rep.RunID == "" || rep.Username != "admin" || rep.Hostname != "vm" || rep.PublicIP != "198.51.100.4" {
		t.Fatalf("report %+v", rep)
	}
	runs, steps, err := h.History(ctx, 5)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(runs) != 1 || runs[0].Status != api.RunSucceeded || runs[0].Username != "admin" {
		t.Fatalf("runs %+v", runs)
	}
	if got := len(steps[rep.RunID]); got != len(provision.DefaultSteps()) {
		t.Fatalf("journaled %d steps", got)
	}
	n, failed, _ := h.GetMetrics()
	if n != int64(len(provision.DefaultSteps())) || failed != 0 {
		t.Fatalf("metrics %d/%d", n, failed)
	}
}

func TestApplyJournalsFailure(t *testing.T) {
	ctx := context.Background()
	s, err := NewStore(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer s.Close()
	f, a := provisionedFake(t)
	f.On("id -u", targettest.Reply{Output: "1000\n"})
	h := NewHostinit(DefaultConfig(), fakeRegistry(f), s)

	_, err = h.Apply(ctx, ApplyOptions{Source: prompt.NewStatic(a)})
	if !errors.Is(err, provision.ErrNotRoot) {
		t.Fatalf("expected ErrNotRoot, got %v", err)
	}
	runs, steps, err := h.History(ctx, 5)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(runs) != 1 || runs[0].Status != api.RunFailed {
		t.Fatalf("runs %+v", runs)
	}
	if s := steps[runs[0].ID]; len(s) != 1 || s[0].Status != api.StepFailed {
		t.Fatalf("steps %+v", s)
	}
}

func TestApplyWithoutJournal(t *testing.T) {
	f, a := provisionedFake(t)
	h := NewHostinit(DefaultConfig(), fakeRegistry(f), nil)
	rep, err := h.Apply(context.Background(), ApplyOptions{Source: prompt.NewStatic(a)})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if rep.RunID != "" {
		t.Fatalf("run id without journal")
	}
	if _, _, err := h.History(context.Background(), 1); err == nil {
		t.Fatalf("history without journal must fail")
	}
}

func TestApplyUnknownTarget(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Target.Kind = target.KindSSH
	h := NewHostinit(cfg, target.NewRegistry(), nil)
	if _, err := h.Apply(context.Background(), ApplyOptions{Source: prompt.NewStatic(api.Answers{})}); err == nil {
		t.Fatalf("expected error for an unregistered target kind")
	}
}
