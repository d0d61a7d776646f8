package provision

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/3cpo-dev/hostinit/internal/prompt"
	"github.com/3cpo-dev/hostinit/internal/render"
	gssh "github.com/3cpo-dev/hostinit/internal/ssh"
	"github.com/3cpo-dev/hostinit/internal/target"
	"github.com/3cpo-dev/hostinit/internal/target/targettest"
	"github.com/3cpo-dev/hostinit/pkg/api"
)

const ufwProvisioned = `Status: active
Logging: on (low)
Default: deny (incoming), allow (outgoing), disabled (routed)
New profiles: skip

To                         Action      From
--                         ------      ----
22/tcp                     ALLOW IN    Anywhere
80/tcp                     ALLOW IN    Anywhere
443/tcp                    ALLOW IN    Anywhere
22/tcp (v6)                ALLOW IN    Anywhere (v6)
80/tcp (v6)                ALLOW IN    Anywhere (v6)
443/tcp (v6)               ALLOW IN    Anywhere (v6)
`

func testKey(t *testing.T) string {
	t.Helper()
	pub, err := gssh.GenerateEd25519Keypair(filepath.Join(t.TempDir(), "id_ed25519"), "ops@workstation")
	if err != nil {
		t.Fatalf("keygen: %v", err)
	}
	return pub
}

// freshHost scripts a root shell on a host where admin does not exist yet.
func freshHost() *targettest.Fake {
	f := targettest.New()
	f.On("id -u", targettest.Reply{Output: "0\n"})
	f.On("id -u admin", targettest.Reply{Code: 1, Output: "id: 'admin': no such user\n"})
	f.On("getent passwd admin", targettest.Reply{Output: "admin:x:1000:1000::/home/admin:/bin/bash\n"})
	f.On("id -gn admin", targettest.Reply{Output: "admin\n"})
	f.On("command -v docker", targettest.Reply{Code: 1})
	f.On("ufw status verbose", targettest.Reply{Output: ufwProvisioned})
	f.On("curl -fsS --max-time 5", targettest.Reply{Output: "203.0.113.7\n"})
	f.SetFile(render.HostsPath, "127.0.0.1\tlocalhost\n", 0644)
	return f
}

// countingSource records which answers were asked for.
type countingSource struct {
	prompt.Source
	passwordAsked int
	keysAsked     int
}

func (c *countingSource) Password(ctx context.Context, u string) (string, error) {
	c.passwordAsked++
	return c.Source.Password(ctx, u)
}

func (c *countingSource) SSHKeys(ctx context.Context, u string) ([]string, error) {
	c.keysAsked++
	return c.Source.SSHKeys(ctx, u)
}

func run(t *testing.T, f *targettest.Fake, src prompt.Source, set Settings) ([]Result, *Env, error) {
	t.Helper()
	var out bytes.Buffer
	env := &Env{Target: f, Source: src, Settings: set, Out: &out}
	res, err := NewRunner(DefaultSteps()).Run(context.Background(), env)
	return res, env, err
}

func answers(t *testing.T) api.Answers {
	return api.Answers{Password: "s3cret pass", SSHKeys: []string{testKey(t)}}
}

func TestRunFreshHost(t *testing.T) {
	f := freshHost()
	res, env, err := run(t, f, prompt.NewStatic(answers(t)), Settings{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	want := []string{
		"id -u",
		"apt-get update",
		"apt-get -y -o Dpkg::Options::=--force-confold upgrade",
		"command -v docker",
		"curl -fsSL https://get.docker.com -o /tmp/get-docker.sh",
		"sh /tmp/get-docker.sh",
		"rm -f /tmp/get-docker.sh",
		"apt-get install -y curl wget git htop vim nano unzip zip jq tmux ufw net-tools ca-certificates gnupg lsb-release bash-completion",
		"hostnamectl set-hostname vm",
		"timedatectl set-timezone Europe/Moscow",
		"chown root:root /etc/hosts",
		"id -u admin",
		"useradd -m -s /bin/bash admin",
		"chpasswd",
		"groupadd -f docker",
		"usermod -aG sudo,docker admin",
		"chown root:root /etc/sudoers.d/admin",
		"visudo -cf /etc/sudoers.d/admin",
		"getent passwd admin",
		"id -gn admin",
		"mkdir -p /home/admin/.ssh && chmod 700 /home/admin/.ssh && chown admin:admin /home/admin/.ssh",
		"chown admin:admin /home/admin/.ssh/authorized_keys",
		"chown root:root /etc/ssh/sshd_config",
		"mkdir -p /run/sshd && sshd -t",
		"systemctl restart ssh || systemctl restart sshd",
		"ufw --force reset",
		"ufw default deny incoming",
		"ufw default allow outgoing",
		"ufw allow 22/tcp",
		"ufw allow 80/tcp",
		"ufw allow 443/tcp",
		"ufw --force enable",
		"ufw status verbose",
		"chown admin:admin /home/admin/.bashrc",
		motdCleanup[0],
		motdCleanup[1],
		motdCleanup[2],
		motdCleanup[3],
		motdCleanup[4],
		"mkdir -p /etc/update-motd.d",
		"chown root:root /etc/update-motd.d/00-header",
		"curl -fsS --max-time 5 https://api.ipify.org",
	}
	if diff := cmp.Diff(want, f.Scripts()); diff != "" {
		t.Fatalf("command sequence mismatch (-want +got):\n%s", diff)
	}
	if len(res) != len(DefaultSteps()) {
		t.Fatalf("expected %d results, got %d", len(DefaultSteps()), len(res))
	}
	for _, r := range res {
		if r.Status != api.StepApplied {
			t.Errorf("step %s: status %s (%s)", r.Step, r.Status, r.Message)
		}
	}
	if !env.UserCreated || env.Home != "/home/admin" || env.PublicIP != "203.0.113.7" {
		t.Fatalf("unexpected env: %+v", env)
	}
	if got := env.Out.(*bytes.Buffer).String(); !strings.Contains(got, "ssh admin@203.0.113.7") {
		t.Fatalf("reconnect hint missing from output:\n%s", got)
	}
}

func TestPasswordOnlyOnStdin(t *testing.T) {
	f := freshHost()
	if _, _, err := run(t, f, prompt.NewStatic(answers(t)), Settings{}); err != nil {
		t.Fatalf("run: %v", err)
	}
	var stdin string
	for _, c := range f.Commands() {
		if strings.Contains(c.Script, "s3cret") {
			t.Fatalf("password leaked into script %q", c.Script)
		}
		if c.Script == "chpasswd" {
			stdin = c.Stdin
		}
	}
	if stdin != "admin:s3cret pass\n" {
		t.Fatalf("chpasswd stdin = %q", stdin)
	}
}

func TestRenderedFiles(t *testing.T) {
	f := freshHost()
	key := testKey(t)
	a := api.Answers{Username: "admin", Password: "pw", SSHKeys: []string{key, "  "}}
	if _, _, err := run(t, f, prompt.NewStatic(a), Settings{}); err != nil {
		t.Fatalf("run: %v", err)
	}

	sshd, ok := f.File(render.SSHDConfigPath)
	if !ok {
		t.Fatalf("sshd_config not written")
	}
	ds := render.ParseSSHDConfig([]byte(sshd))
	allow := render.Lookup(ds, "AllowUsers")
	if len(allow) != 1 || strings.Join(allow[0].Args, " ") != "admin" {
		t.Fatalf("AllowUsers = %+v", allow)
	}
	for kw, want := range map[string]string{"PasswordAuthentication": "no", "PermitRootLogin": "no"} {
		got := render.Lookup(ds, kw)
		if len(got) != 1 || got[0].Args[0] != want {
			t.Fatalf("%s = %+v", kw, got)
		}
	}

	keys, _ := f.File("/home/admin/.ssh/authorized_keys")
	if keys != key+"\n" {
		t.Fatalf("authorized_keys = %q", keys)
	}
	checks := map[string]uint32{
		"/home/admin/.ssh/authorized_keys": 0600,
		"/etc/sudoers.d/admin":             0440,
		"/home/admin/.bashrc":              0644,
		render.MOTDHeaderPath:              0755,
		render.SSHDConfigPath:              0644,
	}
	for p, mode := range checks {
		if got := f.Mode(p); uint32(got) != mode {
			t.Errorf("%s mode %#o, want %#o", p, got, mode)
		}
	}
	sudoers, _ := f.File("/etc/sudoers.d/admin")
	if !strings.Contains(sudoers, "admin ALL=(ALL) NOPASSWD:ALL") {
		t.Fatalf("sudoers = %q", sudoers)
	}
	hosts, _ := f.File(render.HostsPath)
	if hosts != "127.0.0.1\tlocalhost\n127.0.1.1\tvm\n" {
		t.Fatalf("hosts = %q", hosts)
	}
}

func TestNonRootStopsBeforeMutation(t *testing.T) {
	f := freshHost()
	f.On("id -u", targettest.Reply{Output: "1000\n"})
	res, _, err := run(t, f, prompt.NewStatic(answers(t)), Settings{})
	if !errors.Is(err, ErrNotRoot) {
		t.Fatalf("expected ErrNotRoot, got %v", err)
	}
	if code := ExitCode(err); code != 1 {
		t.Fatalf("exit code %d, want 1", code)
	}
	if diff := cmp.Diff([]string{"id -u"}, f.Scripts()); diff != "" {
		t.Fatalf("unexpected commands (-want +got):\n%s", diff)
	}
	if len(res) != 1 || res[0].Status != api.StepFailed {
		t.Fatalf("unexpected results %+v", res)
	}
}

func TestBlankPasswordForNewUser(t *testing.T) {
	f := freshHost()
	a := answers(t)
	a.Password = ""
	_, _, err := run(t, f, prompt.NewStatic(a), Settings{})
	if !errors.Is(err, ErrEmptyPassword) {
		t.Fatalf("expected ErrEmptyPassword, got %v", err)
	}
	var re *RunError
	if !errors.As(err, &re) || re.Step != StepUser {
		t.Fatalf("expected failure in %s, got %v", StepUser, err)
	}
	if ExitCode(err) != 1 {
		t.Fatalf("exit code %d, want 1", ExitCode(err))
	}
	for _, p := range []string{"useradd", "chpasswd", "usermod", "visudo"} {
		if f.Ran(p) {
			t.Fatalf("%s ran despite blank password", p)
		}
	}
}

func TestNoKeysStopsBeforeWrite(t *testing.T) {
	f := freshHost()
	a := answers(t)
	a.SSHKeys = []string{"", "   "}
	_, _, err := run(t, f, prompt.NewStatic(a), Settings{})
	if !errors.Is(err, ErrNoSSHKeys) {
		t.Fatalf("expected ErrNoSSHKeys, got %v", err)
	}
	if ExitCode(err) != 1 {
		t.Fatalf("exit code %d, want 1", ExitCode(err))
	}
	if _, ok := f.File("/home/admin/.ssh/authorized_keys"); ok {
		t.Fatalf("authorized_keys written without keys")
	}
	if f.Ran("mkdir -p /home/admin/.ssh") {
		t.Fatalf(".ssh created without keys")
	}
}

func TestMalformedKeyRejected(t *testing.T) {
	f := freshHost()
	a := answers(t)
	a.SSHKeys = append(a.SSHKeys, "ssh-ed25519 not-base64")
	_, _, err := run(t, f, prompt.NewStatic(a), Settings{})
	if !errors.Is(err, ErrInvalidSSHKey) {
		t.Fatalf("expected ErrInvalidSSHKey, got %v", err)
	}
	if _, ok := f.File("/home/admin/.ssh/authorized_keys"); ok {
		t.Fatalf("authorized_keys written with a malformed key")
	}
}

func TestExistingUserKeepsAccount(t *testing.T) {
	f := freshHost()
	f.On("id -u admin", targettest.Reply{Output: "1001\n"})
	f.On("getent passwd admin", targettest.Reply{Output: "admin:x:1001:1001:Admin:/srv/admin:/bin/zsh\n"})
	f.On("id -gn admin", targettest.Reply{Output: "staff\n"})
	src := &countingSource{Source: prompt.NewStatic(answers(t))}

	res, env, err := run(t, f, src, Settings{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, p := range []string{"useradd", "chpasswd", "usermod", "groupadd", "visudo"} {
		if f.Ran(p) {
			t.Errorf("%s ran for an existing user", p)
		}
	}
	if src.passwordAsked != 0 {
		t.Fatalf("password asked for an existing user")
	}
	if src.keysAsked != 1 {
		t.Fatalf("keys asked %d times", src.keysAsked)
	}
	if _, ok := f.File("/srv/admin/.ssh/authorized_keys"); !ok {
		t.Fatalf("keys not written into the existing home")
	}
	if !f.Ran("chown admin:staff /srv/admin/.ssh/authorized_keys") {
		t.Fatalf("authorized_keys not owned by the existing user")
	}
	if env.UserCreated {
		t.Fatalf("UserCreated set for an existing user")
	}
	if res[5].Step != StepUser || res[5].Status != api.StepSkipped {
		t.Fatalf("user step result %+v", res[5])
	}
}

func TestFirewallAllowsExactlyDefaultPorts(t *testing.T) {
	f := freshHost()
	if _, _, err := run(t, f, prompt.NewStatic(answers(t)), Settings{}); err != nil {
		t.Fatalf("run: %v", err)
	}
	var got []string
	for _, s := range f.Scripts() {
		if strings.HasPrefix(s, "ufw ") {
			got = append(got, s)
		}
	}
	want := []string{
		"ufw --force reset",
		"ufw default deny incoming",
		"ufw default allow outgoing",
		"ufw allow 22/tcp",
		"ufw allow 80/tcp",
		"ufw allow 443/tcp",
		"ufw --force enable",
		"ufw status verbose",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("firewall commands mismatch (-want +got):\n%s", diff)
	}
}

func TestFirewallAlwaysAllowsSSHPort(t *testing.T) {
	f := freshHost()
	if _, _, err := run(t, f, prompt.NewStatic(answers(t)), Settings{SSHPort: 2222}); err != nil {
		t.Fatalf("run: %v", err)
	}
	cfg, _ := f.File(render.SSHDConfigPath)
	if !strings.Contains(cfg, "Port 2222\n") {
		t.Fatalf("sshd_config does not listen on 2222:\n%s", cfg)
	}
	var allowed []string
	for _, s := range f.Scripts() {
		if strings.HasPrefix(s, "ufw allow ") {
			allowed = append(allowed, s)
		}
	}
	want := []string{"ufw allow 2222/tcp", "ufw allow 22/tcp", "ufw allow 80/tcp", "ufw allow 443/tcp"}
	if diff := cmp.Diff(want, allowed); diff != "" {
		t.Fatalf("allowed ports mismatch (-want +got):\n%s", diff)
	}
}

func TestAptRunsNoninteractive(t *testing.T) {
	f := freshHost()
	if _, _, err := run(t, f, prompt.NewStatic(answers(t)), Settings{}); err != nil {
		t.Fatalf("run: %v", err)
	}
	n := 0
	for _, c := range f.Commands() {
		if !strings.HasPrefix(c.Script, "apt-get ") {
			continue
		}
		n++
		if got := c.Env["DEBIAN_FRONTEND"]; got != "noninteractive" {
			t.Errorf("%q: DEBIAN_FRONTEND=%q", c.Script, got)
		}
	}
	if n != 3 {
		t.Fatalf("expected 3 apt-get commands, got %d", n)
	}
}

func TestRerunSucceedsAndDuplicatesHostsLine(t *testing.T) {
	f := freshHost()
	a := answers(t)
	if _, _, err := run(t, f, prompt.NewStatic(a), Settings{}); err != nil {
		t.Fatalf("first run: %v", err)
	}
	// The first run installed docker and created the user.
	f.On("command -v docker", targettest.Reply{Output: "/usr/bin/docker\n"})
	f.On("id -u admin", targettest.Reply{Output: "1000\n"})

	res, _, err := run(t, f, prompt.NewStatic(a), Settings{})
	if err != nil {
		t.Fatalf("rerun: %v", err)
	}
	status := map[string]api.StepStatus{}
	for _, r := range res {
		status[r.Step] = r.Status
	}
	if status[StepDocker] != api.StepSkipped || status[StepUser] != api.StepSkipped {
		t.Fatalf("unexpected rerun statuses %v", status)
	}
	hosts, _ := f.File(render.HostsPath)
	if n := strings.Count(hosts, "127.0.1.1\tvm\n"); n != 2 {
		t.Fatalf("expected the hosts line twice after a rerun, got %d:\n%s", n, hosts)
	}
}

func TestHostsEnsureDoesNotDuplicate(t *testing.T) {
	f := freshHost()
	f.SetFile(render.HostsPath, "127.0.0.1 localhost\n127.0.1.1 vm vm.local", 0644)
	a := answers(t)
	if _, _, err := run(t, f, prompt.NewStatic(a), Settings{HostsEntry: HostsEnsure}); err != nil {
		t.Fatalf("run: %v", err)
	}
	hosts, _ := f.File(render.HostsPath)
	if hosts != "127.0.0.1 localhost\n127.0.1.1 vm vm.local" {
		t.Fatalf("hosts changed: %q", hosts)
	}
}

func TestCommandFailurePropagatesExitCode(t *testing.T) {
	f := freshHost()
	f.On("apt-get update", targettest.Reply{Code: 100, Output: "E: Could not get lock\n"})
	res, _, err := run(t, f, prompt.NewStatic(answers(t)), Settings{})
	var re *RunError
	if !errors.As(err, &re) || re.Step != StepPackages {
		t.Fatalf("expected failure in %s, got %v", StepPackages, err)
	}
	if code := ExitCode(err); code != 100 {
		t.Fatalf("exit code %d, want 100", code)
	}
	if f.Ran("apt-get -y") {
		t.Fatalf("upgrade ran after update failed")
	}
	if last := res[len(res)-1]; last.Status != api.StepFailed || last.Err == nil {
		t.Fatalf("last result %+v", last)
	}
}

func TestDockerScriptRemovedOnFailure(t *testing.T) {
	f := freshHost()
	f.On("sh /tmp/get-docker.sh", targettest.Reply{Code: 2})
	_, _, err := run(t, f, prompt.NewStatic(answers(t)), Settings{})
	if ExitCode(err) != 2 {
		t.Fatalf("exit code %d, want 2 (err %v)", ExitCode(err), err)
	}
	if !f.Ran("rm -f /tmp/get-docker.sh") {
		t.Fatalf("install script not removed")
	}
}

func TestInvalidSSHDConfigRestored(t *testing.T) {
	f := freshHost()
	f.SetFile(render.SSHDConfigPath, "Port 22\nPermitRootLogin yes\n", 0644)
	f.On("mkdir -p /run/sshd && sshd -t", targettest.Reply{Code: 255, Output: "bad configuration\n"})
	_, _, err := run(t, f, prompt.NewStatic(answers(t)), Settings{})
	var re *RunError
	if !errors.As(err, &re) || re.Step != StepSSHD {
		t.Fatalf("expected failure in %s, got %v", StepSSHD, err)
	}
	if got, _ := f.File(render.SSHDConfigPath); got != "Port 22\nPermitRootLogin yes\n" {
		t.Fatalf("sshd_config not restored: %q", got)
	}
	if f.Ran("systemctl restart ssh") {
		t.Fatalf("daemon restarted with an invalid config")
	}
}

func TestRejectedSSHDConfigRemovedWithoutPrevious(t *testing.T) {
	f := freshHost()
	f.On("mkdir -p /run/sshd && sshd -t", targettest.Reply{Code: 255, Output: "bad configuration\n"})
	_, _, err := run(t, f, prompt.NewStatic(answers(t)), Settings{})
	var re *RunError
	if !errors.As(err, &re) || re.Step != StepSSHD {
		t.Fatalf("expected failure in %s, got %v", StepSSHD, err)
	}
	if !f.Ran("rm -f " + render.SSHDConfigPath) {
		t.Fatalf("rejected sshd_config not removed; ran %v", f.Scripts())
	}
}

func TestSSHDRestartFailureIsFatal(t *testing.T) {
	f := freshHost()
	f.On("systemctl restart ssh", targettest.Reply{Code: 5})
	_, _, err := run(t, f, prompt.NewStatic(answers(t)), Settings{})
	if ExitCode(err) != 5 {
		t.Fatalf("exit code %d, want 5 (err %v)", ExitCode(err), err)
	}
	if f.Ran("ufw") {
		t.Fatalf("firewall configured after the daemon failed to restart")
	}
}

func TestMOTDCleanupFailuresAreWarnings(t *testing.T) {
	f := freshHost()
	f.On("systemctl disable --now motd-news", targettest.Reply{Code: 1, Output: "Unit motd-news.timer does not exist\n"})
	res, _, err := run(t, f, prompt.NewStatic(answers(t)), Settings{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, r := range res {
		if r.Step == StepMOTD && r.Status != api.StepWarned {
			t.Fatalf("motd status %s", r.Status)
		}
	}
	if _, ok := f.File(render.MOTDHeaderPath); !ok {
		t.Fatalf("banner not installed")
	}
}

func TestCompletionFallsBackWithoutPublicIP(t *testing.T) {
	f := freshHost()
	f.On("curl -fsS --max-time 5", targettest.Reply{Code: 28})
	res, env, err := run(t, f, prompt.NewStatic(answers(t)), Settings{})
	if err != nil {
		t.Fatalf("completion failure must not fail the run: %v", err)
	}
	if last := res[len(res)-1]; last.Status != api.StepWarned {
		t.Fatalf("completion status %s", last.Status)
	}
	if got := env.Out.(*bytes.Buffer).String(); !strings.Contains(got, "ssh admin@<server-ip>") {
		t.Fatalf("fallback hint missing:\n%s", got)
	}
}

func TestNonCriticalErrorIsWarning(t *testing.T) {
	steps := []Step{
		{Name: "a", Apply: func(context.Context, *Env) (api.StepStatus, string, error) {
			return "", "", errors.New("flaky")
		}},
		{Name: "b", Critical: true, Apply: func(context.Context, *Env) (api.StepStatus, string, error) {
			return "", "", nil
		}},
	}
	var seen []Result
	res, err := NewRunner(steps, func(r Result) { seen = append(seen, r) }).Run(context.Background(), &Env{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res[0].Status != api.StepWarned || res[0].Message != "flaky" || res[1].Status != api.StepApplied {
		t.Fatalf("unexpected results %+v", res)
	}
	if len(seen) != 2 {
		t.Fatalf("observer saw %d results", len(seen))
	}
}

func TestCanceledRunStopsBetweenSteps(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ran := 0
	steps := []Step{
		{Name: "first", Critical: true, Apply: func(context.Context, *Env) (api.StepStatus, string, error) {
			ran++
			cancel()
			return api.StepApplied, "", nil
		}},
		{Name: "second", Critical: true, Apply: func(context.Context, *Env) (api.StepStatus, string, error) {
			ran++
			return api.StepApplied, "", nil
		}},
	}
	_, err := NewRunner(steps).Run(ctx, &Env{})
	var re *RunError
	if !errors.As(err, &re) || re.Step != "second" {
		t.Fatalf("expected interruption before second, got %v", err)
	}
	if ran != 1 {
		t.Fatalf("ran %d steps", ran)
	}
	if ExitCode(err) != 130 {
		t.Fatalf("exit code %d, want 130", ExitCode(err))
	}
}

func TestInvalidAnswerIsPrecondition(t *testing.T) {
	f := freshHost()
	a := answers(t)
	a.Hostname = "bad_host;reboot"
	_, _, err := run(t, f, prompt.NewStatic(a), Settings{})
	if !errors.Is(err, ErrInvalidAnswer) || ExitCode(err) != 1 {
		t.Fatalf("expected invalid answer, got %v", err)
	}
	if f.Ran("hostnamectl") {
		t.Fatalf("hostname applied despite invalid answer")
	}
}

func TestExitCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{ErrNotRoot, 1},
		{&RunError{Step: "x", Err: &target.ExitError{Code: 42}}, 42},
		{&RunError{Step: "x", Err: &target.ExitError{Code: -1}}, 1},
		{errors.New("dial tcp: refused"), 1},
	}
	for _, c := range cases {
		if got := ExitCode(c.err); got != c.want {
			t.Errorf("ExitCode(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}
