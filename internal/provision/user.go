package provision

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/3cpo-dev/hostinit/internal/prompt"
	"github.com/3cpo-dev/hostinit/internal/render"
	gssh "github.com/3cpo-dev/hostinit/internal/ssh"
	"github.com/3cpo-dev/hostinit/internal/target"
	"github.com/3cpo-dev/hostinit/pkg/api"
)

const hostsAddr = "127.0.1.1"

func configureIdentity(ctx context.Context, env *Env) (api.StepStatus, string, error) {
	hostname, err := env.Source.Hostname(ctx, api.DefaultHostname)
	if err != nil {
		return "", "", err
	}
	if err := prompt.ValidateHostname(hostname); err != nil {
		return "", "", fmt.Errorf("%w: hostname %q: %v", ErrInvalidAnswer, hostname, err)
	}
	tz, err := env.Source.Timezone(ctx, api.DefaultTimezone)
	if err != nil {
		return "", "", err
	}
	if err := prompt.ValidateTimezone(tz); err != nil {
		return "", "", fmt.Errorf("%w: timezone %q: %v", ErrInvalidAnswer, tz, err)
	}
	env.Hostname, env.Timezone = hostname, tz

	if _, err := env.run(ctx, "hostnamectl set-hostname %s", target.Word(hostname)); err != nil {
		return "", "", fmt.Errorf("set hostname: %w", err)
	}
	if _, err := env.run(ctx, "timedatectl set-timezone %s", target.Word(tz)); err != nil {
		return "", "", fmt.Errorf("set timezone: %w", err)
	}
	added, err := writeHostsEntry(ctx, env.Target, hostname, env.Settings.HostsEntry)
	if err != nil {
		return "", "", err
	}
	msg := fmt.Sprintf("hostname %s, timezone %s", hostname, tz)
	if !added {
		msg += ", hosts entry already present"
	}
	return api.StepApplied, msg, nil
}

// writeHostsEntry adds "127.0.1.1<TAB>hostname" to /etc/hosts. With
// HostsAppend the line is added on every call.
func writeHostsEntry(ctx context.Context, t target.Target, hostname string, policy HostsPolicy) (bool, error) {
	cur, mode, err := t.ReadFile(ctx, render.HostsPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		mode = 0644
	case err != nil:
		return false, fmt.Errorf("read %s: %w", render.HostsPath, err)
	}
	if policy == HostsEnsure && hasHostsEntry(cur, hostname) {
		return false, nil
	}
	var b bytes.Buffer
	b.Write(cur)
	if len(cur) > 0 && !bytes.HasSuffix(cur, []byte("\n")) {
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "%s\t%s\n", hostsAddr, hostname)
	f := render.File{Path: render.HostsPath, Content: b.Bytes(), Mode: mode, Owner: "root", Group: "root"}
	if _, err := render.Apply(ctx, t, f); err != nil {
		return false, err
	}
	return true, nil
}

func hasHostsEntry(content []byte, hostname string) bool {
	for _, line := range strings.Split(string(content), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 || fields[0] != hostsAddr {
			continue
		}
		for _, name := range fields[1:] {
			if name == hostname {
				return true
			}
		}
	}
	return false
}

// provisionUser creates the admin user unless it exists. An existing
// user is left untouched: no password, group or sudoers change.
func provisionUser(ctx context.Context, env *Env) (api.StepStatus, string, error) {
	username, err := env.Source.Username(ctx, api.DefaultUsername)
	if err != nil {
		return "", "", err
	}
	if err := prompt.ValidateUsername(username); err != nil {
		return "", "", fmt.Errorf("%w: username %q: %v", ErrInvalidAnswer, username, err)
	}
	env.Username = username

	exists, err := userExists(ctx, env.Target, username)
	if err != nil {
		return "", "", err
	}
	status, msg := api.StepSkipped, fmt.Sprintf("user %s already exists, creation skipped", username)
	if exists {
		log.Warn().Str("user", username).Msg("user already exists, leaving password, groups and sudoers unchanged")
	} else {
		if err := createUser(ctx, env, username); err != nil {
			return "", "", err
		}
		env.UserCreated = true
		status, msg = api.StepApplied, fmt.Sprintf("user %s created with sudo and docker access", username)
	}

	if env.Home, err = lookupHome(ctx, env.Target, username); err != nil {
		return "", "", err
	}
	out, err := env.run(ctx, "id -gn %s", target.Word(username))
	if err != nil {
		return "", "", fmt.Errorf("primary group of %s: %w", username, err)
	}
	env.Group = strings.TrimSpace(out)
	return status, msg, nil
}

func createUser(ctx context.Context, env *Env, username string) error {
	password, err := env.Source.Password(ctx, username)
	if err != nil {
		return err
	}
	if password == "" {
		return ErrEmptyPassword
	}
	if err := prompt.ValidatePassword(password); err != nil {
		return fmt.Errorf("%w: password: %v", ErrInvalidAnswer, err)
	}

	u := target.Word(username)
	if _, err := env.run(ctx, "useradd -m -s /bin/bash %s", u); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	// The password only travels on stdin.
	if _, err := env.Target.Run(ctx, target.Command{Script: "chpasswd", Stdin: username + ":" + password + "\n"}); err != nil {
		return fmt.Errorf("set password for %s: %w", username, redact(err, password))
	}
	if _, err := env.run(ctx, "groupadd -f docker"); err != nil {
		return fmt.Errorf("ensure docker group: %w", err)
	}
	if _, err := env.run(ctx, "usermod -aG sudo,docker %s", u); err != nil {
		return fmt.Errorf("add %s to sudo,docker: %w", username, err)
	}
	return installSudoers(ctx, env.Target, username)
}

// installSudoers writes the NOPASSWD fragment and removes it again if
// visudo rejects it.
func installSudoers(ctx context.Context, t target.Target, username string) error {
	f, err := render.Sudoers(username)
	if err != nil {
		return err
	}
	if _, err := render.Apply(ctx, t, f); err != nil {
		return fmt.Errorf("write sudoers: %w", err)
	}
	if _, err := t.Run(ctx, target.Sh("visudo -cf %s", target.Word(f.Path))); err != nil {
		if _, rmErr := t.Run(ctx, target.Sh("rm -f %s", target.Word(f.Path))); rmErr != nil {
			log.Warn().Err(rmErr).Str("path", f.Path).Msg("remove rejected sudoers fragment")
		}
		return fmt.Errorf("validate sudoers: %w", err)
	}
	return nil
}

func userExists(ctx context.Context, t target.Target, username string) (bool, error) {
	_, err := t.Run(ctx, target.Sh("id -u %s", target.Word(username)))
	if err == nil {
		return true, nil
	}
	var ee *target.ExitError
	if errors.As(err, &ee) {
		return false, nil
	}
	return false, fmt.Errorf("look up user %s: %w", username, err)
}

// lookupHome reads the home directory field of the passwd entry.
func lookupHome(ctx context.Context, t target.Target, username string) (string, error) {
	out, err := t.Run(ctx, target.Sh("getent passwd %s", target.Word(username)))
	if err != nil {
		return "", fmt.Errorf("passwd entry of %s: %w", username, err)
	}
	fields := strings.Split(strings.TrimSpace(out), ":")
	if len(fields) < 7 || !path.IsAbs(fields[5]) {
		return "", fmt.Errorf("passwd entry of %s: unexpected format %q", username, strings.TrimSpace(out))
	}
	return fields[5], nil
}

// installSSHKeys replaces authorized_keys of the provisioned user. It also
// runs for users that already existed.
func installSSHKeys(ctx context.Context, env *Env) (api.StepStatus, string, error) {
	if env.Username == "" || env.Home == "" {
		return "", "", fmt.Errorf("user not resolved; the %s step must run first", StepUser)
	}
	raw, err := env.Source.SSHKeys(ctx, env.Username)
	if err != nil {
		return "", "", err
	}
	var keys []string
	for i, k := range raw {
		if strings.TrimSpace(k) == "" {
			continue
		}
		ak, err := gssh.ParseAuthorizedKey(k)
		if err != nil {
			return "", "", fmt.Errorf("%w: key %d: %v", ErrInvalidSSHKey, i+1, err)
		}
		log.Debug().Str("type", ak.Type).Str("fingerprint", ak.Fingerprint).Msg("authorized key")
		keys = append(keys, ak.Line)
	}
	if len(keys) == 0 {
		return "", "", ErrNoSSHKeys
	}

	owner := env.Username + ":" + env.Group
	sshDir := path.Join(env.Home, ".ssh")
	if _, err := env.run(ctx, "mkdir -p %[1]s && chmod 700 %[1]s && chown %[2]s %[1]s", target.Word(sshDir), target.Word(owner)); err != nil {
		return "", "", fmt.Errorf("prepare %s: %w", sshDir, err)
	}
	if _, err := render.Apply(ctx, env.Target, render.AuthorizedKeys(env.Home, env.Username, env.Group, keys)); err != nil {
		return "", "", fmt.Errorf("write authorized_keys: %w", err)
	}
	env.Keys = len(keys)
	return api.StepApplied, fmt.Sprintf("%d key(s) installed for %s", len(keys), env.Username), nil
}

// redact keeps a secret out of command output carried by err.
func redact(err error, secret string) error {
	var ee *target.ExitError
	if secret == "" || !errors.As(err, &ee) {
		return err
	}
	return &target.ExitError{Command: ee.Command, Code: ee.Code, Output: strings.ReplaceAll(ee.Output, secret, "***")}
}
