package provision

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/3cpo-dev/hostinit/internal/render"
	"github.com/3cpo-dev/hostinit/internal/target"
	"github.com/3cpo-dev/hostinit/pkg/api"
)

// hardenSSHD replaces sshd_config, validates it with sshd -t and restores
// the previous file when validation fails.
func hardenSSHD(ctx context.Context, env *Env) (api.StepStatus, string, error) {
	if env.Username == "" {
		return "", "", fmt.Errorf("user not resolved; the %s step must run first", StepUser)
	}
	f, err := render.SSHDConfig(render.SSHDParams{Port: env.Settings.SSHPort, AllowUsers: env.Username})
	if err != nil {
		return "", "", err
	}
	prev, prevMode, err := env.Target.ReadFile(ctx, f.Path)
	hadPrev := err == nil
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", "", fmt.Errorf("read %s: %w", f.Path, err)
	}

	changed, err := render.Apply(ctx, env.Target, f)
	if err != nil {
		return "", "", fmt.Errorf("write sshd_config: %w", err)
	}
	if _, err := env.run(ctx, "mkdir -p /run/sshd && sshd -t"); err != nil {
		switch {
		case changed && hadPrev:
			if rbErr := env.Target.WriteFile(ctx, f.Path, prev, prevMode); rbErr != nil {
				log.Error().Err(rbErr).Str("path", f.Path).Msg("restore previous sshd_config")
			} else {
				log.Warn().Str("path", f.Path).Msg("restored previous sshd_config")
			}
		case changed:
			// Nothing to restore; leave no invalid config behind.
			if _, rmErr := env.run(context.WithoutCancel(ctx), "rm -f %s", target.Word(f.Path)); rmErr != nil {
				log.Error().Err(rmErr).Str("path", f.Path).Msg("remove rejected sshd_config")
			} else {
				log.Warn().Str("path", f.Path).Msg("removed rejected sshd_config")
			}
		}
		return "", "", fmt.Errorf("validate sshd_config: %w", err)
	}
	if _, err := env.run(ctx, "systemctl restart ssh || systemctl restart sshd"); err != nil {
		return "", "", fmt.Errorf("restart ssh daemon: %w", err)
	}
	return api.StepApplied, fmt.Sprintf("key-only login, AllowUsers %s", env.Username), nil
}

// FirewallCommands is the ufw sequence for ports, in execution order.
func FirewallCommands(ports []int) []string {
	cmds := []string{
		"ufw --force reset",
		"ufw default deny incoming",
		"ufw default allow outgoing",
	}
	for _, p := range ports {
		cmds = append(cmds, fmt.Sprintf("ufw allow %d/tcp", p))
	}
	return append(cmds, "ufw --force enable")
}

// configureFirewall resets every existing rule.
func configureFirewall(ctx context.Context, env *Env) (api.StepStatus, string, error) {
	for _, c := range FirewallCommands(env.Settings.FirewallPorts) {
		if _, err := env.run(ctx, "%s", c); err != nil {
			return "", "", fmt.Errorf("%s: %w", c, err)
		}
	}
	out, err := env.run(ctx, "ufw status verbose")
	if err != nil {
		return "", "", fmt.Errorf("ufw status: %w", err)
	}
	env.printf("%s\n", strings.TrimRight(out, "\n"))
	ports := make([]string, len(env.Settings.FirewallPorts))
	for i, p := range env.Settings.FirewallPorts {
		ports[i] = fmt.Sprint(p)
	}
	return api.StepApplied, "allowing tcp " + strings.Join(ports, ","), nil
}

func configureProfile(ctx context.Context, env *Env) (api.StepStatus, string, error) {
	if env.Home == "" {
		return "", "", fmt.Errorf("user not resolved; the %s step must run first", StepUser)
	}
	f := render.Bashrc(env.Home, env.Username, env.Group)
	changed, err := render.Apply(ctx, env.Target, f)
	if err != nil {
		return "", "", fmt.Errorf("write .bashrc: %w", err)
	}
	if !changed {
		return api.StepApplied, f.Path + " already up to date", nil
	}
	return api.StepApplied, f.Path + " replaced", nil
}

// motdCleanup lists removals whose failure is only a warning; on a rerun
// most of them have nothing left to do.
var motdCleanup = []string{
	"find " + render.MOTDDir + " -mindepth 1 ! -name 00-header -exec rm -rf {} +",
	"rm -f /etc/motd",
	"systemctl disable --now motd-news.timer",
	"systemctl disable --now motd-news.service",
	"if [ -f /etc/default/motd-news ]; then sed -i 's/^ENABLED=.*/ENABLED=0/' /etc/default/motd-news; fi",
}

func configureMOTD(ctx context.Context, env *Env) (api.StepStatus, string, error) {
	var warned []string
	for _, c := range motdCleanup {
		if _, err := env.run(ctx, "%s", c); err != nil {
			if ctx.Err() != nil {
				return "", "", ctx.Err()
			}
			log.Warn().Err(err).Str("step", StepMOTD).Msg("ignored")
			warned = append(warned, c)
		}
	}
	if _, err := env.run(ctx, "mkdir -p %s", render.MOTDDir); err != nil {
		return "", "", fmt.Errorf("create %s: %w", render.MOTDDir, err)
	}
	if _, err := render.Apply(ctx, env.Target, render.MOTDHeader()); err != nil {
		return "", "", fmt.Errorf("write motd header: %w", err)
	}
	if len(warned) > 0 {
		return api.StepWarned, fmt.Sprintf("banner installed, %d cleanup command(s) failed", len(warned)), nil
	}
	return api.StepApplied, "banner installed", nil
}

// ipPlaceholder is printed when the public address cannot be discovered.
const ipPlaceholder = "<server-ip>"

func complete(ctx context.Context, env *Env) (api.StepStatus, string, error) {
	status := api.StepApplied
	ip, err := publicIP(ctx, env)
	if err != nil {
		log.Warn().Err(err).Msg("public IP lookup failed")
		ip, status = ipPlaceholder, api.StepWarned
	}
	env.PublicIP = ip
	hint := fmt.Sprintf("ssh %s@%s", env.Username, ip)
	env.printf("Provisioning complete. Reconnect with:\n  %s\n", hint)
	return status, hint, nil
}

func publicIP(ctx context.Context, env *Env) (string, error) {
	out, err := env.run(ctx, "curl -fsS --max-time 5 %s", target.Word(env.Settings.PublicIPURL))
	if err != nil {
		return "", err
	}
	ip := strings.TrimSpace(out)
	if net.ParseIP(ip) == nil {
		return "", fmt.Errorf("unexpected reply %q", ip)
	}
	return ip, nil
}
