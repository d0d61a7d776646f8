package provision

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/3cpo-dev/hostinit/internal/target"
	"github.com/3cpo-dev/hostinit/pkg/api"
)

const dockerScriptPath = "/tmp/get-docker.sh"

func preflight(ctx context.Context, env *Env) (api.StepStatus, string, error) {
	out, err := env.run(ctx, "id -u")
	if err != nil {
		return "", "", fmt.Errorf("check uid: %w", err)
	}
	if uid := strings.TrimSpace(out); uid != "0" {
		return "", "", fmt.Errorf("%w on %s (uid %s)", ErrNotRoot, env.Target.Name(), uid)
	}
	return api.StepApplied, "running as root on " + env.Target.Name(), nil
}

func upgradePackages(ctx context.Context, env *Env) (api.StepStatus, string, error) {
	if _, err := env.apt(ctx, "update"); err != nil {
		return "", "", fmt.Errorf("apt-get update: %w", err)
	}
	if _, err := env.apt(ctx, "-y -o Dpkg::Options::=--force-confold upgrade"); err != nil {
		return "", "", fmt.Errorf("apt-get upgrade: %w", err)
	}
	return api.StepApplied, "packages upgraded", nil
}

// installDocker runs the upstream convenience script unless docker is
// already on PATH.
func installDocker(ctx context.Context, env *Env) (api.StepStatus, string, error) {
	present, err := commandExists(ctx, env.Target, "docker")
	if err != nil {
		return "", "", err
	}
	if present {
		log.Warn().Str("step", StepDocker).Msg("docker already installed, skipping")
		return api.StepSkipped, "docker already installed", nil
	}

	defer func() {
		// The script is removed even when the install failed.
		if _, err := env.run(context.WithoutCancel(ctx), "rm -f %s", dockerScriptPath); err != nil {
			log.Warn().Err(err).Msg("remove docker install script")
		}
	}()
	if _, err := env.stream(ctx, "curl -fsSL %s -o %s", target.Word(env.Settings.DockerInstallURL), dockerScriptPath); err != nil {
		return "", "", fmt.Errorf("download docker install script: %w", err)
	}
	if _, err := env.stream(ctx, "sh %s", dockerScriptPath); err != nil {
		return "", "", fmt.Errorf("run docker install script: %w", err)
	}
	return api.StepApplied, "docker installed", nil
}

func installBaseUtils(ctx context.Context, env *Env) (api.StepStatus, string, error) {
	pkgs := make([]string, len(env.Settings.Packages))
	for i, p := range env.Settings.Packages {
		pkgs[i] = target.Word(p)
	}
	if _, err := env.apt(ctx, "install -y %s", strings.Join(pkgs, " ")); err != nil {
		return "", "", fmt.Errorf("apt-get install: %w", err)
	}
	return api.StepApplied, fmt.Sprintf("%d packages installed", len(pkgs)), nil
}

// commandExists probes PATH on the target. A non-zero exit means absent;
// any other error is returned.
func commandExists(ctx context.Context, t target.Target, name string) (bool, error) {
	_, err := t.Run(ctx, target.Sh("command -v %s", target.Word(name)))
	if err == nil {
		return true, nil
	}
	var ee *target.ExitError
	if errors.As(err, &ee) {
		return false, nil
	}
	return false, fmt.Errorf("probe %s: %w", name, err)
}
