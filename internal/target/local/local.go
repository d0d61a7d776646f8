package local

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/3cpo-dev/hostinit/internal/target"
)

// Target runs commands and file operations on the machine hostinit runs on.
type Target struct {
	shell string
}

func New() *Target { return &Target{shell: "bash"} }

// Open satisfies target.Factory; local targets take no options.
func Open(_ target.Options) (target.Target, error) { return New(), nil }

func (t *Target) Name() string { return "local" }

func (t *Target) Run(ctx context.Context, cmd target.Command) (string, error) {
	c := exec.CommandContext(ctx, t.shell, "-c", cmd.Script)
	c.Env = os.Environ()
	for k, v := range cmd.Env {
		c.Env = append(c.Env, k+"="+v)
	}
	if cmd.Stdin != "" {
		c.Stdin = strings.NewReader(cmd.Stdin)
	}
	var buf bytes.Buffer
	var w io.Writer = &buf
	if cmd.Stdout != nil {
		w = io.MultiWriter(&buf, cmd.Stdout)
	}
	c.Stdout = w
	c.Stderr = w

	log.Debug().Str("target", t.Name()).Str("cmd", cmd.Script).Msg("run")
	err := c.Run()
	out := buf.String()
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) && ctx.Err() == nil {
			return out, &target.ExitError{Command: cmd.Script, Code: ee.ExitCode(), Output: out}
		}
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		return out, fmt.Errorf("run %q: %w", cmd.Script, err)
	}
	return out, nil
}

func (t *Target) ReadFile(_ context.Context, path string) ([]byte, fs.FileMode, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, 0, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, err
	}
	return data, st.Mode().Perm(), nil
}

// WriteFile writes to a temporary file in the destination directory and
// renames it over path.
func (t *Target) WriteFile(_ context.Context, path string, data []byte, mode fs.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".hostinit-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

func (t *Target) Close() error { return nil }
