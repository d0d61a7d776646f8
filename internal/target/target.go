package target

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"regexp"
	"sort"
	"strings"
)

// Command is a shell script executed by a target through bash -c.
type Command struct {
	Script string
	// Stdin is fed to the command. It never appears in logs or errors.
	Stdin string
	Env   map[string]string
	// Stdout, when set, receives the combined output while the command runs.
	Stdout io.Writer
}

// Sh builds a Command from a format string. Arguments are not quoted;
// use Quote for anything that did not come from a constant.
func Sh(format string, args ...any) Command {
	return Command{Script: fmt.Sprintf(format, args...)}
}

// EnvPrefix renders Env as a sorted list of shell assignments.
func (c Command) EnvPrefix() string {
	if len(c.Env) == 0 {
		return ""
	}
	keys := make([]string, 0, len(c.Env))
	for k := range c.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "export %s=%s; ", k, Quote(c.Env[k]))
	}
	return b.String()
}

// Target is a host being provisioned.
type Target interface {
	Name() string
	// Run executes cmd and returns its combined output. A non-zero exit
	// status is reported as *ExitError.
	Run(ctx context.Context, cmd Command) (string, error)
	// ReadFile returns the content and permission bits of path. A missing
	// file yields an error matching fs.ErrNotExist.
	ReadFile(ctx context.Context, path string) ([]byte, fs.FileMode, error)
	// WriteFile atomically replaces path with data.
	WriteFile(ctx context.Context, path string, data []byte, mode fs.FileMode) error
	Close() error
}

// ExitError reports a command that ran but exited non-zero.
type ExitError struct {
	Command string
	Code    int
	Output  string
}

func (e *ExitError) Error() string {
	out := strings.TrimSpace(e.Output)
	if out == "" {
		return fmt.Sprintf("command %q exited with status %d", e.Command, e.Code)
	}
	return fmt.Sprintf("command %q exited with status %d: %s", e.Command, e.Code, out)
}

// Quote returns s as a single-quoted shell word.
func Quote(s string) string {
	if s == "" {
		return "''"
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

var plainWord = regexp.MustCompile(`^[A-Za-z0-9@%+=:,./_-]+$`)

// Word is Quote for values that need it; plain words are returned as is.
func Word(s string) string {
	if plainWord.MatchString(s) {
		return s
	}
	return Quote(s)
}
