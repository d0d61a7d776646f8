// Package targettest provides an in-memory target that records commands.
package targettest

import (
	"context"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/3cpo-dev/hostinit/internal/target"
)

// Reply is the scripted result of a command.
type Reply struct {
	Output string
	Code   int
	Err    error
}

type handler struct {
	prefix string
	reply  Reply
}

type file struct {
	data []byte
	mode fs.FileMode
}

// Fake is a target.Target whose commands succeed with empty output unless
// a reply was registered with On. Files live in memory.
type Fake struct {
	mu       sync.Mutex
	files    map[string]file
	commands []target.Command
	handlers []handler
	// WriteErr, when set, fails every WriteFile call.
	WriteErr error
}

func New() *Fake {
	return &Fake{files: map[string]file{}}
}

// On scripts the reply for commands whose script starts with prefix.
// Later registrations take precedence.
func (f *Fake) On(prefix string, r Reply) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers = append(f.handlers, handler{prefix: prefix, reply: r})
	return f
}

func (f *Fake) Name() string { return "fake" }

func (f *Fake) Run(ctx context.Context, cmd target.Command) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f.mu.Lock()
	f.commands = append(f.commands, cmd)
	var r Reply
	for i := len(f.handlers) - 1; i >= 0; i-- {
		if strings.HasPrefix(cmd.Script, f.handlers[i].prefix) {
			r = f.handlers[i].reply
			break
		}
	}
	f.mu.Unlock()

	if cmd.Stdout != nil && r.Output != "" {
		_, _ = fmt.Fprint(cmd.Stdout, r.Output)
	}
	if r.Err != nil {
		return r.Output, r.Err
	}
	if r.Code != 0 {
		return r.Output, &target.ExitError{Command: cmd.Script, Code: r.Code, Output: r.Output}
	}
	return r.Output, nil
}

func (f *Fake) ReadFile(_ context.Context, path string) ([]byte, fs.FileMode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fl, ok := f.files[path]
	if !ok {
		return nil, 0, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	return append([]byte(nil), fl.data...), fl.mode, nil
}

func (f *Fake) WriteFile(_ context.Context, path string, data []byte, mode fs.FileMode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.WriteErr != nil {
		return f.WriteErr
	}
	f.files[path] = file{data: append([]byte(nil), data...), mode: mode.Perm()}
	return nil
}

func (f *Fake) Close() error { return nil }

// SetFile seeds a file.
func (f *Fake) SetFile(path, content string, mode fs.FileMode) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[path] = file{data: []byte(content), mode: mode}
}

// File returns the content of path and whether it exists.
func (f *Fake) File(path string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fl, ok := f.files[path]
	return string(fl.data), ok
}

// Mode returns the permission bits of path.
func (f *Fake) Mode(path string) fs.FileMode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.files[path].mode
}

// Commands returns every command run so far.
func (f *Fake) Commands() []target.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]target.Command(nil), f.commands...)
}

// Scripts returns the scripts of every command run so far.
func (f *Fake) Scripts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.commands))
	for i, c := range f.commands {
		out[i] = c.Script
	}
	return out
}

// Ran reports whether any command script starts with prefix.
func (f *Fake) Ran(prefix string) bool {
	for _, s := range f.Scripts() {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}

var _ target.Target = (*Fake)(nil)
