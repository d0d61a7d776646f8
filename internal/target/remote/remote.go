package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/sftp"
	"github.com/rs/zerolog/log"
	xssh "golang.org/x/crypto/ssh"

	gssh "github.com/3cpo-dev/hostinit/internal/ssh"
	"github.com/3cpo-dev/hostinit/internal/target"
)

const (
	defaultPort    = 22
	defaultUser    = "root"
	defaultTimeout = 15 * time.Second
)

// Target provisions a host over one SSH connection. Commands run in
// separate sessions; files travel over a shared SFTP channel.
type Target struct {
	host string
	cli  *xssh.Client

	mu sync.Mutex
	sf *sftp.Client
}

// Open satisfies target.Factory.
func Open(opts target.Options) (target.Target, error) {
	return Connect(context.Background(), opts)
}

// Connect dials the host described by opts.
func Connect(ctx context.Context, opts target.Options) (*Target, error) {
	if opts.Host == "" {
		return nil, errors.New("ssh target: host required")
	}
	if opts.KeyPath == "" {
		return nil, errors.New("ssh target: identity key path required")
	}
	if opts.KnownHosts == "" {
		return nil, errors.New("ssh target: known_hosts path required")
	}
	port := opts.Port
	if port == 0 {
		port = defaultPort
	}
	user := opts.User
	if user == "" {
		user = defaultUser
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	signer, err := gssh.LoadPrivateKeySigner(opts.KeyPath)
	if err != nil {
		return nil, err
	}
	var kh xssh.HostKeyCallback
	if opts.AcceptNewHostKey {
		kh, err = gssh.TrustOnFirstUse(opts.KnownHosts)
	} else {
		kh, err = gssh.LoadKnownHostsCallback(opts.KnownHosts)
	}
	if err != nil {
		return nil, fmt.Errorf("load known hosts: %w", err)
	}
	c := &gssh.Client{
		Addr:       net.JoinHostPort(opts.Host, strconv.Itoa(port)),
		User:       user,
		Signer:     signer,
		KnownHosts: kh,
		Timeout:    timeout,
		Retries:    opts.Retries,
		Backoff:    500 * time.Millisecond,
	}
	cli, err := gssh.Dial(ctx, c)
	if err != nil {
		return nil, err
	}
	return New(opts.Host, cli), nil
}

// New wraps an established SSH client.
func New(host string, cli *xssh.Client) *Target {
	return &Target{host: host, cli: cli}
}

func (t *Target) Name() string { return "ssh:" + t.host }

func (t *Target) Run(ctx context.Context, cmd target.Command) (string, error) {
	var buf bytes.Buffer
	var w io.Writer = &buf
	if cmd.Stdout != nil {
		w = io.MultiWriter(&buf, cmd.Stdout)
	}
	var stdin io.Reader
	if cmd.Stdin != "" {
		stdin = strings.NewReader(cmd.Stdin)
	}
	script := cmd.EnvPrefix() + cmd.Script
	log.Debug().Str("target", t.Name()).Str("cmd", cmd.Script).Msg("run")
	err := gssh.Exec(ctx, t.cli, "bash -c "+target.Quote(script), stdin, w)
	out := buf.String()
	if err != nil {
		var ee *xssh.ExitError
		if errors.As(err, &ee) {
			return out, &target.ExitError{Command: cmd.Script, Code: ee.ExitStatus(), Output: out}
		}
		return out, fmt.Errorf("run %q on %s: %w", cmd.Script, t.host, err)
	}
	return out, nil
}

func (t *Target) sftp() (*sftp.Client, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sf != nil {
		return t.sf, nil
	}
	sf, err := sftp.NewClient(t.cli)
	if err != nil {
		return nil, fmt.Errorf("sftp client: %w", err)
	}
	t.sf = sf
	return sf, nil
}

func (t *Target) ReadFile(_ context.Context, path string) ([]byte, fs.FileMode, error) {
	sf, err := t.sftp()
	if err != nil {
		return nil, 0, err
	}
	return gssh.ReadFile(sf, path)
}

// WriteFile uploads data atomically and verifies the stored checksum.
func (t *Target) WriteFile(ctx context.Context, path string, data []byte, mode fs.FileMode) error {
	sf, err := t.sftp()
	if err != nil {
		return err
	}
	if err := gssh.WriteFileAtomic(sf, path, data, mode); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return t.verifyChecksum(ctx, path, gssh.Checksum(data))
}

func (t *Target) verifyChecksum(ctx context.Context, path, expected string) error {
	out, err := t.Run(ctx, target.Sh("sha256sum %s | cut -d' ' -f1", target.Quote(path)))
	if err != nil {
		return fmt.Errorf("calculate remote checksum: %w", err)
	}
	if got := strings.TrimSpace(out); got != expected {
		return fmt.Errorf("checksum mismatch for %s: expected %s, got %s", path, expected, got)
	}
	return nil
}

func (t *Target) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sf != nil {
		_ = t.sf.Close()
		t.sf = nil
	}
	return t.cli.Close()
}
