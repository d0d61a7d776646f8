package ssh

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	xssh "golang.org/x/crypto/ssh"
)

type Dialer interface {
	DialContext(ctx context.Context, network, addr string) (net.Conn, error)
}

type NetDialer struct{ Timeout time.Duration }

func (d NetDialer) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	nd := &net.Dialer{Timeout: d.Timeout}
	return nd.DialContext(ctx, network, addr)
}

type Client struct {
	Addr       string
	User       string
	Signer     xssh.Signer
	KnownHosts xssh.HostKeyCallback
	Timeout    time.Duration
	Retries    int
	Backoff    time.Duration
	Dialer     Dialer
}

func (c *Client) makeConfig() (*xssh.ClientConfig, error) {
	if c.Signer == nil {
		return nil, errors.New("ssh: signer required")
	}
	if c.KnownHosts == nil {
		return nil, errors.New("ssh: host key callback required")
	}
	return &xssh.ClientConfig{
		User:            c.User,
		Auth:            []xssh.AuthMethod{xssh.PublicKeys(c.Signer)},
		HostKeyCallback: c.KnownHosts,
		Timeout:         c.Timeout,
	}, nil
}

// Dial establishes an SSH connection, retrying with linear backoff.
// Host key mismatches are not retried. The caller closes the client.
func Dial(ctx context.Context, c *Client) (*xssh.Client, error) {
	cfg, err := c.makeConfig()
	if err != nil {
		return nil, err
	}
	dialer := c.Dialer
	if dialer == nil {
		dialer = NetDialer{Timeout: c.Timeout}
	}
	retries := c.Retries
	if retries < 0 {
		retries = 0
	}
	backoff := c.Backoff
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		cli, err := dialOnce(ctx, dialer, c.Addr, cfg)
		if err == nil {
			return cli, nil
		}
		lastErr = err
		if isHostKeyError(err) {
			return nil, err
		}
		log.Debug().Err(err).Str("addr", c.Addr).Int("attempt", attempt+1).Msg("ssh dial failed")
		if attempt < retries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff * time.Duration(attempt+1)):
			}
		}
	}
	return nil, fmt.Errorf("dial %s: %w", c.Addr, lastErr)
}

func dialOnce(ctx context.Context, d Dialer, addr string, cfg *xssh.ClientConfig) (*xssh.Client, error) {
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	type res struct {
		cli *xssh.Client
		err error
	}
	ch := make(chan res, 1)
	go func() {
		cc, chans, reqs, err := xssh.NewClientConn(conn, addr, cfg)
		if err != nil {
			ch <- res{err: err}
			return
		}
		ch <- res{cli: xssh.NewClient(cc, chans, reqs)}
	}()
	select {
	case <-ctx.Done():
		_ = conn.Close()
		return nil, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			_ = conn.Close()
		}
		return r.cli, r.err
	}
}

// Exec runs command in a new session. Output goes to out, stdin is optional.
// A non-zero exit is returned as *xssh.ExitError.
func Exec(ctx context.Context, cli *xssh.Client, command string, stdin io.Reader, out io.Writer) error {
	session, err := cli.NewSession()
	if err != nil {
		return fmt.Errorf("new session: %w", err)
	}
	defer session.Close()
	session.Stdin = stdin
	if out != nil {
		// stdout and stderr are copied by separate goroutines.
		w := &lockedWriter{w: out}
		session.Stdout = w
		session.Stderr = w
	}

	done := make(chan error, 1)
	go func() { done <- session.Run(command) }()
	select {
	case <-ctx.Done():
		_ = session.Signal(xssh.SIGKILL)
		_ = session.Close()
		// Run still owns out until it returns.
		<-done
		return ctx.Err()
	case err := <-done:
		return err
	}
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
