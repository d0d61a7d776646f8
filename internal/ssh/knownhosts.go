package ssh

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	xssh "golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// EnsureKnownHostsFile makes sure the directory exists and the file is created.
func EnsureKnownHostsFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("mkdir known_hosts dir: %w", err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.WriteFile(path, []byte(""), 0600); err != nil {
			return fmt.Errorf("create known_hosts: %w", err)
		}
	}
	return nil
}

// AppendKnownHost appends a known_hosts entry for host.
func AppendKnownHost(path, host string, key xssh.PublicKey) error {
	if err := EnsureKnownHostsFile(path); err != nil {
		return err
	}
	line := knownhosts.Line([]string{host}, key)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("open known_hosts: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("write known_hosts: %w", err)
	}
	return nil
}

// LoadKnownHostsCallback returns a strict host key callback using the given file.
func LoadKnownHostsCallback(path string) (xssh.HostKeyCallback, error) {
	if err := EnsureKnownHostsFile(path); err != nil {
		return nil, err
	}
	return knownhosts.New(path)
}

// TrustOnFirstUse behaves like LoadKnownHostsCallback, except that a host
// with no entry at all is accepted and recorded. A changed key for a known
// host is still rejected.
func TrustOnFirstUse(path string) (xssh.HostKeyCallback, error) {
	strict, err := LoadKnownHostsCallback(path)
	if err != nil {
		return nil, err
	}
	return func(hostname string, remote net.Addr, key xssh.PublicKey) error {
		err := strict(hostname, remote, key)
		var ke *knownhosts.KeyError
		if errors.As(err, &ke) && len(ke.Want) == 0 {
			log.Warn().Str("host", hostname).Str("fingerprint", xssh.FingerprintSHA256(key)).Msg("adding new host key to known_hosts")
			return AppendKnownHost(path, hostname, key)
		}
		return err
	}, nil
}

func isHostKeyError(err error) bool {
	var ke *knownhosts.KeyError
	var re *knownhosts.RevokedError
	return errors.As(err, &ke) || errors.As(err, &re)
}
