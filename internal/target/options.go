package target

import "time"

// Options selects and configures a target.
type Options struct {
	Kind             string
	Host             string
	Port             int
	User             string
	KeyPath          string
	KnownHosts       string
	AcceptNewHostKey bool
	Timeout          time.Duration
	Retries          int
}

const (
	KindLocal = "local"
	KindSSH   = "ssh"
)
