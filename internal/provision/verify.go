package provision

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/3cpo-dev/hostinit/internal/render"
	gssh "github.com/3cpo-dev/hostinit/internal/ssh"
	"github.com/3cpo-dev/hostinit/internal/target"
)

// UFWStatus is the parsed output of `ufw status verbose`.
type UFWStatus struct {
	Active          bool
	DefaultIncoming string
	DefaultOutgoing string
	// Allowed lists inbound ALLOW rules such as "22/tcp", deduplicated
	// across IPv4 and IPv6 and sorted.
	Allowed []string
}

func ParseUFWStatus(out string) UFWStatus {
	var st UFWStatus
	seen := map[string]bool{}
	s := bufio.NewScanner(strings.NewReader(out))
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		switch {
		case strings.HasPrefix(line, "Status:"):
			st.Active = strings.TrimSpace(strings.TrimPrefix(line, "Status:")) == "active"
		case strings.HasPrefix(line, "Default:"):
			for _, part := range strings.Split(strings.TrimPrefix(line, "Default:"), ",") {
				f := strings.Fields(part)
				if len(f) != 2 {
					continue
				}
				switch f[1] {
				case "(incoming)":
					st.DefaultIncoming = f[0]
				case "(outgoing)":
					st.DefaultOutgoing = f[0]
				}
			}
		default:
			f := strings.Fields(line)
			if len(f) < 3 {
				continue
			}
			rule, rest := f[0], f[1:]
			if len(rest) > 0 && rest[0] == "(v6)" {
				rest = rest[1:]
			}
			if len(rest) >= 2 && rest[0] == "ALLOW" && rest[1] == "IN" && !seen[rule] {
				seen[rule] = true
				st.Allowed = append(st.Allowed, rule)
			}
		}
	}
	sort.Strings(st.Allowed)
	return st
}

// Check is one verification result.
type Check struct {
	Name   string
	OK     bool
	Detail string
}

// VerifyOptions describe the expected state.
type VerifyOptions struct {
	Username string
	Settings Settings
}

// Verify audits a provisioned host without changing it.
func Verify(ctx context.Context, t target.Target, opts VerifyOptions) ([]Check, error) {
	set := opts.Settings.withDefaults()
	var checks []Check

	want, err := render.SSHDConfig(render.SSHDParams{Port: set.SSHPort, AllowUsers: opts.Username})
	if err != nil {
		return nil, err
	}
	cur, _, err := t.ReadFile(ctx, want.Path)
	if err != nil {
		checks = append(checks, Check{Name: "sshd_config", Detail: err.Error()})
	} else {
		checks = append(checks, sshdChecks(cur, want.Content, opts.Username)...)
	}

	out, err := t.Run(ctx, target.Sh("ufw status verbose"))
	if err != nil {
		checks = append(checks, Check{Name: "firewall", Detail: err.Error()})
	} else {
		checks = append(checks, firewallCheck(ParseUFWStatus(out), set.FirewallPorts))
	}

	checks = append(checks, authorizedKeysCheck(ctx, t, opts.Username))
	return checks, nil
}

func sshdChecks(cur, want []byte, username string) []Check {
	ds := render.ParseSSHDConfig(cur)
	checks := []Check{{Name: "sshd_config matches policy", OK: bytes.Equal(cur, want)}}
	if !checks[0].OK {
		checks[0].Detail = "file differs from the rendered policy"
	}

	allow := render.Lookup(ds, "AllowUsers")
	c := Check{Name: "AllowUsers " + username}
	switch {
	case len(allow) != 1:
		c.Detail = fmt.Sprintf("%d AllowUsers lines", len(allow))
	case strings.Join(allow[0].Args, " ") != username:
		c.Detail = "allows " + strings.Join(allow[0].Args, " ")
	default:
		c.OK = true
	}
	checks = append(checks, c)

	for _, kw := range []string{"PasswordAuthentication", "PermitRootLogin"} {
		c := Check{Name: kw + " no"}
		got := render.Lookup(ds, kw)
		switch {
		case len(got) == 0:
			c.Detail = "not set"
		case strings.Join(got[0].Args, " ") != "no":
			c.Detail = "set to " + strings.Join(got[0].Args, " ")
		default:
			c.OK = true
		}
		checks = append(checks, c)
	}
	return checks
}

func firewallCheck(st UFWStatus, ports []int) Check {
	want := make([]string, len(ports))
	for i, p := range ports {
		want[i] = fmt.Sprintf("%d/tcp", p)
	}
	sort.Strings(want)
	c := Check{Name: "firewall"}
	switch {
	case !st.Active:
		c.Detail = "ufw inactive"
	case st.DefaultIncoming != "deny" || st.DefaultOutgoing != "allow":
		c.Detail = fmt.Sprintf("default incoming %q, outgoing %q", st.DefaultIncoming, st.DefaultOutgoing)
	case strings.Join(st.Allowed, ",") != strings.Join(want, ","):
		c.Detail = fmt.Sprintf("allowed %v, want %v", st.Allowed, want)
	default:
		c.OK = true
		c.Detail = strings.Join(want, " ")
	}
	return c
}

func authorizedKeysCheck(ctx context.Context, t target.Target, username string) Check {
	c := Check{Name: "authorized_keys"}
	home, err := lookupHome(ctx, t, username)
	if err != nil {
		c.Detail = err.Error()
		return c
	}
	p := path.Join(home, ".ssh", "authorized_keys")
	data, mode, err := t.ReadFile(ctx, p)
	if err != nil {
		c.Detail = err.Error()
		return c
	}
	n := 0
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == "" || strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		if _, err := gssh.ParseAuthorizedKey(line); err != nil {
			c.Detail = fmt.Sprintf("%s: %v", p, err)
			return c
		}
		n++
	}
	switch {
	case n == 0:
		c.Detail = p + " has no keys"
	case mode.Perm()&0o077 != 0:
		c.Detail = fmt.Sprintf("%s mode %#o is too open", p, mode.Perm())
	default:
		c.OK = true
		c.Detail = fmt.Sprintf("%d key(s)", n)
	}
	return c
}

// Failed returns the checks that did not pass.
func Failed(checks []Check) []Check {
	var out []Check
	for _, c := range checks {
		if !c.OK {
			out = append(out, c)
		}
	}
	return out
}
