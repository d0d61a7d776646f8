package provision

import (
	"bytes"
	"fmt"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/3cpo-dev/hostinit/internal/prompt"
	"github.com/3cpo-dev/hostinit/internal/render"
	gssh "github.com/3cpo-dev/hostinit/internal/ssh"
	"github.com/3cpo-dev/hostinit/internal/target"
	"github.com/3cpo-dev/hostinit/pkg/api"
)

type cloudUser struct {
	Name              string   `yaml:"name"`
	Groups            string   `yaml:"groups"`
	Shell             string   `yaml:"shell"`
	Sudo              []string `yaml:"sudo"`
	LockPasswd        bool     `yaml:"lock_passwd"`
	SSHAuthorizedKeys []string `yaml:"ssh_authorized_keys"`
}

type cloudFile struct {
	Path        string `yaml:"path"`
	Permissions string `yaml:"permissions"`
	Owner       string `yaml:"owner,omitempty"`
	Content     string `yaml:"content"`
	Defer       bool   `yaml:"defer,omitempty"`
}

type cloudConfig struct {
	Hostname       string      `yaml:"hostname"`
	Timezone       string      `yaml:"timezone"`
	PackageUpdate  bool        `yaml:"package_update"`
	PackageUpgrade bool        `yaml:"package_upgrade"`
	Packages       []string    `yaml:"packages"`
	Groups         []string    `yaml:"groups"`
	Users          []cloudUser `yaml:"users"`
	SSHPwauth      bool        `yaml:"ssh_pwauth"`
	DisableRoot    bool        `yaml:"disable_root"`
	WriteFiles     []cloudFile `yaml:"write_files"`
	Runcmd         []string    `yaml:"runcmd"`
}

// CloudConfig renders a #cloud-config document that provisions a new host
// the way DefaultSteps does. The account password is locked: cloud-init
// hosts get key-only access and no password ever leaves the workstation.
func CloudConfig(a api.Answers, s Settings) ([]byte, error) {
	s = s.withDefaults()
	hostname := orDefault(a.Hostname, api.DefaultHostname)
	if err := prompt.ValidateHostname(hostname); err != nil {
		return nil, fmt.Errorf("%w: hostname %q: %v", ErrInvalidAnswer, hostname, err)
	}
	timezone := orDefault(a.Timezone, api.DefaultTimezone)
	if err := prompt.ValidateTimezone(timezone); err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %v", ErrInvalidAnswer, timezone, err)
	}
	username := orDefault(a.Username, api.DefaultUsername)
	if err := prompt.ValidateUsername(username); err != nil {
		return nil, fmt.Errorf("%w: username %q: %v", ErrInvalidAnswer, username, err)
	}
	var keys []string
	for i, k := range a.SSHKeys {
		if strings.TrimSpace(k) == "" {
			continue
		}
		ak, err := gssh.ParseAuthorizedKey(k)
		if err != nil {
			return nil, fmt.Errorf("%w: key %d: %v", ErrInvalidSSHKey, i+1, err)
		}
		keys = append(keys, ak.Line)
	}
	if len(keys) == 0 {
		return nil, ErrNoSSHKeys
	}

	sshd, err := render.SSHDConfig(render.SSHDParams{Port: s.SSHPort, AllowUsers: username})
	if err != nil {
		return nil, err
	}
	home := path.Join("/home", username)
	bashrc := render.Bashrc(home, username, username)
	motd := render.MOTDHeader()

	runcmd := []string{
		fmt.Sprintf("command -v docker >/dev/null || (curl -fsSL %s -o %s && sh %[2]s; rm -f %[2]s)", target.Word(s.DockerInstallURL), dockerScriptPath),
		fmt.Sprintf("usermod -aG docker %s", target.Word(username)),
		fmt.Sprintf("printf '%s\\t%%s\\n' %s >> %s", hostsAddr, target.Word(hostname), render.HostsPath),
	}
	runcmd = append(runcmd, FirewallCommands(s.FirewallPorts)...)
	for _, c := range motdCleanup {
		runcmd = append(runcmd, c+" || true")
	}
	runcmd = append(runcmd, "systemctl restart ssh || systemctl restart sshd")

	cfg := cloudConfig{
		Hostname:       hostname,
		Timezone:       timezone,
		PackageUpdate:  true,
		PackageUpgrade: true,
		Packages:       s.Packages,
		Groups:         []string{"docker"},
		Users: []cloudUser{{
			Name:              username,
			Groups:            "sudo,docker",
			Shell:             "/bin/bash",
			Sudo:              []string{"ALL=(ALL) NOPASSWD:ALL"},
			LockPasswd:        true,
			SSHAuthorizedKeys: keys,
		}},
		SSHPwauth:   false,
		DisableRoot: true,
		WriteFiles: []cloudFile{
			{Path: sshd.Path, Permissions: fmt.Sprintf("%#o", sshd.Mode), Content: string(sshd.Content)},
			{Path: motd.Path, Permissions: fmt.Sprintf("%#o", motd.Mode), Content: string(motd.Content)},
			{Path: bashrc.Path, Permissions: fmt.Sprintf("%#o", bashrc.Mode), Owner: username + ":" + username, Content: string(bashrc.Content), Defer: true},
		},
		Runcmd: runcmd,
	}

	var b bytes.Buffer
	b.WriteString("#cloud-config\n")
	enc := yaml.NewEncoder(&b)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("encode cloud-config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode cloud-config: %w", err)
	}
	return b.Bytes(), nil
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}
