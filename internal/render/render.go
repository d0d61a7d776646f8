// Package render produces the files hostinit installs on a host and applies
// them through a single compare-and-replace primitive.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"text/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

//go:embed files/*
var staticFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

const (
	SSHDConfigPath = "/etc/ssh/sshd_config"
	MOTDDir        = "/etc/update-motd.d"
	MOTDHeaderPath = MOTDDir + "/00-header"
	SudoersDir     = "/etc/sudoers.d"
	HostsPath      = "/etc/hosts"
)

// File is the desired state of one file on the target.
type File struct {
	Path    string
	Content []byte
	Mode    fs.FileMode
	// Owner and Group are applied with chown when Owner is set.
	Owner string
	Group string
}

type SSHDParams struct {
	Port       int
	AllowUsers string
}

// SSHDConfig renders the hardened daemon configuration.
func SSHDConfig(p SSHDParams) (File, error) {
	if p.AllowUsers == "" {
		return File{}, fmt.Errorf("sshd_config: AllowUsers is required")
	}
	if p.Port == 0 {
		p.Port = 22
	}
	content, err := execute("sshd_config.tmpl", p)
	if err != nil {
		return File{}, err
	}
	return File{Path: SSHDConfigPath, Content: content, Mode: 0644, Owner: "root", Group: "root"}, nil
}

// Sudoers renders the passwordless sudo fragment for user.
func Sudoers(user string) (File, error) {
	content, err := execute("sudoers.tmpl", struct{ User string }{user})
	if err != nil {
		return File{}, err
	}
	return File{Path: path.Join(SudoersDir, user), Content: content, Mode: 0440, Owner: "root", Group: "root"}, nil
}

// Bashrc is the shell profile installed into home.
func Bashrc(home, owner, group string) File {
	return File{Path: path.Join(home, ".bashrc"), Content: static("files/bashrc"), Mode: 0644, Owner: owner, Group: group}
}

// MOTDHeader is the dynamic login banner script.
func MOTDHeader() File {
	return File{Path: MOTDHeaderPath, Content: static("files/00-header"), Mode: 0755, Owner: "root", Group: "root"}
}

// AuthorizedKeys renders keys one per line.
func AuthorizedKeys(home, owner, group string, keys []string) File {
	var b bytes.Buffer
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('\n')
	}
	return File{Path: path.Join(home, ".ssh", "authorized_keys"), Content: b.Bytes(), Mode: 0600, Owner: owner, Group: group}
}

func execute(name string, data any) ([]byte, error) {
	var b bytes.Buffer
	if err := templates.ExecuteTemplate(&b, name, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return b.Bytes(), nil
}

func static(name string) []byte {
	b, err := staticFS.ReadFile(name)
	if err != nil {
		panic(fmt.Sprintf("embedded file %s missing: %v", name, err))
	}
	return b
}
