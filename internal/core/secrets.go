package core

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LoadSecretsEnv reads KEY=VALUE pairs from path, by default
// $XDG_CONFIG_HOME/hostinit/secrets.env. Lines starting with # are
// ignored, surrounding quotes are stripped. A missing file yields an
// empty map.
func LoadSecretsEnv(path string) (map[string]string, error) {
	if path == "" {
		path = filepath.Join(ConfigDir(), "secrets.env")
	}
	out := map[string]string{}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return out, nil
	}
	if err != nil {
		return out, fmt.Errorf("open secrets: %w", err)
	}
	defer f.Close()
	s := bufio.NewScanner(f)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		if i := strings.IndexByte(line, '='); i >= 0 {
			k := strings.TrimSpace(line[:i])
			v := strings.TrimSpace(line[i+1:])
			if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
				v = v[1 : len(v)-1]
			}
			out[k] = v
		}
	}
	if err := s.Err(); err != nil {
		return out, fmt.Errorf("read secrets: %w", err)
	}
	return out, nil
}
