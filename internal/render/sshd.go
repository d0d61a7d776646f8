package render

import (
	"bufio"
	"bytes"
	"strings"
)

// Directive is one keyword line of an sshd_config file.
type Directive struct {
	Keyword string
	Args    []string
}

// ParseSSHDConfig returns the directives of content in file order. Keywords
// are lower-cased, comments and blank lines dropped. Match blocks are not
// interpreted.
func ParseSSHDConfig(content []byte) []Directive {
	var out []Directive
	s := bufio.NewScanner(bytes.NewReader(content))
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		kw := fields[0]
		args := fields[1:]
		if i := strings.IndexByte(kw, '='); i > 0 {
			args = append([]string{kw[i+1:]}, args...)
			kw = kw[:i]
		}
		out = append(out, Directive{Keyword: strings.ToLower(kw), Args: args})
	}
	return out
}

// Lookup returns every directive with the given keyword.
func Lookup(ds []Directive, keyword string) []Directive {
	keyword = strings.ToLower(keyword)
	var out []Directive
	for _, d := range ds {
		if d.Keyword == keyword {
			out = append(out, d)
		}
	}
	return out
}
