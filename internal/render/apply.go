package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/rs/zerolog/log"

	"github.com/3cpo-dev/hostinit/internal/target"
)

// Apply makes f present on t. The file is only rewritten when its content
// or permission bits differ; ownership is always reasserted. It reports
// whether the file was written.
func Apply(ctx context.Context, t target.Target, f File) (bool, error) {
	changed := false
	cur, mode, err := t.ReadFile(ctx, f.Path)
	switch {
	case err == nil && bytes.Equal(cur, f.Content) && mode == f.Mode.Perm():
		log.Debug().Str("path", f.Path).Msg("file up to date")
	case err == nil || errors.Is(err, fs.ErrNotExist):
		if err := t.WriteFile(ctx, f.Path, f.Content, f.Mode); err != nil {
			return false, err
		}
		changed = true
		log.Debug().Str("path", f.Path).Str("mode", fmt.Sprintf("%#o", f.Mode)).Msg("file written")
	default:
		return false, fmt.Errorf("read %s: %w", f.Path, err)
	}

	if f.Owner != "" {
		owner := f.Owner
		if f.Group != "" {
			owner += ":" + f.Group
		}
		if _, err := t.Run(ctx, target.Sh("chown %s %s", target.Word(owner), target.Word(f.Path))); err != nil {
			return changed, fmt.Errorf("chown %s: %w", f.Path, err)
		}
	}
	return changed, nil
}
