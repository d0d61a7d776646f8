package ssh

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"

	"github.com/pkg/sftp"
)

// WriteFileAtomic uploads data next to remotePath and renames it into place.
func WriteFileAtomic(sf *sftp.Client, remotePath string, data []byte, mode fs.FileMode) error {
	tmp := path.Join(path.Dir(remotePath), "."+path.Base(remotePath)+".hostinit-tmp")
	dst, err := sf.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		return fmt.Errorf("create remote: %w", err)
	}
	if _, err := dst.Write(data); err != nil {
		_ = dst.Close()
		_ = sf.Remove(tmp)
		return fmt.Errorf("copy: %w", err)
	}
	if err := dst.Chmod(mode); err != nil {
		_ = dst.Close()
		_ = sf.Remove(tmp)
		return fmt.Errorf("chmod remote: %w", err)
	}
	if err := dst.Close(); err != nil {
		_ = sf.Remove(tmp)
		return fmt.Errorf("close remote: %w", err)
	}
	if err := sf.PosixRename(tmp, remotePath); err != nil {
		_ = sf.Remove(tmp)
		return fmt.Errorf("rename remote: %w", err)
	}
	return nil
}

// ReadFile downloads remotePath and reports its permission bits.
func ReadFile(sf *sftp.Client, remotePath string) ([]byte, fs.FileMode, error) {
	src, err := sf.Open(remotePath)
	if err != nil {
		return nil, 0, err
	}
	defer src.Close()
	st, err := src.Stat()
	if err != nil {
		return nil, 0, err
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, 0, fmt.Errorf("read remote: %w", err)
	}
	return data, st.Mode().Perm(), nil
}

// Checksum returns the hex sha256 of data, matching sha256sum output.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
