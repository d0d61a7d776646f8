package ssh

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"fmt"
	"os"
	"strings"

	xssh "golang.org/x/crypto/ssh"
)

// GenerateEd25519Keypair creates an ed25519 keypair, writes the private key
// in OpenSSH format to privateKeyPath and the public key to privateKeyPath+".pub".
func GenerateEd25519Keypair(privateKeyPath, comment string) (publicAuthorized string, err error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	block, err := xssh.MarshalPrivateKey(priv, comment)
	if err != nil {
		return "", fmt.Errorf("marshal private key: %w", err)
	}
	if err := os.WriteFile(privateKeyPath, pem.EncodeToMemory(block), 0600); err != nil {
		return "", fmt.Errorf("write private key: %w", err)
	}
	signer, err := xssh.NewSignerFromKey(priv)
	if err != nil {
		return "", fmt.Errorf("signer: %w", err)
	}
	pub := strings.TrimSpace(string(xssh.MarshalAuthorizedKey(signer.PublicKey())))
	if comment != "" {
		pub += " " + comment
	}
	if err := os.WriteFile(privateKeyPath+".pub", []byte(pub+"\n"), 0644); err != nil {
		return "", fmt.Errorf("write public key: %w", err)
	}
	return pub, nil
}

// LoadPrivateKeySigner reads an OpenSSH/PEM private key file and returns an ssh.Signer.
func LoadPrivateKeySigner(privateKeyPath string) (xssh.Signer, error) {
	data, err := os.ReadFile(privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	signer, err := xssh.ParsePrivateKey(data)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return signer, nil
}

// AuthorizedKey is one parsed authorized_keys entry.
type AuthorizedKey struct {
	Line        string
	Type        string
	Comment     string
	Fingerprint string
}

// ParseAuthorizedKey validates a single authorized_keys line. Options
// (from="...", no-pty, ...) are kept in the returned line.
func ParseAuthorizedKey(line string) (AuthorizedKey, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return AuthorizedKey{}, fmt.Errorf("empty public key")
	}
	if strings.ContainsAny(line, "\r\n") {
		return AuthorizedKey{}, fmt.Errorf("public key must be a single line")
	}
	pub, comment, _, rest, err := xssh.ParseAuthorizedKey([]byte(line))
	if err != nil {
		return AuthorizedKey{}, fmt.Errorf("parse public key: %w", err)
	}
	if len(strings.TrimSpace(string(rest))) > 0 {
		return AuthorizedKey{}, fmt.Errorf("parse public key: trailing data after key")
	}
	return AuthorizedKey{
		Line:        line,
		Type:        pub.Type(),
		Comment:     comment,
		Fingerprint: xssh.FingerprintSHA256(pub),
	}, nil
}
