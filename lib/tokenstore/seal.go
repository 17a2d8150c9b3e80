// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tokenstore

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"filippo.io/age"

	"github.com/bureau-foundation/bugdesk/lib/secret"
)

// sealer encrypts tokens to an age X25519 identity. The private key is
// held in a secret.Buffer and parsed only for the duration of an unseal.
type sealer struct {
	privateKey *secret.Buffer
	recipient  *age.X25519Recipient
}

// loadOrCreateIdentity reads an age identity file (the format written by
// age-keygen: comment lines, then one AGE-SECRET-KEY line). A missing
// file is created with a fresh identity at mode 0600.
func loadOrCreateIdentity(path string) (*sealer, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return createIdentity(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading identity file %s: %w", path, err)
	}
	defer secret.Zero(data)

	var keyLine []byte
	for _, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		keyLine = line
		break
	}
	if keyLine == nil {
		return nil, fmt.Errorf("identity file %s has no key", path)
	}

	identity, err := age.ParseX25519Identity(string(keyLine))
	if err != nil {
		return nil, fmt.Errorf("parsing identity file %s: %w", path, err)
	}
	privateKey, err := secret.NewFromBytes(append([]byte(nil), keyLine...))
	if err != nil {
		return nil, fmt.Errorf("protecting identity: %w", err)
	}
	return &sealer{privateKey: privateKey, recipient: identity.Recipient()}, nil
}

func createIdentity(path string) (*sealer, error) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return nil, fmt.Errorf("generating age identity: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating identity directory: %w", err)
	}
	contents := fmt.Sprintf("# bugdesk session identity\n# public key: %s\n%s\n",
		identity.Recipient().String(), identity.String())
	if err := os.WriteFile(path, []byte(contents), 0600); err != nil {
		return nil, fmt.Errorf("writing identity file %s: %w", path, err)
	}

	privateKey, err := secret.NewFromString(identity.String())
	if err != nil {
		return nil, fmt.Errorf("protecting identity: %w", err)
	}
	return &sealer{privateKey: privateKey, recipient: identity.Recipient()}, nil
}

// seal encrypts plaintext and returns base64 ciphertext.
func (s *sealer) seal(plaintext []byte) (string, error) {
	var ciphertext bytes.Buffer
	writer, err := age.Encrypt(&ciphertext, s.recipient)
	if err != nil {
		return "", fmt.Errorf("creating age encryptor: %w", err)
	}
	if _, err := writer.Write(plaintext); err != nil {
		return "", fmt.Errorf("writing plaintext to age encryptor: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("finalizing age encryption: %w", err)
	}
	return base64.StdEncoding.EncodeToString(ciphertext.Bytes()), nil
}

// unseal decrypts base64 ciphertext into a new secret buffer.
func (s *sealer) unseal(encoded string) (*secret.Buffer, error) {
	identity, err := age.ParseX25519Identity(strings.TrimSpace(s.privateKey.String()))
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decoding base64 ciphertext: %w", err)
	}
	reader, err := age.Decrypt(bytes.NewReader(raw), identity)
	if err != nil {
		return nil, fmt.Errorf("decrypting: %w", err)
	}
	plaintext, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading decrypted token: %w", err)
	}
	if len(plaintext) == 0 {
		return nil, fmt.Errorf("sealed token is empty")
	}
	return secret.NewFromBytes(plaintext)
}

func (s *sealer) close() error {
	return s.privateKey.Close()
}
