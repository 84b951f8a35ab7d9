// Package keystore caches recipients' kem.UserSecretKey material on
// local disk, Tink-AEAD-wrapped at rest, following the envelope
// pattern the teacher's pkg/envelope.TinkEncryptor and
// pkg/encryption/keyencryption.TinkProvider use for DEKs: a master
// keyset (the KEK) protects per-item key material, addressed here by
// identity fingerprint instead of object key.
package keystore

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/tink/go/aead"
	"github.com/google/tink/go/insecurecleartextkeyset"
	"github.com/google/tink/go/keyset"
	"github.com/google/tink/go/tink"
	"github.com/sirupsen/logrus"

	"github.com/privacybydesign/irmaseal-go/pkg/irmaseal"
	"github.com/privacybydesign/irmaseal-go/pkg/kem"
)

// Store persists UserSecretKey material wrapped under a local Tink
// AEAD keyset. It is not a KMS integration: keysetPath holds the KEK in
// the clear on local disk, matching the teacher's own "simplified
// implementation... for testing" local-handle fallback in
// pkg/encryption/keyencryption/tink.go. Swapping in a cloud KMS would
// mean replacing loadOrCreateKEK with one that calls out, without
// touching Put/Get.
type Store struct {
	kekAEAD tink.AEAD
	dataDir string
	logger  *logrus.Entry
}

// Open loads the KEK keyset from keysetPath (creating one on first
// run) and prepares dataDir to hold wrapped UserSecretKey blobs.
func Open(keysetPath, dataDir string) (*Store, error) {
	logger := logrus.WithField("component", "keystore")

	handle, err := loadOrCreateKEK(keysetPath)
	if err != nil {
		return nil, fmt.Errorf("keystore: failed to load KEK keyset: %w", err)
	}

	kekAEAD, err := aead.New(handle)
	if err != nil {
		return nil, fmt.Errorf("keystore: failed to create KEK AEAD: %w", err)
	}

	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("keystore: failed to create data directory: %w", err)
	}

	logger.WithField("data_dir", dataDir).Info("opened local keystore")
	return &Store{kekAEAD: kekAEAD, dataDir: dataDir, logger: logger}, nil
}

func loadOrCreateKEK(keysetPath string) (*keyset.Handle, error) {
	if _, err := os.Stat(keysetPath); err == nil {
		f, err := os.Open(keysetPath)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return insecurecleartextkeyset.Read(keyset.NewBinaryReader(f))
	}

	handle, err := keyset.NewHandle(aead.AES256GCMKeyTemplate())
	if err != nil {
		return nil, fmt.Errorf("failed to generate KEK: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(keysetPath), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create keyset directory: %w", err)
	}
	f, err := os.OpenFile(keysetPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := insecurecleartextkeyset.Write(handle, keyset.NewBinaryWriter(f)); err != nil {
		return nil, fmt.Errorf("failed to persist generated KEK: %w", err)
	}
	return handle, nil
}

// fingerprint derives a stable, filesystem-safe name for an Identity's
// cached key, independent of Identity.Derive (which feeds the KEM, not
// local storage, and whose format this package must not depend on).
func fingerprint(identity irmaseal.Identity) string {
	h := sha256.New()
	h.Write([]byte(identity.AttributeType))
	if identity.AttributeValue != nil {
		h.Write([]byte(*identity.AttributeValue))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Put wraps usk under the KEK, bound to identity via associated data,
// and writes it to dataDir.
func (s *Store) Put(identity irmaseal.Identity, usk kem.UserSecretKey) error {
	fp := fingerprint(identity)
	wrapped, err := s.kekAEAD.Encrypt(usk, []byte(fp))
	if err != nil {
		return fmt.Errorf("keystore: failed to wrap user secret key: %w", err)
	}

	path := filepath.Join(s.dataDir, fp+".key")
	if err := os.WriteFile(path, wrapped, 0o600); err != nil {
		return fmt.Errorf("keystore: failed to write wrapped key: %w", err)
	}
	s.logger.WithField("identity_type", identity.AttributeType).Debug("cached user secret key")
	return nil
}

// Get reads and unwraps the UserSecretKey cached for identity. It
// returns an error if no key has been cached for this identity yet.
func (s *Store) Get(identity irmaseal.Identity) (kem.UserSecretKey, error) {
	fp := fingerprint(identity)
	path := filepath.Join(s.dataDir, fp+".key")

	wrapped, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("keystore: no cached key for this identity: %w", err)
	}

	usk, err := s.kekAEAD.Decrypt(wrapped, []byte(fp))
	if err != nil {
		return nil, fmt.Errorf("keystore: failed to unwrap user secret key: %w", err)
	}
	return kem.UserSecretKey(usk), nil
}
