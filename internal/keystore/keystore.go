// Copyright 2018 The mkcert Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package keystore owns the on-disk representation of the root CA key
// material under the per-user data directory.
package keystore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	pkcs12 "software.sslmate.com/src/go-pkcs12"

	"github.com/devca-dev/devca/internal/ca"
)

const (
	rootCertName = "rootCA.pem"
	rootKeyName  = "rootCA-key.pem"
	rootP12Name  = "rootCA.p12"

	// P12Password protects the PKCS#12 bundle. Java keystores typically
	// expect this hardcoded default.
	P12Password = "changeit"
)

// ErrNotFound reports that no CA key material exists on disk.
var ErrNotFound = errors.New(`no CA key material found (run "devca install-ca" first)`)

// Store holds root CA key material at fixed filenames under Dir.
type Store struct {
	Dir string
}

// CertPath is the location of the root certificate PEM file.
func (s *Store) CertPath() string { return filepath.Join(s.Dir, rootCertName) }

// KeyPath is the location of the root private key PEM file.
func (s *Store) KeyPath() string { return filepath.Join(s.Dir, rootKeyName) }

// P12Path is the location of the PKCS#12 bundle.
func (s *Store) P12Path() string { return filepath.Join(s.Dir, rootP12Name) }

// Persist writes the key and certificate in PEM form, creating Dir with
// restrictive permissions if needed. Existing files are overwritten, which is
// what makes rerunning install after a partial failure safe. A PKCS#12 bundle
// is exported alongside on a best-effort basis.
func (s *Store) Persist(root *ca.CA) error {
	if err := os.MkdirAll(s.Dir, 0700); err != nil {
		return fmt.Errorf("create CA directory: %w", err)
	}
	keyPEM, err := root.KeyPEM()
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.KeyPath(), keyPEM, 0600); err != nil {
		return fmt.Errorf("save CA key: %w", err)
	}
	if err := os.WriteFile(s.CertPath(), root.CertPEM(), 0644); err != nil {
		return fmt.Errorf("save CA certificate: %w", err)
	}
	if err := s.exportPKCS12(root); err != nil {
		log.Warn().Err(err).Str("path", s.P12Path()).
			Msg("PKCS#12 export failed; continuing without it")
	}
	return nil
}

func (s *Store) exportPKCS12(root *ca.CA) error {
	pfx, err := pkcs12.Modern.Encode(root.Key, root.Cert, nil, P12Password)
	if err != nil {
		return fmt.Errorf("encode PKCS#12: %w", err)
	}
	if err := os.WriteFile(s.P12Path(), pfx, 0600); err != nil {
		return fmt.Errorf("save PKCS#12: %w", err)
	}
	return nil
}

// Load reads the persisted key material back into a signing CA. It returns
// ErrNotFound when either PEM file is absent and a ca.ErrMalformedPEM-wrapped
// error when the content does not parse.
func (s *Store) Load() (*ca.CA, error) {
	keyPEM, err := os.ReadFile(s.KeyPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read CA key: %w", err)
	}
	certPEM, err := os.ReadFile(s.CertPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read CA certificate: %w", err)
	}
	return ca.Load(keyPEM, certPEM)
}

// Delete removes the key, certificate and PKCS#12 bundle. Already-missing
// files are fine; any other removal failure aborts so the caller keeps the
// recorded thumbprint for a later manual cleanup.
func (s *Store) Delete() error {
	for _, path := range []string{s.KeyPath(), s.CertPath(), s.P12Path()} {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", path, err)
		}
	}
	return nil
}
