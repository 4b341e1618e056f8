// Copyright 2018 The mkcert Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package manager orchestrates the CA lifecycle across its three mutable
// resources: the on-disk key material, the OS trust store entry, and the
// persisted identity record holding the thumbprint.
package manager

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/devca-dev/devca/internal/ca"
	"github.com/devca-dev/devca/internal/identity"
	"github.com/devca-dev/devca/internal/keystore"
	"github.com/devca-dev/devca/internal/truststore"
)

const identityFileName = "config.json"

// ErrNotInstalled reports an uninstall attempt with no recorded thumbprint.
var ErrNotInstalled = errors.New(`no CA thumbprint recorded; was the CA ever installed? (run "devca install-ca" first)`)

// Config carries the settings the commands layer resolves once at startup.
// Core components never read the environment themselves.
type Config struct {
	// Dir is the per-user data directory holding the key material and the
	// identity record.
	Dir string
	// Curve is used for freshly generated root and leaf keys.
	Curve ca.Curve
}

// Manager ties the identity store, key material store and trust-store adapter
// together.
type Manager struct {
	identity *identity.Store
	keys     *keystore.Store
	trust    truststore.Adapter
	curve    ca.Curve
}

func New(cfg Config, trust truststore.Adapter) *Manager {
	return &Manager{
		identity: &identity.Store{Path: filepath.Join(cfg.Dir, identityFileName)},
		keys:     &keystore.Store{Dir: cfg.Dir},
		trust:    trust,
		curve:    cfg.Curve,
	}
}

// InstallCA creates a fresh root CA, persists it, registers it in the system
// trust store and records its thumbprint.
//
// The steps are not transactional. Key material lands on disk first (cheap to
// redo), the trust store is mutated second, and the thumbprint is recorded
// last, so the only reachable inconsistency is a trust-store entry we have no
// record of, never a recorded install that missed the trust store. A failed
// trust-store add leaves orphaned key material that the next install simply
// overwrites.
func (m *Manager) InstallCA() error {
	id, err := m.identity.Load()
	if err != nil {
		return err
	}

	root, err := ca.New(id, m.curve)
	if err != nil {
		return err
	}
	if err := m.keys.Persist(root); err != nil {
		return err
	}
	log.Info().Str("dir", m.keys.Dir).Str("curve", m.curve.String()).
		Msg("created a new local CA")

	if err := m.trust.Add(m.keys.CertPath()); err != nil {
		return fmt.Errorf("add CA to the system trust store: %w", err)
	}
	log.Info().Msg("the local CA is now installed in the system trust store")

	id.Thumbprint = root.Thumbprint()
	if err := m.identity.Save(id); err != nil {
		return fmt.Errorf("record CA thumbprint %s: %w", id.Thumbprint, err)
	}
	log.Debug().Str("thumbprint", id.Thumbprint).Msg("recorded CA thumbprint")
	return nil
}

// UninstallCA removes the trust-store entry by recorded thumbprint, deletes
// the key material, then clears the thumbprint.
//
// It aborts before touching disk state if the trust-store removal fails, so a
// retry is always safe, and it clears the thumbprint only once deletion
// succeeds: a dangling key-material directory is preferable to losing the
// only record that the trust store is clean.
func (m *Manager) UninstallCA() error {
	id, err := m.identity.Load()
	if err != nil {
		return err
	}
	if !id.Installed() {
		return ErrNotInstalled
	}

	if err := m.trust.Remove(id.Thumbprint); err != nil {
		return fmt.Errorf("remove CA from the system trust store: %w", err)
	}
	log.Info().Str("thumbprint", id.Thumbprint).
		Msg("the local CA is now uninstalled from the system trust store")

	if err := m.keys.Delete(); err != nil {
		return err
	}
	id.Thumbprint = ""
	if err := m.identity.Save(id); err != nil {
		return err
	}
	log.Info().Msg("removed the local CA key material")
	return nil
}

// IssueRequest names the output files and subject alternative names for one
// server certificate.
type IssueRequest struct {
	CertFile string
	KeyFile  string
	SANs     []string
}

// IssueCert loads the installed CA and issues a server certificate, writing
// the key and certificate to the requested paths. Nothing is written unless
// issuance succeeds, and issuance is retried by rerunning the command, never
// internally.
func (m *Manager) IssueCert(req IssueRequest) error {
	id, err := m.identity.Load()
	if err != nil {
		return err
	}
	root, err := m.keys.Load()
	if err != nil {
		return err
	}

	if id.Installed() {
		ok, err := m.trust.Contains(id.Thumbprint)
		switch {
		case err != nil:
			log.Debug().Err(err).Msg("could not check the system trust store")
		case !ok:
			log.Warn().Msg(`the local CA is not in the system trust store; run "devca install-ca"`)
		}
	} else {
		log.Warn().Msg(`the local CA is not installed in the system trust store; run "devca install-ca"`)
	}

	leaf, err := root.IssueServer(id, req.SANs, m.curve)
	if err != nil {
		return err
	}
	keyPEM, err := leaf.KeyPEM()
	if err != nil {
		return err
	}
	if err := os.WriteFile(req.CertFile, leaf.CertPEM(), 0644); err != nil {
		return fmt.Errorf("save certificate: %w", err)
	}
	if err := os.WriteFile(req.KeyFile, keyPEM, 0600); err != nil {
		return fmt.Errorf("save certificate key: %w", err)
	}

	log.Info().Str("cert", req.CertFile).Str("key", req.KeyFile).
		Str("expires", leaf.Cert.NotAfter.Format("2 January 2006")).
		Msg("created a new certificate")
	return nil
}
