// Copyright 2018 The mkcert Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package manager

import (
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/devca-dev/devca/internal/ca"
	"github.com/devca-dev/devca/internal/identity"
	"github.com/devca-dev/devca/internal/keystore"
)

// fakeTrust records adapter calls and fails on demand.
type fakeTrust struct {
	added   []string
	removed []string

	addErr      error
	removeErr   error
	containsErr error

	// thumbprints Contains reports as present
	present map[string]bool
}

func (f *fakeTrust) Add(certPath string) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.added = append(f.added, certPath)
	return nil
}

func (f *fakeTrust) Remove(thumbprint string) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	f.removed = append(f.removed, thumbprint)
	return nil
}

func (f *fakeTrust) Contains(thumbprint string) (bool, error) {
	if f.containsErr != nil {
		return false, f.containsErr
	}
	return f.present[thumbprint], nil
}

func newTestManager(t *testing.T) (*Manager, *fakeTrust, string) {
	t.Helper()
	dir := t.TempDir()
	trust := &fakeTrust{present: map[string]bool{}}
	m := New(Config{Dir: dir, Curve: ca.CurveP256}, trust)
	return m, trust, dir
}

func recordedThumbprint(t *testing.T, dir string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, identityFileName))
	if errors.Is(err, os.ErrNotExist) {
		return ""
	}
	require.NoError(t, err)
	var id identity.Identity
	require.NoError(t, json.Unmarshal(data, &id))
	return id.Thumbprint
}

func TestInstallCA(t *testing.T) {
	m, trust, dir := newTestManager(t)

	require.NoError(t, m.InstallCA())

	keys := &keystore.Store{Dir: dir}
	root, err := keys.Load()
	require.NoError(t, err)

	require.Equal(t, []string{keys.CertPath()}, trust.added)
	require.Equal(t, root.Thumbprint(), recordedThumbprint(t, dir))
}

func TestInstallThenUninstall(t *testing.T) {
	m, trust, dir := newTestManager(t)

	require.NoError(t, m.InstallCA())
	thumbprint := recordedThumbprint(t, dir)
	require.NotEmpty(t, thumbprint)

	require.NoError(t, m.UninstallCA())

	require.Equal(t, []string{thumbprint}, trust.removed)
	require.Empty(t, recordedThumbprint(t, dir))
	keys := &keystore.Store{Dir: dir}
	require.NoFileExists(t, keys.KeyPath())
	require.NoFileExists(t, keys.CertPath())
	require.NoFileExists(t, keys.P12Path())
}

func TestUninstallWithoutInstall(t *testing.T) {
	m, trust, dir := newTestManager(t)

	err := m.UninstallCA()
	require.ErrorIs(t, err, ErrNotInstalled)

	// No trust-store calls and no key material touched.
	require.Empty(t, trust.removed)
	keys := &keystore.Store{Dir: dir}
	require.NoFileExists(t, keys.KeyPath())
	require.NoFileExists(t, keys.CertPath())
}

func TestInstallTrustStoreFailure(t *testing.T) {
	m, trust, dir := newTestManager(t)
	trust.addErr = errors.New("security: exit status 1")

	err := m.InstallCA()
	require.Error(t, err)
	require.ErrorContains(t, err, "add CA to the system trust store")

	// No thumbprint recorded; the key material may remain as an orphan and
	// is overwritten by the next install.
	require.Empty(t, recordedThumbprint(t, dir))
	require.FileExists(t, (&keystore.Store{Dir: dir}).KeyPath())

	trust.addErr = nil
	require.NoError(t, m.InstallCA())
	require.NotEmpty(t, recordedThumbprint(t, dir))
}

func TestUninstallTrustStoreFailureLeavesStateIntact(t *testing.T) {
	m, trust, dir := newTestManager(t)
	require.NoError(t, m.InstallCA())
	thumbprint := recordedThumbprint(t, dir)

	trust.removeErr = errors.New("security: exit status 1")
	err := m.UninstallCA()
	require.Error(t, err)

	// Aborted before touching disk state, so a retry is safe.
	require.Equal(t, thumbprint, recordedThumbprint(t, dir))
	require.FileExists(t, (&keystore.Store{Dir: dir}).KeyPath())

	trust.removeErr = nil
	require.NoError(t, m.UninstallCA())
	require.Empty(t, recordedThumbprint(t, dir))
}

func TestUninstallDeleteFailureKeepsThumbprint(t *testing.T) {
	m, trust, dir := newTestManager(t)
	require.NoError(t, m.InstallCA())
	thumbprint := recordedThumbprint(t, dir)

	// Make key-material deletion fail: a non-empty directory in place of
	// the key file cannot be removed.
	keys := &keystore.Store{Dir: dir}
	require.NoError(t, os.Remove(keys.KeyPath()))
	require.NoError(t, os.MkdirAll(filepath.Join(keys.KeyPath(), "blocker"), 0700))

	err := m.UninstallCA()
	require.Error(t, err)

	// The trust-store entry is gone, but the thumbprint stays recorded: a
	// dangling key-material directory is preferable to losing the only
	// handle for a manual cleanup.
	require.Equal(t, []string{thumbprint}, trust.removed)
	require.Equal(t, thumbprint, recordedThumbprint(t, dir))
}

func TestIssueCert(t *testing.T) {
	m, trust, dir := newTestManager(t)

	// Seed the identity so the scenario runs with a known common name.
	store := &identity.Store{Path: filepath.Join(dir, identityFileName)}
	seeded := identity.Default()
	seeded.CommonName = "Test CA"
	require.NoError(t, store.Save(seeded))

	require.NoError(t, m.InstallCA())
	trust.present[recordedThumbprint(t, dir)] = true

	out := t.TempDir()
	req := IssueRequest{
		CertFile: filepath.Join(out, "server.crt"),
		KeyFile:  filepath.Join(out, "server.key"),
		SANs:     []string{"example.com", "127.0.0.1"},
	}
	require.NoError(t, m.IssueCert(req))

	certPEM, err := os.ReadFile(req.CertFile)
	require.NoError(t, err)
	block, _ := pem.Decode(certPEM)
	require.NotNil(t, block)
	leaf, err := x509.ParseCertificate(block.Bytes)
	require.NoError(t, err)

	require.Equal(t, "Test CA", leaf.Subject.CommonName)
	require.Equal(t, []string{"example.com"}, leaf.DNSNames)
	require.Len(t, leaf.IPAddresses, 1)
	require.True(t, leaf.IPAddresses[0].Equal(net.ParseIP("127.0.0.1")))

	root, err := (&keystore.Store{Dir: dir}).Load()
	require.NoError(t, err)
	pool := x509.NewCertPool()
	pool.AddCert(root.Cert)
	_, err = leaf.Verify(x509.VerifyOptions{Roots: pool, DNSName: "example.com"})
	require.NoError(t, err)

	require.FileExists(t, req.KeyFile)
}

func TestIssueCertTrustCheckFailureNonFatal(t *testing.T) {
	m, trust, _ := newTestManager(t)
	require.NoError(t, m.InstallCA())

	// A broken trust-store probe must not block issuance.
	trust.containsErr = errors.New("security: exit status 1")

	out := t.TempDir()
	req := IssueRequest{
		CertFile: filepath.Join(out, "server.crt"),
		KeyFile:  filepath.Join(out, "server.key"),
		SANs:     []string{"example.com"},
	}
	require.NoError(t, m.IssueCert(req))
	require.FileExists(t, req.CertFile)
	require.FileExists(t, req.KeyFile)
}

func TestIssueCertWithoutCA(t *testing.T) {
	m, _, _ := newTestManager(t)

	err := m.IssueCert(IssueRequest{CertFile: "server.crt", KeyFile: "server.key"})
	require.ErrorIs(t, err, keystore.ErrNotFound)
}

func TestIssueCertCorruptRootKey(t *testing.T) {
	m, _, dir := newTestManager(t)
	require.NoError(t, m.InstallCA())

	keys := &keystore.Store{Dir: dir}
	require.NoError(t, os.WriteFile(keys.KeyPath(), []byte("scrambled"), 0600))

	out := t.TempDir()
	req := IssueRequest{
		CertFile: filepath.Join(out, "server.crt"),
		KeyFile:  filepath.Join(out, "server.key"),
		SANs:     []string{"example.com"},
	}
	err := m.IssueCert(req)
	require.ErrorIs(t, err, ca.ErrMalformedPEM)

	// No leaf files may be written on failure.
	require.NoFileExists(t, req.CertFile)
	require.NoFileExists(t, req.KeyFile)
}
