// Copyright 2018 The mkcert Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ca

import (
	"crypto/elliptic"
	"crypto/x509"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/devca-dev/devca/internal/identity"
)

func testIdentity() identity.Identity {
	id := identity.Default()
	id.CommonName = "Test CA"
	return id
}

func TestNewCA(t *testing.T) {
	root, err := New(testIdentity(), CurveP384)
	require.NoError(t, err)

	cert := root.Cert
	require.True(t, cert.IsCA)
	require.True(t, cert.BasicConstraintsValid)
	require.False(t, cert.MaxPathLenZero, "path length must be unconstrained")
	require.Equal(t, -1, cert.MaxPathLen)

	require.Equal(t, "Test CA", cert.Subject.CommonName)
	require.Equal(t, []string{identity.DefaultLocality}, cert.Subject.Locality)
	require.Equal(t, []string{identity.DefaultCountry}, cert.Subject.Country)
	require.Equal(t, []string{identity.DefaultOrgUnit}, cert.Subject.OrganizationalUnit)
	require.Equal(t, []string{identity.DefaultOrgName}, cert.Subject.Organization)

	require.NotZero(t, cert.KeyUsage&x509.KeyUsageCertSign)
	require.NotZero(t, cert.KeyUsage&x509.KeyUsageDigitalSignature)
	require.NotZero(t, cert.KeyUsage&x509.KeyUsageKeyEncipherment)
	require.Contains(t, cert.ExtKeyUsage, x509.ExtKeyUsageServerAuth)

	require.Equal(t, cert.SubjectKeyId, cert.AuthorityKeyId)
	require.Equal(t, elliptic.P384(), root.Key.Curve)
}

func TestNewCASelfVerifies(t *testing.T) {
	root, err := New(testIdentity(), CurveP384)
	require.NoError(t, err)

	pool := x509.NewCertPool()
	pool.AddCert(root.Cert)
	_, err = root.Cert.Verify(x509.VerifyOptions{Roots: pool})
	require.NoError(t, err)
}

func TestNewCACurveP256(t *testing.T) {
	root, err := New(testIdentity(), CurveP256)
	require.NoError(t, err)
	require.Equal(t, elliptic.P256(), root.Key.Curve)
}

func TestLoadRoundTrip(t *testing.T) {
	root, err := New(testIdentity(), CurveP384)
	require.NoError(t, err)

	keyPEM, err := root.KeyPEM()
	require.NoError(t, err)

	loaded, err := Load(keyPEM, root.CertPEM())
	require.NoError(t, err)
	require.Equal(t, root.Thumbprint(), loaded.Thumbprint())
	require.True(t, root.Key.Equal(loaded.Key))
}

func TestLoadMalformed(t *testing.T) {
	root, err := New(testIdentity(), CurveP384)
	require.NoError(t, err)
	keyPEM, err := root.KeyPEM()
	require.NoError(t, err)

	tests := []struct {
		name    string
		keyPEM  []byte
		certPEM []byte
	}{
		{"garbage key", []byte("not pem at all"), root.CertPEM()},
		{"wrong key block type", root.CertPEM(), root.CertPEM()},
		{"garbage cert", keyPEM, []byte("-----BEGIN CERTIFICATE-----\naaaa\n-----END CERTIFICATE-----\n")},
		{"empty cert", keyPEM, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.keyPEM, tt.certPEM)
			require.ErrorIs(t, err, ErrMalformedPEM)
		})
	}
}

func TestParseCurve(t *testing.T) {
	c, err := ParseCurve("p256")
	require.NoError(t, err)
	require.Equal(t, CurveP256, c)

	c, err = ParseCurve("p384")
	require.NoError(t, err)
	require.Equal(t, CurveP384, c)

	_, err = ParseCurve("p521")
	require.Error(t, err)
}

func TestDefaultCurve(t *testing.T) {
	require.Equal(t, CurveP384, DefaultCurve)
}
