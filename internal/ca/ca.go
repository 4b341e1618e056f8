// Copyright 2018 The mkcert Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ca creates the self-signed development root CA and issues server
// certificates against it. Persistence is the caller's concern; this package
// only deals in keys, DER and PEM.
package ca

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha1"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/devca-dev/devca/internal/identity"
)

// ErrMalformedPEM reports key material that could not be decoded. It usually
// means the on-disk files were edited or truncated; reinstalling the CA
// replaces them.
var ErrMalformedPEM = errors.New("malformed PEM content")

// Curve selects the ECDSA curve used for freshly generated keys. The same
// curve is used for the root and for leaves so a reinstalled root never
// changes key family under an existing configuration.
type Curve int

const (
	CurveP256 Curve = iota
	CurveP384
)

// DefaultCurve is used when no curve is configured.
const DefaultCurve = CurveP384

// ParseCurve maps the CLI spelling to a Curve.
func ParseCurve(s string) (Curve, error) {
	switch s {
	case "p256":
		return CurveP256, nil
	case "p384":
		return CurveP384, nil
	}
	return 0, fmt.Errorf("unsupported curve %q (use p256 or p384)", s)
}

func (c Curve) String() string {
	switch c {
	case CurveP256:
		return "p256"
	case CurveP384:
		return "p384"
	}
	return "unknown"
}

func (c Curve) params() elliptic.Curve {
	if c == CurveP256 {
		return elliptic.P256()
	}
	return elliptic.P384()
}

// CA is a loaded or freshly generated root, ready to sign leaf certificates.
type CA struct {
	Key  *ecdsa.PrivateKey
	Cert *x509.Certificate
}

// New generates a root CA key pair and self-signs its certificate. The
// certificate is a CA with unconstrained path length, carries
// {digitalSignature, keyEncipherment, keyCertSign} key usages and the
// serverAuth extended usage, and lasts ten years.
func New(id identity.Identity, curve Curve) (*CA, error) {
	key, err := ecdsa.GenerateKey(curve.params(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate CA key: %w", err)
	}

	skid, err := subjectKeyID(&key.PublicKey)
	if err != nil {
		return nil, err
	}
	serial, err := randomSerial()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	tpl := &x509.Certificate{
		SerialNumber: serial,
		// The CommonName is required by iOS to show the certificate in the
		// "Certificate Trust Settings" menu.
		Subject: subject(id),

		SubjectKeyId:   skid,
		AuthorityKeyId: skid,

		NotBefore: now,
		NotAfter:  now.AddDate(10, 0, 0),

		KeyUsage: x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment |
			x509.KeyUsageCertSign,
		ExtKeyUsage: []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},

		BasicConstraintsValid: true,
		IsCA:                  true,
	}

	der, err := x509.CreateCertificate(rand.Reader, tpl, tpl, &key.PublicKey, key)
	if err != nil {
		return nil, fmt.Errorf("self-sign CA certificate: %w", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("parse generated CA certificate: %w", err)
	}

	return &CA{Key: key, Cert: cert}, nil
}

// Load reconstructs a signing CA from its persisted PEM key and certificate.
func Load(keyPEM, certPEM []byte) (*CA, error) {
	keyBlock, _ := pem.Decode(keyPEM)
	if keyBlock == nil || keyBlock.Type != "PRIVATE KEY" {
		return nil, fmt.Errorf("CA key: %w", ErrMalformedPEM)
	}
	keyAny, err := x509.ParsePKCS8PrivateKey(keyBlock.Bytes)
	if err != nil {
		return nil, fmt.Errorf("CA key: %w: %v", ErrMalformedPEM, err)
	}
	key, ok := keyAny.(*ecdsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("CA key is %T, want ECDSA: %w", keyAny, ErrMalformedPEM)
	}

	certBlock, _ := pem.Decode(certPEM)
	if certBlock == nil || certBlock.Type != "CERTIFICATE" {
		return nil, fmt.Errorf("CA certificate: %w", ErrMalformedPEM)
	}
	cert, err := x509.ParseCertificate(certBlock.Bytes)
	if err != nil {
		return nil, fmt.Errorf("CA certificate: %w: %v", ErrMalformedPEM, err)
	}

	return &CA{Key: key, Cert: cert}, nil
}

// Thumbprint returns the identifier recorded for later trust-store removal.
func (c *CA) Thumbprint() string {
	return Thumbprint(c.Cert.Raw)
}

// CertPEM returns the certificate in PEM form.
func (c *CA) CertPEM() []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: c.Cert.Raw})
}

// KeyPEM returns the private key as a PKCS#8 PEM block.
func (c *CA) KeyPEM() ([]byte, error) {
	return keyPEM(c.Key)
}

func keyPEM(key *ecdsa.PrivateKey) ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("encode private key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), nil
}

func subject(id identity.Identity) pkix.Name {
	return pkix.Name{
		CommonName:         id.CommonName,
		Locality:           []string{id.Locality},
		Country:            []string{id.Country},
		OrganizationalUnit: []string{id.OrgUnit},
		Organization:       []string{id.OrgName},
	}
}

// subjectKeyID is the SHA-1 of the subject public key bit string (RFC 5280
// method 1).
func subjectKeyID(pub *ecdsa.PublicKey) ([]byte, error) {
	spkiASN1, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("encode public key: %w", err)
	}
	var spki struct {
		Algorithm        pkix.AlgorithmIdentifier
		SubjectPublicKey asn1.BitString
	}
	if _, err := asn1.Unmarshal(spkiASN1, &spki); err != nil {
		return nil, fmt.Errorf("decode public key: %w", err)
	}
	skid := sha1.Sum(spki.SubjectPublicKey.Bytes)
	return skid[:], nil
}

// randomSerial draws a random 128-bit serial. X.509 serials must be unique
// per CA; this much entropy makes tracking state unnecessary.
func randomSerial() (*big.Int, error) {
	limit := new(big.Int).Lsh(big.NewInt(1), 128)
	serial, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return nil, fmt.Errorf("generate serial number: %w", err)
	}
	return serial, nil
}
