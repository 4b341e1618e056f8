// Copyright 2018 The mkcert Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ca

import (
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"net"
	"time"

	"github.com/devca-dev/devca/internal/identity"
)

// Leaf is a freshly issued server certificate and its private key. The
// package keeps no record of issued leaves; ownership transfers to whatever
// files the caller writes them to.
type Leaf struct {
	Key  *ecdsa.PrivateKey
	Cert *x509.Certificate
}

// IssueServer issues a server certificate signed by the root. The subject
// mirrors the identity, and the SAN extension enumerates sans in the order
// given: entries are not deduplicated, canonicalized or validated here, so a
// name the x509 encoder cannot represent fails the whole operation. An empty
// sans list is allowed and produces a certificate usable only by common name.
func (c *CA) IssueServer(id identity.Identity, sans []string, curve Curve) (*Leaf, error) {
	key, err := ecdsa.GenerateKey(curve.params(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate certificate key: %w", err)
	}

	skid, err := subjectKeyID(&key.PublicKey)
	if err != nil {
		return nil, err
	}
	serial, err := randomSerial()
	if err != nil {
		return nil, err
	}

	// Certificates last for 2 years and 3 months, which is always less than
	// 825 days, the limit that macOS/iOS apply to all certificates,
	// including custom roots. See https://support.apple.com/en-us/HT210176.
	now := time.Now()
	tpl := &x509.Certificate{
		SerialNumber: serial,
		Subject:      subject(id),

		SubjectKeyId:   skid,
		AuthorityKeyId: c.Cert.SubjectKeyId,

		NotBefore: now,
		NotAfter:  now.AddDate(2, 3, 0),

		KeyUsage:    x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage: []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}

	for _, san := range sans {
		if ip := net.ParseIP(san); ip != nil {
			tpl.IPAddresses = append(tpl.IPAddresses, ip)
		} else {
			tpl.DNSNames = append(tpl.DNSNames, san)
		}
	}

	der, err := x509.CreateCertificate(rand.Reader, tpl, c.Cert, &key.PublicKey, c.Key)
	if err != nil {
		return nil, fmt.Errorf("sign server certificate: %w", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("parse issued certificate: %w", err)
	}

	return &Leaf{Key: key, Cert: cert}, nil
}

// CertPEM returns the certificate in PEM form.
func (l *Leaf) CertPEM() []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: l.Cert.Raw})
}

// KeyPEM returns the private key as a PKCS#8 PEM block.
func (l *Leaf) KeyPEM() ([]byte, error) {
	return keyPEM(l.Key)
}
