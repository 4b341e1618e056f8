// Copyright 2018 The mkcert Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package truststore

import (
	"fmt"
	"os"
	"strings"

	"howett.net/plist"
)

const systemKeychain = "/Library/Keychains/System.keychain"

type platformAdapter struct{}

func (platformAdapter) Add(certPath string) error {
	return run(commandWithSudo("security", "add-trusted-cert", "-d",
		"-r", "trustRoot", "-k", systemKeychain, certPath))
}

func (platformAdapter) Remove(thumbprint string) error {
	// -Z addresses the certificate by SHA-1 hash, so the keychain entry is
	// found even after the original file is gone.
	return run(commandWithSudo("security", "delete-certificate",
		"-Z", thumbprint, systemKeychain))
}

// Contains exports the admin trust settings, which key each trusted
// certificate by its SHA-1 fingerprint.
func (platformAdapter) Contains(thumbprint string) (bool, error) {
	f, err := os.CreateTemp("", "devca-trust-settings-*.plist")
	if err != nil {
		return false, fmt.Errorf("create trust settings file: %w", err)
	}
	f.Close()
	defer os.Remove(f.Name())

	if err := run(commandWithSudo("security", "trust-settings-export", "-d", f.Name())); err != nil {
		return false, err
	}
	data, err := os.ReadFile(f.Name())
	if err != nil {
		return false, fmt.Errorf("read trust settings: %w", err)
	}

	var settings struct {
		TrustList map[string]interface{} `plist:"trustList"`
	}
	if _, err := plist.Unmarshal(data, &settings); err != nil {
		return false, fmt.Errorf("parse trust settings: %w", err)
	}
	for key := range settings.TrustList {
		if strings.EqualFold(key, thumbprint) {
			return true, nil
		}
	}
	return false, nil
}
