// Copyright 2018 The mkcert Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package identity holds the distinguished-name attributes used for every
// certificate subject, plus the thumbprint of the currently installed CA.
package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Fallback values applied to any attribute missing from the persisted record.
const (
	DefaultCommonName = "Devca Development CA"
	DefaultLocality   = "San Francisco"
	DefaultCountry    = "US"
	DefaultOrgUnit    = "Development"
	DefaultOrgName    = "devca"
)

// Identity carries the subject attributes for the root CA and every leaf
// issued under it. Thumbprint is set iff a CA is currently recorded as
// installed in the system trust store.
type Identity struct {
	CommonName string `json:"common_name"`
	Locality   string `json:"locality"`
	Country    string `json:"country"`
	OrgUnit    string `json:"org_unit"`
	OrgName    string `json:"org_name"`
	Thumbprint string `json:"thumbprint,omitempty"`
}

// Default returns an Identity with every attribute set to its fallback value
// and no thumbprint recorded.
func Default() Identity {
	return Identity{
		CommonName: DefaultCommonName,
		Locality:   DefaultLocality,
		Country:    DefaultCountry,
		OrgUnit:    DefaultOrgUnit,
		OrgName:    DefaultOrgName,
	}
}

// Installed reports whether a CA thumbprint is recorded.
func (id Identity) Installed() bool {
	return id.Thumbprint != ""
}

// withDefaults fills empty attributes, so a hand-edited record with missing
// fields still yields a complete subject.
func (id Identity) withDefaults() Identity {
	if id.CommonName == "" {
		id.CommonName = DefaultCommonName
	}
	if id.Locality == "" {
		id.Locality = DefaultLocality
	}
	if id.Country == "" {
		id.Country = DefaultCountry
	}
	if id.OrgUnit == "" {
		id.OrgUnit = DefaultOrgUnit
	}
	if id.OrgName == "" {
		id.OrgName = DefaultOrgName
	}
	return id
}

// Store reads and writes the identity record as a flat JSON document at a
// fixed per-user path.
type Store struct {
	Path string
}

// Load reads the record, creating it with defaults on first use.
func (s *Store) Load() (Identity, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		id := Default()
		if err := s.Save(id); err != nil {
			return Identity{}, err
		}
		return id, nil
	}
	if err != nil {
		return Identity{}, fmt.Errorf("read identity file: %w", err)
	}
	var id Identity
	if err := json.Unmarshal(data, &id); err != nil {
		return Identity{}, fmt.Errorf("parse identity file %s: %w", s.Path, err)
	}
	return id.withDefaults(), nil
}

// Save persists the record, creating the parent directory if needed. The
// caller must not let the process exit between mutating the thumbprint and a
// successful Save.
func (s *Store) Save(id Identity) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0700); err != nil {
		return fmt.Errorf("create identity directory: %w", err)
	}
	data, err := json.MarshalIndent(id, "", "  ")
	if err != nil {
		return fmt.Errorf("encode identity: %w", err)
	}
	if err := os.WriteFile(s.Path, append(data, '\n'), 0600); err != nil {
		return fmt.Errorf("write identity file: %w", err)
	}
	return nil
}
