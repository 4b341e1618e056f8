// Copyright 2018 The mkcert Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package truststore abstracts platform-specific trust-store manipulation
// behind a small add/remove capability, with one implementation per target
// platform selected at build time.
package truststore

import "fmt"

// Adapter registers and removes a root certificate from the operating
// system's trust store. Implementations treat the operations as opaque
// boolean-success commands and surface the platform tool's diagnostics on
// failure.
type Adapter interface {
	// Add registers the certificate at certPath as a trusted root.
	Add(certPath string) error
	// Remove deletes the trust-store entry identified by its SHA-1
	// thumbprint.
	Remove(thumbprint string) error
	// Contains reports whether an entry with the given thumbprint is
	// currently trusted.
	Contains(thumbprint string) (bool, error)
}

// Platform returns the adapter for the build target.
func Platform() Adapter {
	return platformAdapter{}
}

// CommandError reports a failed trust-store command, carrying its combined
// output verbatim for the user.
type CommandError struct {
	Cmd    string
	Output []byte
	Err    error
}

func (e *CommandError) Error() string {
	if len(e.Output) == 0 {
		return fmt.Sprintf("%q: %v", e.Cmd, e.Err)
	}
	return fmt.Sprintf("%q: %v\n%s", e.Cmd, e.Err, e.Output)
}

func (e *CommandError) Unwrap() error { return e.Err }
