// Copyright 2018 The mkcert Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ca

import (
	"crypto/sha1"
	"fmt"
)

// Thumbprint returns the SHA-1 digest of DER-encoded certificate bytes as
// uppercase hex. It is the durable handle used to find and remove the
// trust-store entry regardless of where the certificate file lives.
func Thumbprint(der []byte) string {
	sum := sha1.Sum(der)
	return fmt.Sprintf("%X", sum)
}
