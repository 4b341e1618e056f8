// Copyright 2018 The mkcert Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package truststore

import "os/exec"

type platformAdapter struct{}

// certutil addresses the machine Root store by certificate file on add and by
// SHA-1 thumbprint on delete/verify, so no file path needs to survive until
// uninstall.

func (platformAdapter) Add(certPath string) error {
	return run(exec.Command("certutil", "-addstore", "Root", certPath))
}

func (platformAdapter) Remove(thumbprint string) error {
	return run(exec.Command("certutil", "-delstore", "Root", thumbprint))
}

func (platformAdapter) Contains(thumbprint string) (bool, error) {
	// -verifystore exits non-zero when the entry is absent.
	err := exec.Command("certutil", "-verifystore", "Root", thumbprint).Run()
	return err == nil, nil
}
