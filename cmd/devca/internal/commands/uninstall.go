// Copyright 2018 The mkcert Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package commands

// UninstallCACmd removes the local CA from the system trust store and
// deletes its key material.
type UninstallCACmd struct{}

func (cmd *UninstallCACmd) Run(globals *Globals) error {
	setupLogging(globals.Debug)
	m, err := globals.keylessManager()
	if err != nil {
		return err
	}
	return m.UninstallCA()
}
