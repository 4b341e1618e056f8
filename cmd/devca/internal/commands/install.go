// Copyright 2018 The mkcert Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package commands

import "github.com/devca-dev/devca/internal/ca"

// InstallCACmd creates the local root CA and registers it in the system
// trust store.
type InstallCACmd struct {
	Curve string `help:"Key curve for the CA and issued certificates." enum:"p256,p384" default:"p384"`
}

func (cmd *InstallCACmd) Run(globals *Globals) error {
	setupLogging(globals.Debug)
	curve, err := ca.ParseCurve(cmd.Curve)
	if err != nil {
		return err
	}
	m, err := globals.manager(curve)
	if err != nil {
		return err
	}
	return m.InstallCA()
}
