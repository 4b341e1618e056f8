// Copyright 2018 The mkcert Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command devca manages a locally-trusted development certificate authority:
// it creates a self-signed root CA, installs it in the system trust store,
// and issues server certificates signed by it.
package main

import (
	"github.com/alecthomas/kong"

	"github.com/devca-dev/devca/cmd/devca/internal/commands"
)

// version can be set at link time.
var version = "dev"

var cli struct {
	InstallCa   commands.InstallCACmd   `cmd:"" name:"install-ca" help:"Create a local CA and install it in the system trust store."`
	UninstallCa commands.UninstallCACmd `cmd:"" name:"uninstall-ca" help:"Remove the local CA from the system trust store and delete its key material."`
	New         commands.NewCmd         `cmd:"" help:"Create a new certificate signed by the local CA."`

	Dir     string           `help:"Data directory holding the CA key material and identity record." env:"DEVCA_DIR"`
	Debug   bool             `help:"Enable debug logging."`
	Version kong.VersionFlag `help:"Show version."`
}

func main() {
	cmd := kong.Parse(&cli,
		kong.Name("devca"),
		kong.Description("A simple tool for locally-trusted development certificates."),
		kong.Vars{"version": version},
	)
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Dir: cli.Dir, Version: version})
	cmd.FatalIfErrorf(err)
}
