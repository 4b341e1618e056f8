// Copyright 2018 The mkcert Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package commands

import (
	"net"

	"golang.org/x/net/idna"

	"github.com/devca-dev/devca/internal/ca"
	"github.com/devca-dev/devca/internal/manager"
)

// NewCmd issues a server certificate signed by the installed CA, written to
// the current working directory.
type NewCmd struct {
	Cert  string   `help:"Output certificate file." default:"server.crt"`
	Key   string   `help:"Output private key file." default:"server.key"`
	Sans  []string `help:"Comma-separated subject alternative names (hostnames or IP literals)."`
	Curve string   `help:"Key curve for the issued certificate." enum:"p256,p384" default:"p384"`
}

func (cmd *NewCmd) Run(globals *Globals) error {
	setupLogging(globals.Debug)
	curve, err := ca.ParseCurve(cmd.Curve)
	if err != nil {
		return err
	}
	m, err := globals.manager(curve)
	if err != nil {
		return err
	}
	return m.IssueCert(manager.IssueRequest{
		CertFile: cmd.Cert,
		KeyFile:  cmd.Key,
		SANs:     normalizeSANs(cmd.Sans),
	})
}

// normalizeSANs converts internationalized hostnames to punycode, keeping the
// caller's order. IP literals and names IDNA cannot map are passed through
// unchanged for the certificate encoder to judge.
func normalizeSANs(sans []string) []string {
	out := make([]string, len(sans))
	for i, san := range sans {
		if ip := net.ParseIP(san); ip != nil {
			out[i] = san
			continue
		}
		if ascii, err := idna.ToASCII(san); err == nil {
			out[i] = ascii
			continue
		}
		out[i] = san
	}
	return out
}
