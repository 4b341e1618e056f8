// Copyright 2018 The mkcert Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package truststore

import (
	"bytes"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/devca-dev/devca/internal/ca"
)

type platformAdapter struct{}

// trustTarget probes the distribution's trust-source layout and returns the
// anchor path our certificate lives at plus the command that rebuilds the
// consolidated bundle.
func trustTarget() (anchor string, update []string, err error) {
	switch {
	case pathExists("/etc/pki/ca-trust/source/anchors/"):
		return "/etc/pki/ca-trust/source/anchors/devca-root-ca.pem",
			[]string{"update-ca-trust", "extract"}, nil
	case pathExists("/usr/local/share/ca-certificates/"):
		return "/usr/local/share/ca-certificates/devca-root-ca.crt",
			[]string{"update-ca-certificates"}, nil
	case pathExists("/etc/ca-certificates/trust-source/anchors/"):
		return "/etc/ca-certificates/trust-source/anchors/devca-root-ca.crt",
			[]string{"trust", "extract-compat"}, nil
	case pathExists("/usr/share/pki/trust/anchors/"):
		return "/usr/share/pki/trust/anchors/devca-root-ca.pem",
			[]string{"update-ca-certificates"}, nil
	}
	return "", nil, errors.New("no supported system trust store found (is the ca-certificates package installed?)")
}

func (platformAdapter) Add(certPath string) error {
	anchor, update, err := trustTarget()
	if err != nil {
		return err
	}
	cert, err := os.ReadFile(certPath)
	if err != nil {
		return fmt.Errorf("read CA certificate: %w", err)
	}
	cmd := commandWithSudo("tee", anchor)
	cmd.Stdin = bytes.NewReader(cert)
	// tee echoes the certificate; discard it from the error path output too.
	if out, err := cmd.CombinedOutput(); err != nil {
		return &CommandError{Cmd: strings.Join(cmd.Args, " "), Output: out, Err: err}
	}
	return run(commandWithSudo(update...))
}

func (platformAdapter) Remove(thumbprint string) error {
	anchor, update, err := trustTarget()
	if err != nil {
		return err
	}
	tp, err := anchorThumbprint(anchor)
	if errors.Is(err, os.ErrNotExist) {
		// Nothing of ours installed; the bundle needs no rebuild.
		return nil
	}
	if err != nil {
		return err
	}
	// The anchor lives at a fixed path; never delete a file holding someone
	// else's certificate.
	if !strings.EqualFold(tp, thumbprint) {
		return fmt.Errorf("anchor %s holds certificate %s, not %s; refusing to remove", anchor, tp, thumbprint)
	}
	if err := run(commandWithSudo("rm", "-f", anchor)); err != nil {
		return err
	}
	return run(commandWithSudo(update...))
}

func (platformAdapter) Contains(thumbprint string) (bool, error) {
	anchor, _, err := trustTarget()
	if err != nil {
		return false, err
	}
	tp, err := anchorThumbprint(anchor)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return strings.EqualFold(tp, thumbprint), nil
}

func anchorThumbprint(anchor string) (string, error) {
	data, err := os.ReadFile(anchor)
	if err != nil {
		return "", err
	}
	block, _ := pem.Decode(data)
	if block == nil || block.Type != "CERTIFICATE" {
		return "", fmt.Errorf("anchor %s is not a PEM certificate", anchor)
	}
	return ca.Thumbprint(block.Bytes), nil
}
