// Copyright 2018 The mkcert Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package truststore

import (
	"os"
	"os/exec"
	"os/user"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func binaryExists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

var sudoWarningOnce sync.Once

// commandWithSudo wraps cmd with sudo unless the process already runs as
// root. Trust-store mutation needs elevated rights on darwin and linux.
func commandWithSudo(cmd ...string) *exec.Cmd {
	if u, err := user.Current(); err == nil && u.Uid == "0" {
		return exec.Command(cmd[0], cmd[1:]...)
	}
	if !binaryExists("sudo") {
		sudoWarningOnce.Do(func() {
			log.Warn().Msg(`"sudo" is not available, and devca is not running as root; the trust-store operation might fail`)
		})
		return exec.Command(cmd[0], cmd[1:]...)
	}
	return exec.Command("sudo", append([]string{"--prompt=Sudo password:", "--"}, cmd...)...)
}

// run executes the command and converts a non-zero exit into a CommandError
// with the tool's diagnostics attached.
func run(cmd *exec.Cmd) error {
	out, err := cmd.CombinedOutput()
	if err != nil {
		return &CommandError{Cmd: strings.Join(cmd.Args, " "), Output: out, Err: err}
	}
	return nil
}
