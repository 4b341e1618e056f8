// Copyright 2018 The mkcert Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package commands implements the devca CLI commands. All configuration is
// resolved here, once, and handed to the core packages as explicit values.
package commands

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/devca-dev/devca/internal/ca"
	"github.com/devca-dev/devca/internal/manager"
	"github.com/devca-dev/devca/internal/truststore"
)

// Globals holds flags shared by every command.
type Globals struct {
	Debug   bool
	Dir     string
	Version string
}

// manager resolves the data directory, then wires the core components to the
// platform trust store. curve is used for freshly generated keys.
func (g *Globals) manager(curve ca.Curve) (*manager.Manager, error) {
	dir := g.Dir
	if dir == "" {
		dir = defaultDataDir()
	}
	if dir == "" {
		return nil, errors.New("failed to find the default data directory; set one with --dir or $DEVCA_DIR")
	}
	return manager.New(manager.Config{Dir: dir, Curve: curve}, truststore.Platform()), nil
}

// keylessManager builds a Manager for commands that never generate keys.
func (g *Globals) keylessManager() (*manager.Manager, error) {
	return g.manager(ca.DefaultCurve)
}

func setupLogging(debug bool) {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		Level(level).With().Timestamp().Logger()
}

// defaultDataDir follows each platform's convention for per-user application
// data.
func defaultDataDir() string {
	var dir string
	switch {
	case runtime.GOOS == "windows":
		dir = os.Getenv("LocalAppData")
	case os.Getenv("XDG_DATA_HOME") != "":
		dir = os.Getenv("XDG_DATA_HOME")
	case runtime.GOOS == "darwin":
		dir = os.Getenv("HOME")
		if dir == "" {
			return ""
		}
		dir = filepath.Join(dir, "Library", "Application Support")
	default: // Unix
		dir = os.Getenv("HOME")
		if dir == "" {
			return ""
		}
		dir = filepath.Join(dir, ".local", "share")
	}
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "devca")
}
