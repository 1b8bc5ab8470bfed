// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main provides build targets for the backoffice project using Mage.
//
// Usage:
//
//	mage build              Compile the backoffice binary to bin/
//	mage test:all           Run all tests (unit + integration)
//	mage test:unit          Run only unit tests (exclude integration)
//	mage test:integration   Run only integration tests (builds first)
//	mage test:cover         Write a coverage profile for unit tests
//	mage lint               Run golangci-lint
//	mage serve              Build and serve the admin API
//	mage clean              Remove build artifacts
//	mage install            Install backoffice to GOPATH/bin
//	mage stats              Print Go LOC and documentation word counts
package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binaryName = "backoffice"
	binaryDir  = "bin"
	cmdDir     = "./cmd/backoffice"
)

// Build compiles the backoffice binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	return sh.RunV(binGo, "build", "-v", "-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	return sh.RunV(binGo, "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output(binGo, "env", "GOPATH")
	if err != nil {
		return err
	}
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, src)
}

// Serve builds the binary and runs the HTTP API. Arguments after the target
// name are passed through, e.g. "mage serve --listen :9090 --backend memory".
func Serve() error {
	mg.Deps(Build)
	args := append([]string{"serve"}, targetArgs...)
	return sh.RunV(filepath.Join(binaryDir, binaryName), args...)
}
