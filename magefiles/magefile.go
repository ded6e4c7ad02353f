//go:build mage

// Package main provides build targets for the pictoboard project using Mage.
//
// Usage:
//
//	mage build          Compile the pictoboard binary to bin/
//	mage install        Install pictoboard to GOPATH/bin
//	mage clean          Remove build artifacts
//	mage test:all       Run every test
//	mage test:race      Run every test with the race detector
//	mage test:cover     Write coverage.out and print per-function coverage
//	mage test:golden    Regenerate golden files
//	mage lint           Run golangci-lint
//	mage stats          Print Go LOC per package
package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binaryName = "pictoboard"
	binaryDir  = "bin"
	cmdDir     = "./cmd/pictoboard"
)

// Build compiles the pictoboard binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	return sh.RunV(binGo, "build", "-v", "-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// Clean removes build artifacts.
func Clean() error {
	for _, path := range []string{binaryDir, coverProfile} {
		if err := os.RemoveAll(path); err != nil {
			return err
		}
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
