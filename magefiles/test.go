//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const coverProfile = "coverage.out"

// goldenPackages hold goldie fixtures under testdata/.
var goldenPackages = []string{"./pkg/overlay/..."}

// Test groups test targets.
type Test mg.Namespace

// All runs every test.
func (Test) All() error {
	return sh.RunV(binGo, "test", "./...")
}

// Race runs every test with the race detector; subscriptions and scope
// locks are the interesting part.
func (Test) Race() error {
	return sh.RunV(binGo, "test", "-race", "./...")
}

// Cover writes coverage.out and prints per-function coverage.
func (Test) Cover() error {
	if err := sh.RunV(binGo, "test", "-coverprofile="+coverProfile, "./..."); err != nil {
		return err
	}
	return sh.RunV(binGo, "tool", "cover", "-func="+coverProfile)
}

// Golden regenerates golden files after an intended output change.
func (Test) Golden() error {
	args := append([]string{"test"}, goldenPackages...)
	return sh.RunV(binGo, append(args, "-update")...)
}
