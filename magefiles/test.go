// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Test groups test targets (all, unit, integration, cover).
type Test mg.Namespace

type testConfig struct {
	run   string
	race  bool
	count int
}

func parseTestFlags() testConfig {
	var cfg testConfig
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.StringVar(&cfg.run, "run", "", "only run tests matching the pattern")
	fs.BoolVar(&cfg.race, "race", false, "enable the race detector")
	fs.IntVar(&cfg.count, "count", 0, "run each test n times (1 disables caching)")
	parseTargetFlags(fs)
	return cfg
}

func (cfg testConfig) args(pkgs ...string) []string {
	args := []string{"test", "-v"}
	if cfg.run != "" {
		args = append(args, "-run", cfg.run)
	}
	if cfg.race {
		args = append(args, "-race")
	}
	if cfg.count > 0 {
		args = append(args, fmt.Sprintf("-count=%d", cfg.count))
	}
	return append(args, pkgs...)
}

// All runs all tests (unit and integration).
func (Test) All() error {
	return sh.RunV(binGo, parseTestFlags().args("./...")...)
}

// Unit runs only unit tests, excluding the tests/ directory.
func (Test) Unit() error {
	pkgs, err := unitPackages()
	if err != nil {
		return err
	}
	if len(pkgs) == 0 {
		fmt.Println("No unit test packages found.")
		return nil
	}
	return sh.RunV(binGo, parseTestFlags().args(pkgs...)...)
}

// Integration builds first, then runs only integration tests.
func (Test) Integration() error {
	if _, err := os.Stat("tests"); os.IsNotExist(err) {
		fmt.Println("No integration test directory found (tests/).")
		return nil
	}
	mg.Deps(Build)
	return sh.RunV(binGo, parseTestFlags().args("./tests/...")...)
}

// Cover writes coverage.out for the unit test packages and prints the total.
func (Test) Cover() error {
	pkgs, err := unitPackages()
	if err != nil {
		return err
	}
	args := append([]string{"test", "-coverprofile=coverage.out"}, pkgs...)
	if err := sh.RunV(binGo, args...); err != nil {
		return err
	}
	out, err := sh.Output(binGo, "tool", "cover", "-func=coverage.out")
	if err != nil {
		return err
	}
	lines := strings.Split(out, "\n")
	fmt.Println(lines[len(lines)-1])
	return nil
}

func unitPackages() ([]string, error) {
	out, err := sh.Output(binGo, "list", "./...")
	if err != nil {
		return nil, err
	}
	var pkgs []string
	for pkg := range strings.SplitSeq(out, "\n") {
		if pkg != "" && !strings.Contains(pkg, "/tests/") && !strings.HasSuffix(pkg, "/tests") {
			pkgs = append(pkgs, pkg)
		}
	}
	return pkgs, nil
}
