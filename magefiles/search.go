// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Search builds the CLI and runs a search for $KEYWORD.
func Search() error {
	keyword := os.Getenv("KEYWORD")
	if keyword == "" {
		return fmt.Errorf("set KEYWORD to the search term")
	}
	mg.Deps(Build)
	return sh.RunV(binDir+"/"+binName, "search", keyword)
}

// Quota prints today's search usage.
func Quota() error {
	mg.Deps(Build)
	return sh.RunV(binDir+"/"+binName, "quota")
}

// Serve builds the CLI and starts the HTTP API.
func Serve() error {
	mg.Deps(Build)
	return sh.RunV(binDir+"/"+binName, "serve")
}
