// kvterm - A terminal console for a remote command interpreter.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"os"

	"github.com/jeranaias/kvterm/internal/cli"
)

// Set via -ldflags "-X main.version=..." at release time.
var version = ""

func main() {
	if version != "" {
		cli.Version = version
	}
	os.Exit(cli.Execute())
}
