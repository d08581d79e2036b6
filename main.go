package main

import (
	"fmt"
	"os"

	cmd "github.com/liliang-cn/toolbridge/cmd/toolbridge"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cmd.SetVersion(version)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
