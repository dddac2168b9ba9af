// Package main provides the archid CLI.
package main

import (
	"fmt"
	"io"
	"os"
)

const version = "v0.1.0-dev"

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stdout)
		return exitOK
	}

	switch args[0] {
	case "version":
		fmt.Fprintf(stdout, "archid %s\n", version)
		return exitOK
	case "detect":
		return cmdDetect(args[1:], stdout, stderr)
	case "rules":
		return cmdRules(stdout)
	case "config":
		return cmdConfig(stdout, stderr)
	case "help", "-h", "--help":
		usage(stdout)
		return exitOK
	default:
		fmt.Fprintf(stderr, "archid: unknown command %q\n\n", args[0])
		usage(stderr)
		return exitUsage
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "archid - identify image model architectures from checkpoint keys")
	fmt.Fprintf(w, "Version: %s\n\n", version)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  detect [--json] [--no-hints] <file>...   Detect the architecture of checkpoints")
	fmt.Fprintln(w, "  rules                                    List detection rules in priority order")
	fmt.Fprintln(w, "  config                                   Print the effective configuration")
	fmt.Fprintln(w, "  version                                  Show version")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Supported files: .safetensors, .yaml, .yml, .json (key manifests)")
}
