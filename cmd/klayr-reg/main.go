// klayr-reg registers a sidechain on the Klayr mainchain and the
// mainchain on the sidechain.
//
// Usage:
//
//	klayr-reg --side-name=<name> --keys=<path> --main-ws=<url> --side-ipc=<path> [flags]
//	klayr-reg --help
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
