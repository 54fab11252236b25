// Package main is the entry point for the alexterm terminal client.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "alexterm: %v\n", err)
		os.Exit(1)
	}
}
