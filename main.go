// Package main is the entry point for the zerg capture codec.
package main

import (
	"os"

	"firestige.xyz/zerg/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
