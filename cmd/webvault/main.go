// Package main is the entry point for the webvault binary.
package main

import "github.com/webvault/webvault/cmd"

func main() {
	cmd.Execute()
}
