// Package main is the entry point for chatwatch.
package main

import (
	"github.com/donaldgifford/chatwatch/cmd/chatwatch/cmd"
)

func main() {
	cmd.Execute()
}
