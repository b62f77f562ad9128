// Package main is the entry point for the measures application
package main

import "github.com/chainsight/measures/cmd"

func main() {
	cmd.Execute()
}
