package main

import "github.com/voltlab/circuitforge/cmd/circuitforge/commands"

func main() {
	commands.Execute()
}
