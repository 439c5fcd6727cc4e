package main

import (
	"nbexit/cmd"

	_ "go.uber.org/automaxprocs"
)

func main() {
	cmd.Execute()
}
