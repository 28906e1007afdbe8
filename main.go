package main

import (
	"club-registration/cmd"

	_ "go.uber.org/automaxprocs"
)

func main() {
	cmd.Start()
}
