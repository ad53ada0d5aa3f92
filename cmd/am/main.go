package main

import (
	"amcli/internal/cliapp"
	"os"
)

func main() {
	os.Exit(cliapp.Run(os.Args[1:]))
}
