package main

import (
	"os"

	"github.com/nikbrunner/li/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
