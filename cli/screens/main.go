package main

import (
	"os"

	screenscmder "github.com/papercomputeco/screens/cmd/screens"
)

func main() {
	cmd := screenscmder.NewScreensCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
