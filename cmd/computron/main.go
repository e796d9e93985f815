package main

import (
	"embed"
	"fmt"
	"os"

	"github.com/zurustar/computron/pkg/app"
)

//go:embed levels
var embeddedLevels embed.FS

func main() {
	application := app.New(embeddedLevels)
	if err := application.Run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
