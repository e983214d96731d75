package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra/doc"

	"github.com/arthur-debert/reciper/cmd/reciper"
	"github.com/arthur-debert/reciper/internal/version"
)

// Writes reciper(1) to stdout, or one page per command into the directory
// given as the only argument.
func main() {
	rootCmd := reciper.NewRootCmd()

	header := &doc.GenManHeader{
		Title:   "RECIPER",
		Section: "1",
		Source:  "reciper " + version.Version,
		Manual:  "reciper manual",
	}

	var err error
	switch len(os.Args) {
	case 1:
		err = doc.GenMan(rootCmd, header, os.Stdout)
	case 2:
		if err = os.MkdirAll(os.Args[1], 0755); err == nil {
			err = doc.GenManTree(rootCmd, header, os.Args[1])
		}
	default:
		fmt.Fprintf(os.Stderr, "Usage: %s [output-dir]\n", os.Args[0])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating man page: %v\n", err)
		os.Exit(1)
	}
}
