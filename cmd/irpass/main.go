// Package main provides the irpass CLI.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/born-ml/irpass/internal/config"
	"github.com/born-ml/irpass/normalize"
)

const version = "v0.0.1-dev"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version":
			fmt.Printf("irpass %s\n", version)
			return
		case "passes":
			if err := listPasses(os.Stdout, os.Args[2:]); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			return
		}
	}

	fmt.Println("irpass - IR graph normalization passes")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version                  Show version")
	fmt.Println("  passes [-config FILE]    List enabled passes in execution order")
}

func listPasses(w io.Writer, args []string) error {
	fs := flag.NewFlagSet("passes", flag.ContinueOnError)
	fs.SetOutput(w)
	configPath := fs.String("config", "", "YAML settings file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	opts := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		opts = *loaded
	}

	reg, err := normalize.Default()
	if err != nil {
		return err
	}
	enabled, _, err := opts.Apply(reg, opts.Logger(os.Stderr), nil)
	if err != nil {
		return err
	}

	for _, name := range enabled.Names() {
		p, _ := enabled.Get(name)
		fmt.Fprintf(w, "%-32s priority=%d\n", name, p.Priority)
	}
	return nil
}
