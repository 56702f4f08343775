// Command gen-manpages generates man pages for stepwise and all of its
// subcommands with cobra's doc package. With -markdown it writes Markdown
// reference pages instead.
//
// Usage:
//
//	go run ./scripts/gen-manpages [-markdown] [output-dir]
//
// The default output directory is "man/man1" for man pages and "docs/cli"
// for Markdown.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra/doc"
	"github.com/spf13/pflag"

	"github.com/AbdelazizMoustafa10m/Stepwise/internal/cli"
)

func main() {
	fs := pflag.NewFlagSet("gen-manpages", pflag.ExitOnError)
	markdown := fs.Bool("markdown", false, "Write Markdown instead of man pages")
	_ = fs.Parse(os.Args[1:])

	outDir := "man/man1"
	if *markdown {
		outDir = "docs/cli"
	}
	if fs.NArg() > 0 {
		outDir = fs.Arg(0)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "error creating output dir %q: %v\n", outDir, err)
		os.Exit(1)
	}

	root := cli.NewRootCmd()
	root.DisableAutoGenTag = true

	var err error
	if *markdown {
		err = doc.GenMarkdownTree(root, outDir)
	} else {
		err = doc.GenManTree(root, &doc.GenManHeader{
			Title:   "STEPWISE",
			Section: "1",
			Source:  "Stepwise",
			Manual:  "Stepwise Manual",
		}, outDir)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error generating docs: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Docs generated in %s/\n", outDir)
}
