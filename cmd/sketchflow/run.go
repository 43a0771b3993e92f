package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/sketchflow-xyz/go-sketchflow/batch"
)

func run(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	docPath := fs.String("doc", "document.json", "Document file")
	histPath := fs.String("history", "", "Undo snapshot database (default: in-memory)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: sketchflow run <script-file> [options]

Execute a batch operation script against a document. The whole script is
one transaction: on any failure the document file is left unchanged.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Insert a frame with a text child
  sketchflow run edits.txt --doc design.json

  # Keep undo history across runs
  sketchflow run edits.txt --doc design.json --history design-undo.db
`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return fmt.Errorf("script file required")
	}

	text, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("reading script: %w", err)
	}
	doc, err := loadDoc(*docPath)
	if err != nil {
		return err
	}
	hist, err := openHistory(*histPath)
	if err != nil {
		return err
	}
	defer hist.Close()

	result := batch.New(hist).Run(doc, string(text))

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))

	if !result.Success {
		return fmt.Errorf("batch rolled back")
	}
	return saveDoc(doc, *docPath)
}
