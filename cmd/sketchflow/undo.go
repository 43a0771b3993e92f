package main

import (
	"flag"
	"fmt"
	"os"
)

func undo(args []string) error {
	fs := flag.NewFlagSet("undo", flag.ExitOnError)
	docPath := fs.String("doc", "document.json", "Document file")
	histPath := fs.String("history", "", "Undo snapshot database (required)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: sketchflow undo [options]

Revert the document to the snapshot taken before the most recent batch.
Requires a persistent history database written by 'run --history'.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *histPath == "" {
		fs.Usage()
		return fmt.Errorf("--history is required")
	}

	hist, err := openHistory(*histPath)
	if err != nil {
		return err
	}
	defer hist.Close()

	snap, err := hist.Pop()
	if err != nil {
		return err
	}
	if err := saveDoc(snap, *docPath); err != nil {
		return err
	}
	fmt.Printf("Reverted %s (%d snapshots remaining)\n", *docPath, hist.Len())
	return nil
}
