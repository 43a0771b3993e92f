package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/sketchflow-xyz/go-sketchflow/instance"
	"github.com/sketchflow-xyz/go-sketchflow/scene"
)

func show(args []string) error {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	docPath := fs.String("doc", "document.json", "Document file")
	depth := fs.Int("depth", -1, "Serialization depth (-1 for unlimited)")
	resolve := fs.String("resolve", "", "Resolve and print one instance node instead of the tree")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: sketchflow show [options]

Print a document's node tree as JSON.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	doc, err := loadDoc(*docPath)
	if err != nil {
		return err
	}

	var out any
	if *resolve != "" {
		n := doc.Get(*resolve)
		if n == nil {
			return fmt.Errorf("node %s not found", *resolve)
		}
		if n.Type != scene.KindRef {
			return fmt.Errorf("node %s is not an instance", *resolve)
		}
		t := instance.Resolve(doc, n)
		if t == nil {
			fmt.Println("{}")
			return nil
		}
		out = scene.TreeView(t)
	} else {
		roots := make([]any, 0, len(doc.Roots))
		for _, id := range doc.Roots {
			if v := doc.View(id, *depth); v != nil {
				roots = append(roots, v)
			}
		}
		out = map[string]any{"roots": roots}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
