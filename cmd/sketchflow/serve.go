package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sketchflow-xyz/go-sketchflow/batch"
	"github.com/sketchflow-xyz/go-sketchflow/layout"
	"github.com/sketchflow-xyz/go-sketchflow/server"
)

func serve(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	envfile := fs.String("env", ".env", "Env file to load (missing file is ignored)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: sketchflow serve [options]

Serve the document API over HTTP. Configuration comes from the
environment:

  SKETCHFLOW_ADDR       Listen address (default :8080)
  SKETCHFLOW_DOC        Document file (default document.json)
  SKETCHFLOW_DB         Undo snapshot database (default: in-memory)
  SKETCHFLOW_LOG_LEVEL  Log level (default info)

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := server.LoadConfig(*envfile)
	logger := server.NewLogger(cfg.LogLevel)

	doc, err := loadDoc(cfg.DocPath)
	if err != nil {
		return err
	}
	hist, err := openHistory(cfg.DBPath)
	if err != nil {
		return err
	}
	defer hist.Close()

	exec := batch.New(hist)
	exec.Logger = logger
	exec.Layout = layout.Stack{Gap: 8}

	return server.New(doc, exec, hist, logger).Run(cfg.Addr)
}
