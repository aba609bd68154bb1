// Package main is the entry point for the notedown document tool. It
// manages the document store from the command line; the editing engine
// itself is consumed as a library by frontend surfaces.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/castlebay/notedown/internal/app"
	"github.com/castlebay/notedown/internal/engine/schema"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	var configPath, storageDir string
	var showVersion bool

	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.StringVar(&configPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&storageDir, "storage", "", "Document store directory")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Notedown - structured note engine\n\n")
		fmt.Fprintf(os.Stderr, "Usage: notedown [options] <command> [args]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  list                  List documents\n")
		fmt.Fprintf(os.Stderr, "  new                   Create an empty document\n")
		fmt.Fprintf(os.Stderr, "  show <id>             Print a document as JSON\n")
		fmt.Fprintf(os.Stderr, "  text <id>             Print a document's plain text\n")
		fmt.Fprintf(os.Stderr, "  rename <id> <title>   Retitle a document\n")
		fmt.Fprintf(os.Stderr, "  delete <id>           Delete a document\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if showVersion {
		fmt.Printf("Notedown %s (%s)\n", version, commit)
		return 0
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		return 1
	}

	application, err := app.New(app.Options{
		ConfigPath: configPath,
		StorageDir: storageDir,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer application.Close()

	if err := dispatch(application, args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func dispatch(a *app.Application, args []string) error {
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "list":
		return listDocuments(a)
	case "new":
		id, err := a.NewDocument()
		if err != nil {
			return err
		}
		if err := a.SaveDocument(); err != nil {
			return err
		}
		fmt.Println(id)
		return nil
	case "show":
		if len(rest) != 1 {
			return fmt.Errorf("usage: show <id>")
		}
		doc, err := a.Store().Load(rest[0])
		if err != nil {
			return err
		}
		data, err := schema.MarshalIndent(doc)
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	case "text":
		if len(rest) != 1 {
			return fmt.Errorf("usage: text <id>")
		}
		doc, err := a.Store().Load(rest[0])
		if err != nil {
			return err
		}
		fmt.Println(doc.TextContent())
		return nil
	case "rename":
		if len(rest) != 2 {
			return fmt.Errorf("usage: rename <id> <title>")
		}
		return a.RenameDocument(rest[0], rest[1])
	case "delete":
		if len(rest) != 1 {
			return fmt.Errorf("usage: delete <id>")
		}
		return a.DeleteDocument(rest[0])
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func listDocuments(a *app.Application) error {
	metas, err := a.Documents()
	if err != nil {
		return err
	}
	if len(metas) == 0 {
		fmt.Println("no documents")
		return nil
	}
	for _, m := range metas {
		title := m.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Printf("%s  %s  %s\n", m.ID, m.UpdatedAt.Format("2006-01-02 15:04"), title)
	}
	return nil
}
