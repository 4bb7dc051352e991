package backups

import (
	"fmt"
	"io"
	"os"

	"github.com/julianstephens/habitguard/internal/backup"
	"github.com/julianstephens/habitguard/internal/cli"
)

type ExportCmd struct {
	Format string `help:"Output format." default:"json" enum:"json,yaml"`
	Output string `help:"File to write, '-' for stdout (default: a timestamped file in the current directory)." short:"o" default:""`
}

func (c *ExportCmd) Run(ctx *cli.Context) error {
	doc, err := backup.BuildDocument(ctx.Store)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	if c.Output == "-" {
		return backup.WriteDocument(os.Stdout, doc, c.Format)
	}

	path := c.Output
	if path == "" {
		path = backup.ExportFileName(c.Format)
	}
	if err := writeFile(path, func(w io.Writer) error {
		return backup.WriteDocument(w, doc, c.Format)
	}); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	rows := 0
	for _, table := range doc.Data {
		rows += len(table)
	}
	fmt.Printf("✓ Exported %d rows from %d tables to %s\n", rows, len(doc.Data), path)
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
