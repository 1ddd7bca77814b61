package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/JonMunkholm/payorsync/internal/core"
	"github.com/JonMunkholm/payorsync/internal/workbook"
	"github.com/spf13/cobra"
)

type compareOptions struct {
	oldPath    string
	newPath    string
	outDir     string
	duplicates string
	parallel   int
	dryRun     bool
}

func newCompareCmd() *cobra.Command {
	opts := &compareOptions{}

	cmd := &cobra.Command{
		Use:   "compare --old FILE --new FILE",
		Short: "Compare two workbooks and write the changes-only export",
		Long: `Compare the complete (old) workbook against the changes-only (new)
workbook. Every compared sheet gets a summary line and every detected price
change is listed. Unless --dry-run is set, the export is written to --out as
PayorAgreement_Changes_<date>.xlsx.`,
		Example: `  payorsync compare --old agreements.xlsx --new updates.xlsx
  payorsync compare --old agreements.xlsx --new updates.xlsx --out exports --duplicates reject
  payorsync compare --old agreements.xlsx --new updates.xlsx --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCompare(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.oldPath, "old", "", "complete workbook (required)")
	cmd.Flags().StringVar(&opts.newPath, "new", "", "changes-only workbook (required)")
	cmd.Flags().StringVarP(&opts.outDir, "out", "o", ".", "directory for the export workbook")
	cmd.Flags().StringVar(&opts.duplicates, "duplicates", string(core.LastWins), "duplicate key policy: last, first, reject")
	cmd.Flags().IntVar(&opts.parallel, "parallel", 1, "sheets compared concurrently")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "report changes without writing the export")
	_ = cmd.MarkFlagRequired("old")
	_ = cmd.MarkFlagRequired("new")

	return cmd
}

func runCompare(cmd *cobra.Command, opts *compareOptions) error {
	policy, err := core.ParseDuplicatePolicy(opts.duplicates)
	if err != nil {
		return err
	}

	oldFile, err := os.Open(opts.oldPath)
	if err != nil {
		return fmt.Errorf("open old workbook: %w", err)
	}
	defer oldFile.Close()

	newFile, err := os.Open(opts.newPath)
	if err != nil {
		return fmt.Errorf("open new workbook: %w", err)
	}
	defer newFile.Close()

	svc := core.NewService(workbook.New(), nil, core.ServiceConfig{
		MaxConcurrent:   1,
		ParallelSheets:  opts.parallel,
		DuplicatePolicy: policy,
	})

	ctx := cmd.Context()
	run, err := svc.Compare(ctx, core.CompareRequest{
		OldName: filepath.Base(opts.oldPath),
		Old:     oldFile,
		NewName: filepath.Base(opts.newPath),
		New:     newFile,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printReport(out, run.ChangeSet)

	if !run.ChangeSet.HasChanges() {
		fmt.Fprintln(out, "No price changes detected; nothing to export.")
		return nil
	}
	if opts.dryRun {
		fmt.Fprintf(out, "Dry run: %d export rows not written.\n", run.ChangeSet.ExportRowCount())
		return nil
	}

	file, err := svc.Export(ctx, run.ID)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	path := filepath.Join(opts.outDir, file.Name)
	if err := os.WriteFile(path, file.Data, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}

	fmt.Fprintf(out, "Wrote %s (%d rows)\n", path, run.ChangeSet.ExportRowCount())
	return nil
}

// printReport writes one summary line per compared sheet, then the changes.
func printReport(w io.Writer, cs *core.ChangeSet) {
	fmt.Fprintf(w, "Comparison date: %s\n", cs.ComparisonDate)
	if len(cs.SheetsCompared) == 0 {
		fmt.Fprintln(w, "No sheets could be compared.")
	}
	for _, name := range cs.SheetsCompared {
		s := cs.Summaries[name]
		fmt.Fprintf(w, "%s: total=%d found=%d not_found=%d changed=%d unchanged=%d\n",
			name, s.Total, s.Found, s.NotFound, s.Changed, s.Unchanged)
	}
	for _, c := range cs.Changes {
		fmt.Fprintln(w, "  "+c.Describe())
	}
}

