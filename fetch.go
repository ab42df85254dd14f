package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"rubric-report-go/db"
	"rubric-report-go/export"
	"rubric-report-go/report"
)

var (
	tokensFile string
	outDir     string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch rubric data once and write the report files",
	Long: `fetch reads a tokens file (.csv or .xlsx with Token, URL and optional
Institution columns), pulls every course it can reach and writes the raw,
aggregated, frequency and comment tables plus a combined workbook.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().StringVar(&tokensFile, "tokens", "", "tokens file (.csv or .xlsx)")
	fetchCmd.Flags().StringVar(&outDir, "out", ".", "output directory")
	_ = fetchCmd.MarkFlagRequired("tokens")
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	f, err := os.Open(tokensFile)
	if err != nil {
		return errors.Wrap(err, "open tokens file")
	}
	creds, err := db.NewCredentialImporter(logger).Import(f, filepath.Base(tokensFile))
	f.Close()
	if err != nil {
		return err
	}
	if len(creds) == 0 {
		return errors.Errorf("no valid credentials in %s", tokensFile)
	}

	out := cmd.OutOrStdout()
	progress := func(masked string, courses int) {
		fmt.Fprintf(out, "Token %s found %d courses\n", masked, courses)
	}
	res := newExtractor(cfg, logger, progress).Run(cmd.Context(), creds)
	for _, fe := range res.Errors {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s %s: %s\n", fe.Scope, fe.Ref, fe.Message)
	}
	if len(res.Rows) == 0 {
		return errors.New("no rubric data found")
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return errors.Wrap(err, "create output directory")
	}
	summary := report.Summarize(res.Rows, report.AllDimensions)
	freq := report.Frequency(res.Rows)
	tables := map[string][][]string{
		export.RawFile:       export.RawRecords(res.Rows),
		export.SummaryFile:   export.SummaryRecords(summary),
		export.FrequencyFile: export.FrequencyRecords(freq, report.DimCriterion),
		export.CommentsFile:  export.CommentRecords(res.Comments),
	}
	for name, records := range tables {
		if err := writeFile(filepath.Join(outDir, name), func(f *os.File) error {
			return export.WriteCSV(f, records)
		}); err != nil {
			return err
		}
	}
	err = writeFile(filepath.Join(outDir, export.WorkbookFile), func(f *os.File) error {
		return export.WriteWorkbook(f,
			export.Sheet{Name: "Raw", Records: tables[export.RawFile]},
			export.Sheet{Name: "Summary", Records: tables[export.SummaryFile]},
			export.Sheet{Name: "Frequency", Records: tables[export.FrequencyFile]},
		)
	})
	if err != nil {
		return err
	}

	stats := report.Describe(res.Rows)
	logger.Info("report written",
		zap.String("dir", outDir),
		zap.Int("rows", stats.Rows),
		zap.Int("courses", stats.Courses),
		zap.Int("students", stats.Students),
		zap.Int("comments", len(res.Comments)),
		zap.Int("errors", len(res.Errors)))
	return nil
}

func writeFile(path string, fill func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	if err := fill(f); err != nil {
		f.Close()
		return err
	}
	return errors.Wrapf(f.Close(), "close %s", path)
}
