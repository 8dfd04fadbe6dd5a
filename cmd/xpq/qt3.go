package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/arborxml/xpath/internal/xlog"
	"github.com/arborxml/xpath/qt3"
)

type qt3Flags struct {
	filterFile   string
	baselineFile string
	saveBaseline string
}

func newQT3Cmd(rf *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "qt3",
		Short: "Run the QT3 XPath/XQuery test suite",
	}
	cmd.AddCommand(newQT3RunCmd(rf))
	return cmd
}

func newQT3RunCmd(rf *rootFlags) *cobra.Command {
	qf := &qt3Flags{}

	cmd := &cobra.Command{
		Use:   "run <catalog.xml>",
		Short: "Run every test-set a QT3 catalog references",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQT3(cmd, rf, qf, args[0])
		},
	}

	cmd.Flags().StringVar(&qf.filterFile, "filter", "",
		"filter file of +like:glob/-like:glob lines selecting test-sets/test-cases")
	cmd.Flags().StringVar(&qf.baselineFile, "baseline", "",
		"prior run's baseline file, to report regressions against")
	cmd.Flags().StringVar(&qf.saveBaseline, "save-baseline", "",
		"write this run's outcomes to path, in baseline format")

	return cmd
}

func runQT3(cmd *cobra.Command, rf *rootFlags, qf *qt3Flags, catalogPath string) error {
	handler, err := xlog.NewHandler(cmd.ErrOrStderr(), rf.logLevel, rf.logFormat)
	if err != nil {
		return err
	}
	logger := slog.New(handler)

	cat, err := qt3.LoadCatalog(catalogPath)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	logger.Debug("loaded catalog", "name", cat.Name, "test-sets", len(cat.TestSets))

	var filter *qt3.Filter
	if qf.filterFile != "" {
		filter, err = qt3.LoadFilter(qf.filterFile)
		if err != nil {
			return fmt.Errorf("load filter: %w", err)
		}
	}

	outcomes := qt3.RunCatalog(cat, filter)
	logger.Info("run complete", "outcomes", len(outcomes))

	qt3.Render(cmd.OutOrStdout(), outcomes)

	if qf.baselineFile != "" {
		baseline, err := loadBaselineFile(qf.baselineFile)
		if err != nil {
			return fmt.Errorf("load baseline: %w", err)
		}
		regressions := qt3.Regressions(outcomes, baseline)
		if len(regressions) > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d regression(s):\n", len(regressions))
			for _, r := range regressions {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s: %s -> %s\n", r.Name, r.Was, r.Now)
			}
		}
	}

	if qf.saveBaseline != "" {
		f, err := os.Create(qf.saveBaseline)
		if err != nil {
			return fmt.Errorf("save baseline: %w", err)
		}
		defer f.Close()
		if err := qt3.SaveBaseline(f, outcomes); err != nil {
			return fmt.Errorf("save baseline: %w", err)
		}
	}

	t := qt3.Tabulate(outcomes)
	if t.Failed > 0 || t.RunError > 0 {
		return fmt.Errorf("%d failed, %d error", t.Failed, t.RunError)
	}
	return nil
}

func loadBaselineFile(path string) (qt3.Baseline, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return qt3.LoadBaseline(f)
}
