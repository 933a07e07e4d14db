package main

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"cultivai/cropvision/croplabel"
)

var (
	resolveJSON   bool
	exportVariant string
	tableColumns  croplabel.TableParseOptions
)

var resolveCmd = &cobra.Command{
	Use:   "resolve LABEL...",
	Short: "Pick the first supported crop among ranked labels and translate it",
	Long: `Labels are given in the classifier's ranking order. A label may carry its
score as LABEL=SCORE (for example "Corn=0.91").`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResolve,
}

var translateCmd = &cobra.Command{
	Use:   "translate LABEL",
	Short: "Print the localized name of a label (the label itself when unknown)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		defer svc.Close()
		fmt.Fprintln(cmd.OutOrStdout(), svc.Resolver().Translate(args[0]))
		return nil
	},
}

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "Inspect and export crop tables",
}

var tablesCheckCmd = &cobra.Command{
	Use:   "check [FILE]",
	Short: "Validate a crop table file, or the configured table",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTablesCheck,
}

var tablesExportCmd = &cobra.Command{
	Use:   "export FILE",
	Short: "Write a built-in crop table as CSV, TSV or YAML",
	Args:  cobra.ExactArgs(1),
	RunE:  runTablesExport,
}

func init() {
	resolveCmd.Flags().BoolVar(&resolveJSON, "json", false, "print the resolved crop as JSON")

	tablesCheckCmd.Flags().StringVar(&tableColumns.LabelColumn, "label-column", "", "column name or #index holding the raw label")
	tablesCheckCmd.Flags().StringVar(&tableColumns.NameColumn, "name-column", "", "column name or #index holding the localized name")
	tablesCheckCmd.Flags().StringVar(&tableColumns.CategoryColumn, "category-column", "", "column name or #index holding the category")
	tablesCheckCmd.Flags().StringVar(&tableColumns.SupportedColumn, "supported-column", "", "column name or #index holding the supported flag")
	tablesExportCmd.Flags().StringVar(&exportVariant, "variant", "",
		fmt.Sprintf("built-in table to export %v; defaults to the configured variant", croplabel.Variants()))

	tablesCmd.AddCommand(tablesCheckCmd, tablesExportCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	candidates := make([]croplabel.Candidate, 0, len(args))
	for _, arg := range args {
		c, err := parseCandidateArg(arg)
		if err != nil {
			return err
		}
		candidates = append(candidates, c)
	}
	svc, err := newService()
	if err != nil {
		return err
	}
	defer svc.Close()

	crop, err := svc.Resolver().Resolve(candidates)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if resolveJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(crop)
	}
	fmt.Fprintln(out, crop.Name)
	return nil
}

// parseCandidateArg reads LABEL or LABEL=SCORE.
func parseCandidateArg(arg string) (croplabel.Candidate, error) {
	label, score, ok := strings.Cut(arg, "=")
	if !ok {
		return croplabel.Candidate{Description: arg}, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(score), 64)
	if err != nil {
		return croplabel.Candidate{}, fmt.Errorf("invalid score in %q: %w", arg, err)
	}
	return croplabel.Candidate{Description: label, Score: v}, nil
}

func runTablesCheck(cmd *cobra.Command, args []string) error {
	var table *croplabel.Table
	var source string
	if len(args) == 1 {
		croplabel.SetColumnCandidates(cfg.TableColumns)
		t, err := croplabel.LoadTableFile(args[0], tableColumns)
		if err != nil {
			return err
		}
		table, source = t, args[0]
	} else {
		svc, err := newService()
		if err != nil {
			return err
		}
		defer svc.Close()
		table = svc.Resolver().Table()
		source = cfg.Resolver.TableFile
		if source == "" {
			source = "built-in " + string(cfg.Resolver.Variant)
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d entries, %d supported crops\n",
		source, table.Len(), len(table.SupportedLabels()))
	return nil
}

func runTablesExport(cmd *cobra.Command, args []string) error {
	variant := croplabel.Variant(strings.ToLower(strings.TrimSpace(exportVariant)))
	if variant == "" {
		variant = cfg.Resolver.Variant
	}
	if !slices.Contains(croplabel.Variants(), variant) {
		return fmt.Errorf("--variant %q: %w (choose one of %v)", variant, croplabel.ErrUnknownVariant, croplabel.Variants())
	}
	entries, err := croplabel.DefaultEntries(variant)
	if err != nil {
		return err
	}
	if err := croplabel.WriteTableFile(args[0], entries); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d entries to %s\n", len(entries), args[0])
	return nil
}
