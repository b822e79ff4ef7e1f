package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/handbook/internal/core/ports/driving"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the semantic index",
	Long: `The semantic index holds one normalised embedding per passage. It is
built on the first search and dropped whenever documents change.`,
}

var indexWarmupCmd = &cobra.Command{
	Use:   "warmup",
	Short: "Build the index if it is not built",
	Args:  cobra.NoArgs,
	RunE:  runIndexWarmup,
}

var indexRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the index from the row store",
	Args:  cobra.NoArgs,
	RunE:  runIndexRebuild,
}

var indexStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the index state",
	Args:  cobra.NoArgs,
	RunE:  runIndexStatus,
}

var indexSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Copy storage.seed_csv into an empty store",
	Args:  cobra.NoArgs,
	RunE:  runIndexSeed,
}

func init() {
	indexCmd.AddCommand(indexWarmupCmd)
	indexCmd.AddCommand(indexRebuildCmd)
	indexCmd.AddCommand(indexStatusCmd)
	indexCmd.AddCommand(indexSeedCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexWarmup(cmd *cobra.Command, _ []string) error {
	if indexService == nil {
		return errNotConfigured("index")
	}
	if err := indexService.Warmup(commandContext(cmd)); err != nil {
		return fmt.Errorf("warmup failed: %w", err)
	}
	return printIndexStatus(cmd, indexService.Status())
}

func runIndexRebuild(cmd *cobra.Command, _ []string) error {
	if indexService == nil {
		return errNotConfigured("index")
	}
	if err := indexService.Rebuild(commandContext(cmd)); err != nil {
		return fmt.Errorf("rebuild failed: %w", err)
	}
	return printIndexStatus(cmd, indexService.Status())
}

func runIndexStatus(cmd *cobra.Command, _ []string) error {
	if indexService == nil {
		return errNotConfigured("index")
	}
	return printIndexStatus(cmd, indexService.Status())
}

// seedOutput is the structured seed result.
type seedOutput struct {
	Rows int `json:"rows" yaml:"rows"`
}

func runIndexSeed(cmd *cobra.Command, _ []string) error {
	if seeder == nil {
		return errors.New("nothing to seed: set storage.seed_csv")
	}

	n, err := seeder.Seed(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("seed failed: %w", err)
	}

	return render(cmd, seedOutput{Rows: n}, func(w io.Writer) {
		if n == 0 {
			fmt.Fprintln(w, "Store already has rows; nothing copied.")
			return
		}
		fmt.Fprintf(w, "Copied %d rows.\n", n)
	})
}

func printIndexStatus(cmd *cobra.Command, st driving.IndexStatus) error {
	return render(cmd, st, func(w io.Writer) {
		fmt.Fprintf(w, "Source:     %s\n", st.Source)
		if st.Model != "" {
			fmt.Fprintf(w, "Model:      %s\n", st.Model)
		}
		if !st.Ready {
			fmt.Fprintln(w, "Status:     not built")
			fmt.Fprintf(w, "Builds:     %d\n", st.Builds)
			return
		}
		fmt.Fprintln(w, "Status:     ready")
		fmt.Fprintf(w, "Build:      %s\n", st.BuildID)
		fmt.Fprintf(w, "Passages:   %d\n", st.Passages)
		fmt.Fprintf(w, "Dimensions: %d\n", st.Dimensions)
		fmt.Fprintf(w, "Built at:   %s\n", st.BuiltAt.Format(time.RFC3339))
		fmt.Fprintf(w, "Builds:     %d\n", st.Builds)
	})
}
