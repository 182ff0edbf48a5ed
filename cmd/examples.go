/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/valpere/lexitran/internal/vectorstore"
)

var (
	examplesEnglishCol int
	examplesTeluguCol  int
	examplesHeader     bool
)

var examplesCmd = &cobra.Command{
	Use:   "examples",
	Short: "Manage the translated example store",
	Long: `Add, import, search and count English/Telugu example pairs in the
configured vector store (vector_store.backend). The English side is embedded
with the configured embedding provider; use the same provider for ingestion
and translation.`,
}

// openExampleStore builds only the embedder and the example store.
func openExampleStore(ctx context.Context) (*components, error) {
	c := &components{}
	if err := c.openExamples(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

var examplesAddCmd = &cobra.Command{
	Use:   "add <english> <telugu>",
	Short: "Add one example pair",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, err := openExampleStore(ctx)
		if err != nil {
			return err
		}
		defer c.Close()

		if err := c.retriever.Ingest(ctx, args[0], args[1]); err != nil {
			return fmt.Errorf("failed to add example: %w", err)
		}
		fmt.Println("Added 1 example.")
		return nil
	},
}

var examplesImportCmd = &cobra.Command{
	Use:   "import <file.jsonl|file.csv>",
	Short: "Import example pairs from a JSONL or CSV file",
	Long: `Import example pairs.

JSONL files hold one {"english_text": "...", "telugu_text": "..."} object per
line. CSV files use --english-col and --telugu-col (0-indexed) and --header
to skip the first row.

Example:
  lexitran examples import pairs.jsonl
  lexitran examples import corpus.csv --english-col 1 --telugu-col 2 --header`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open import file: %w", err)
		}
		defer f.Close()

		var pairs []pairRecord
		if strings.EqualFold(filepath.Ext(args[0]), ".csv") {
			pairs, err = readPairsCSV(f, examplesEnglishCol, examplesTeluguCol, examplesHeader)
		} else {
			pairs, err = readPairsJSONL(f)
		}
		if err != nil {
			return err
		}
		if len(pairs) == 0 {
			fmt.Println("No example pairs found.")
			return nil
		}

		ctx := cmd.Context()
		c, err := openExampleStore(ctx)
		if err != nil {
			return err
		}
		defer c.Close()

		bar := progressbar.NewOptions(len(pairs),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("Importing"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		added, failed := 0, 0
		for i, p := range pairs {
			if err := c.retriever.Ingest(ctx, p.English, p.Telugu); err != nil {
				failed++
				logger.Warn("failed to import example", zap.Int("index", i), zap.Error(err))
			} else {
				added++
			}
			_ = bar.Add(1)
		}
		_ = bar.Finish()

		fmt.Printf("Imported %d examples (%d failed).\n", added, failed)
		if added == 0 {
			return fmt.Errorf("no examples were imported")
		}
		return nil
	},
}

var examplesSearchCmd = &cobra.Command{
	Use:   "search <english sentence>",
	Short: "Show the stored examples nearest to a sentence",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, err := openExampleStore(ctx)
		if err != nil {
			return err
		}
		defer c.Close()

		pairs, err := c.retriever.Search(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		if len(pairs) == 0 {
			fmt.Println("No examples found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SCORE\tENGLISH\tTELUGU")
		for _, p := range pairs {
			fmt.Fprintf(w, "%.3f\t%s\t%s\n", p.Score, p.SourceText, p.TargetText)
		}
		return w.Flush()
	},
}

var examplesCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Count stored examples",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, err := openExampleStore(ctx)
		if err != nil {
			return err
		}
		defer c.Close()

		counter, ok := c.examples.(vectorstore.Counter)
		if !ok {
			return fmt.Errorf("backend %q does not support counting", cfg.VectorStore.Backend)
		}
		n, err := counter.Count(ctx)
		if err != nil {
			return fmt.Errorf("failed to count examples: %w", err)
		}
		fmt.Printf("Examples: %d\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(examplesCmd)

	examplesImportCmd.Flags().IntVar(&examplesEnglishCol, "english-col", 0, "CSV column holding the English sentence (0-indexed)")
	examplesImportCmd.Flags().IntVar(&examplesTeluguCol, "telugu-col", 1, "CSV column holding the Telugu sentence (0-indexed)")
	examplesImportCmd.Flags().BoolVar(&examplesHeader, "header", false, "Skip the first CSV row")

	examplesCmd.AddCommand(examplesAddCmd)
	examplesCmd.AddCommand(examplesImportCmd)
	examplesCmd.AddCommand(examplesSearchCmd)
	examplesCmd.AddCommand(examplesCountCmd)
}
