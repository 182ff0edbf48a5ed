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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/valpere/lexitran/internal"
)

var (
	inputFile  string
	outputFile string
	reportFile string
	noProgress bool
)

var translateCmd = &cobra.Command{
	Use:   "translate",
	Short: "Translate an English legal document into Telugu",
	Long: `Translate a PDF, Markdown or plain-text document into formal Telugu.

The document is split into sentences; fragments shorter than
pipeline.min_sentence_length characters are skipped. Each sentence is
translated on its own and the results are joined with blank lines in
document order. A sentence that cannot be translated is replaced by
"[Translation Error: <sentence>]" and the run continues.

Example:
  lexitran translate -i lease.pdf -o lease.te.txt
  lexitran translate -i deed.md -o deed.te.txt --report deed.json --sanitize`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if inputFile == outputFile {
			return fmt.Errorf("input file and output file cannot be the same")
		}

		data, err := os.ReadFile(inputFile)
		if err != nil {
			return fmt.Errorf("failed to read input file: %w", err)
		}

		ctx := cmd.Context()

		c, err := buildComponents(ctx)
		if err != nil {
			return err
		}
		defer c.Close()

		var bar *progressbar.ProgressBar
		onProgress := func(processed, total int) {
			if noProgress {
				return
			}
			if bar == nil {
				bar = progressbar.NewOptions(total,
					progressbar.OptionSetWriter(os.Stderr),
					progressbar.OptionSetDescription("Translating"),
					progressbar.OptionShowCount(),
					progressbar.OptionSetPredictTime(true),
					progressbar.OptionClearOnFinish(),
				)
			}
			_ = bar.Set(processed)
		}

		fmt.Fprintf(os.Stderr, "Translating %s with %s/%s\n", inputFile, cfg.Model.Provider, cfg.Model.Name)

		report, err := c.pipeline.Run(ctx, internal.SourceDocument{
			Name: filepath.Base(inputFile),
			Data: data,
		}, onProgress)
		if err != nil {
			return err
		}
		if bar != nil {
			_ = bar.Finish()
		}

		if err := writeFile(outputFile, []byte(report.Output)); err != nil {
			return err
		}

		if reportFile != "" {
			buf, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode report: %w", err)
			}
			if err := writeFile(reportFile, buf); err != nil {
				return err
			}
		}

		fmt.Printf("Translated %d sentences (%d failed) to %s\n", report.Total, report.Failed, outputFile)
		if c.db != nil {
			fmt.Printf("Run ID: %s\n", report.RunID)
		}
		return nil
	},
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Input document: .pdf, .md or plain text (required)")
	translateCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file for the Telugu translation (required)")
	translateCmd.Flags().StringVar(&reportFile, "report", "", "Write per-sentence results as JSON to this file")
	translateCmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the progress bar")

	translateCmd.Flags().Bool("sanitize", false, "Strip model preambles and quotes from each translation")
	translateCmd.Flags().Bool("reuse-memory", false, "Reuse earlier translations of identical sentences")
	translateCmd.Flags().Int("max-iterations", 10, "Maximum model calls per sentence")
	translateCmd.Flags().Duration("sentence-timeout", 0, "Per-sentence time limit (0 = none); a timeout fails the sentence")
	_ = v.BindPFlag("pipeline.sanitize", translateCmd.Flags().Lookup("sanitize"))
	_ = v.BindPFlag("pipeline.reuse_memory", translateCmd.Flags().Lookup("reuse-memory"))
	_ = v.BindPFlag("pipeline.max_iterations", translateCmd.Flags().Lookup("max-iterations"))
	_ = v.BindPFlag("pipeline.sentence_timeout", translateCmd.Flags().Lookup("sentence-timeout"))

	translateCmd.MarkFlagRequired("input")
	translateCmd.MarkFlagRequired("output")
}
