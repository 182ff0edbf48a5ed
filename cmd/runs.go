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
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect recorded translation runs",
	Long:  `List and delete the translation runs recorded in the SQLite database.`,
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := mustOpenStore()
		if err != nil {
			return err
		}
		defer db.Close()

		runs, err := db.ListRuns(cmd.Context(), runsLimit)
		if err != nil {
			return fmt.Errorf("failed to list runs: %w", err)
		}

		if len(runs) == 0 {
			fmt.Println("No recorded runs.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tDOCUMENT\tSENTENCES\tFAILED\tMODEL\tWHEN")
		for _, r := range runs {
			doc := r.Document
			if len(doc) > 40 {
				doc = doc[:37] + "..."
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%s\n",
				r.ID, doc, r.Total, r.Failed, r.Model,
				r.Timestamp.Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

var runsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a run and its sentence results",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := mustOpenStore()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.DeleteRun(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("failed to delete run: %w", err)
		}
		fmt.Printf("Deleted run: %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)

	runsListCmd.Flags().IntVar(&runsLimit, "limit", 20, "Maximum number of runs to list (0 for all)")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsDeleteCmd)
}
