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
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/lexitran/internal/glossary"
)

var glossaryCmd = &cobra.Command{
	Use:   "glossary",
	Short: "Manage the legal terminology glossary",
	Long: `Add, list, delete, import and export glossary entries.

Each entry maps an English legal term to the Telugu term a translation must
use. The glossary file (glossary.path, default glossary.json) is always
loaded; entries kept in the database are added to it when glossary.use_store
is set. File entries win over database entries for the same English term.`,
}

var glossaryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List glossary entries stored in the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := mustOpenStore()
		if err != nil {
			return err
		}
		defer db.Close()

		entries, err := db.ListGlossaryTerms(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list glossary: %w", err)
		}

		if len(entries) == 0 {
			fmt.Println("Glossary is empty.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tENGLISH TERM\tTELUGU TERM")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\n", e.ID, e.EnglishTerm, e.TeluguTerm)
		}
		return w.Flush()
	},
}

var glossaryAddCmd = &cobra.Command{
	Use:   "add <english-term> <telugu-term>",
	Short: "Add or update a glossary entry",
	Long: `Add an English term and its required Telugu equivalent.

Example:
  lexitran glossary add lessee బాడిగెదారు`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := mustOpenStore()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.AddGlossaryTerm(cmd.Context(), args[0], args[1]); err != nil {
			return fmt.Errorf("failed to add glossary entry: %w", err)
		}
		fmt.Printf("Added glossary entry: %q → %q\n", args[0], args[1])
		return nil
	},
}

var glossaryDeleteCmd = &cobra.Command{
	Use:   "delete <id|english-term>",
	Short: "Delete a glossary entry by ID or English term",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := mustOpenStore()
		if err != nil {
			return err
		}
		defer db.Close()

		found, err := db.DeleteGlossaryTerm(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to delete glossary entry: %w", err)
		}
		if !found {
			return fmt.Errorf("glossary entry %q not found", args[0])
		}
		fmt.Printf("Deleted glossary entry: %s\n", args[0])
		return nil
	},
}

var glossaryImportCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Import a JSON glossary file into the database",
	Long: `Import a JSON object of "english": "telugu" pairs. Existing entries for
the same English term are updated.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read glossary file: %w", err)
		}
		g, err := glossary.Parse(data)
		if err != nil {
			return err
		}

		db, err := mustOpenStore()
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := importGlossary(cmd.Context(), g, db.AddGlossaryTerm)
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d glossary entries.\n", n)
		return nil
	},
}

var glossaryExportCmd = &cobra.Command{
	Use:   "export <file.json>",
	Short: "Export database glossary entries as a JSON glossary file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := mustOpenStore()
		if err != nil {
			return err
		}
		defer db.Close()

		entries, err := db.ListGlossaryTerms(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list glossary: %w", err)
		}
		g := glossary.New()
		for _, e := range entries {
			g.Set(e.EnglishTerm, e.TeluguTerm)
		}

		buf, err := json.MarshalIndent(g, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode glossary: %w", err)
		}
		if err := writeFile(args[0], buf); err != nil {
			return err
		}
		fmt.Printf("Exported %d glossary entries to %s\n", g.Len(), args[0])
		return nil
	},
}

func importGlossary(ctx context.Context, g *glossary.Glossary, add func(ctx context.Context, en, te string) error) (int, error) {
	var (
		n      int
		addErr error
	)
	g.Each(func(en, te string) {
		if addErr != nil {
			return
		}
		if err := add(ctx, en, te); err != nil {
			addErr = fmt.Errorf("failed to import %q: %w", en, err)
			return
		}
		n++
	})
	return n, addErr
}

func init() {
	rootCmd.AddCommand(glossaryCmd)

	glossaryCmd.AddCommand(glossaryListCmd)
	glossaryCmd.AddCommand(glossaryAddCmd)
	glossaryCmd.AddCommand(glossaryDeleteCmd)
	glossaryCmd.AddCommand(glossaryImportCmd)
	glossaryCmd.AddCommand(glossaryExportCmd)
}
