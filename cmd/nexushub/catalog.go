package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/marcellin56/Central-de-ferramentas/internal/catalog"
)

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the tool catalog",
	}
	cmd.AddCommand(newCatalogListCmd())
	return cmd
}

func newCatalogListCmd() *cobra.Command {
	var (
		file     string
		query    string
		category string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the built-in tools, or the tools in a catalog file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := catalog.Default()
			if file != "" {
				doc, err := catalog.LoadFile(file)
				if err != nil {
					return err
				}
				c = catalog.New(doc)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tSTATUS\tICON\tURL")
			for _, t := range catalog.Filter(c.Tools(), query, category) {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					t.ID, t.Name, t.Category, t.Status, catalog.Icon(t.Icon), t.URL)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "catalog YAML file (default: built-in catalog)")
	cmd.Flags().StringVarP(&query, "query", "q", "", "only tools whose name or description contains this")
	cmd.Flags().StringVar(&category, "category", catalog.CategoryAll, "only tools in this category")
	return cmd
}
