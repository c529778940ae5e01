package main

import (
	"context"
	"fmt"

	"github.com/franz/hifz/internal/quran"
	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Browse available translation editions and reciters",
	Long: `List the upstream catalogs. Results are cached locally so the catalogs
stay browsable offline; pass --refresh to force a fetch.`,
}

var catalogTranslationsCmd = &cobra.Command{
	Use:   "translations",
	Short: "List available translation editions",
	RunE:  runCatalogTranslations,
}

var catalogRecitersCmd = &cobra.Command{
	Use:   "reciters",
	Short: "List available reciters",
	RunE:  runCatalogReciters,
}

func init() {
	catalogCmd.PersistentFlags().Bool("refresh", false, "bypass the local catalog cache")
	catalogCmd.AddCommand(catalogTranslationsCmd, catalogRecitersCmd)
	rootCmd.AddCommand(catalogCmd)
}

func openCatalog(cmd *cobra.Command) (*quran.CatalogCache, func(), error) {
	st, err := openStore()
	if err != nil {
		return nil, nil, err
	}
	catalog := quran.NewCatalogCache(st.DB(), newClient(), 0)
	if refresh, _ := cmd.Flags().GetBool("refresh"); refresh {
		if err := catalog.Clear(); err != nil {
			st.Close()
			return nil, nil, err
		}
	}
	return catalog, func() { st.Close() }, nil
}

func runCatalogTranslations(cmd *cobra.Command, args []string) error {
	applyLogFlags()

	catalog, closeStore, err := openCatalog(cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	entries, err := catalog.Translations(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("%-6s %-8s %s\n", "ID", "LANG", "NAME")
	for _, e := range entries {
		name := e.Name
		if e.Author != "" && e.Author != e.Name {
			name = fmt.Sprintf("%s (%s)", e.Name, e.Author)
		}
		fmt.Printf("%-6d %-8s %s\n", e.ID, e.Language, name)
	}
	fmt.Printf("\n%d editions\n", len(entries))
	return nil
}

func runCatalogReciters(cmd *cobra.Command, args []string) error {
	applyLogFlags()

	catalog, closeStore, err := openCatalog(cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	entries, err := catalog.Reciters(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("%-6s %s\n", "ID", "NAME")
	for _, e := range entries {
		name := e.Name
		if e.Style != "" {
			name = fmt.Sprintf("%s [%s]", e.Name, e.Style)
		}
		fmt.Printf("%-6d %s\n", e.ID, name)
	}
	fmt.Printf("\n%d reciters\n", len(entries))
	return nil
}
