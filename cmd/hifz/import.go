package main

import (
	"context"
	"time"

	"github.com/franz/hifz/internal/importer"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import chapter metadata and verse text",
	Long: `Perform the initial bulk import: seed the bundled chapter metadata and
fetch Arabic verse text from the content API.

The import is idempotent - re-running it updates verse text in place and
preserves bookmarks and memorization flags.`,
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	applyLogFlags()
	ctx := context.Background()

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	logger := newEventLogger()
	defer logger.Close()

	im := importer.New(&importer.Config{
		Store:  st,
		Client: newClient(),
		Logger: logger,
	})

	bar := progressbar.NewOptions(100,
		progressbar.OptionSetDescription("Importing"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(200*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)

	return im.Run(ctx, func(frac float64) {
		bar.Set(int(frac * 100))
	})
}
