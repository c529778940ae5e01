package main

import (
	"fmt"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/franz/hifz/internal/store"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show local content and cache status",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	applyLogFlags()

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	chapters, err := st.ListChapters()
	if err != nil {
		return err
	}

	settings, err := st.GetSettings()
	if err != nil {
		return err
	}

	fmt.Printf("Content\n")
	fmt.Printf("  chapters:   %d of %d imported\n", len(chapters), store.ChapterCount)

	verseTotal := 0
	for _, c := range chapters {
		n, err := st.CountVerses(c.Number)
		if err != nil {
			return err
		}
		verseTotal += n
	}
	fmt.Printf("  verses:     %d\n", verseTotal)

	memorized, err := st.CountMemorized()
	if err != nil {
		return err
	}
	fmt.Printf("  memorized:  %d of %d chapters\n", memorized, store.ChapterCount)

	if c, err := st.QueuedNextChapter(); err == nil && c != nil {
		fmt.Printf("  next up:    %d. %s\n", c.Number, c.NameTransliteration)
	}

	editions, err := st.ListDownloadedTranslations()
	if err != nil {
		return err
	}
	fmt.Printf("\nTranslations\n")
	if len(editions) == 0 {
		fmt.Printf("  none downloaded; run 'hifz sync <catalog-id>'\n")
	}
	ids := make([]int, 0, len(editions))
	for id := range editions {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		marker := ""
		if id == settings.PrimaryTranslationID {
			marker = " (primary)"
		} else if id == settings.SecondaryTranslationID {
			marker = " (secondary)"
		}
		fmt.Printf("  edition %-5d %d verses%s\n", id, editions[id], marker)
	}

	cache, err := openCache()
	if err != nil {
		return err
	}
	cached, err := cache.CachedChapters(settings.ReciterID)
	if err != nil {
		return err
	}
	size, err := cache.TotalSize()
	if err != nil {
		return err
	}
	fmt.Printf("\nAudio (reciter %d)\n", settings.ReciterID)
	fmt.Printf("  cached:     %d of %d chapters\n", len(cached), store.ChapterCount)
	fmt.Printf("  cache size: %s\n", humanize.Bytes(uint64(size)))

	if settings.LastChapter != 0 {
		fmt.Printf("\nLast playback: chapter %d at %.0fs\n",
			settings.LastChapter, settings.LastPositionSecs)
	}
	return nil
}
