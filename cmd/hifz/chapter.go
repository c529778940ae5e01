package main

import (
	"fmt"
	"strconv"

	"github.com/franz/hifz/internal/store"
	"github.com/franz/hifz/internal/util"
	"github.com/spf13/cobra"
)

var chapterCmd = &cobra.Command{
	Use:   "chapter",
	Short: "Browse chapters and manage memorization flags",
}

var chapterListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all chapters with their flags",
	RunE:  runChapterList,
}

var chapterShowCmd = &cobra.Command{
	Use:   "show <chapter>",
	Short: "Show a chapter's verses with translations",
	Args:  cobra.ExactArgs(1),
	RunE:  runChapterShow,
}

var chapterBookmarkCmd = &cobra.Command{
	Use:   "bookmark <chapter>",
	Short: "Toggle a chapter's bookmark",
	Args:  cobra.ExactArgs(1),
	RunE:  runChapterBookmark,
}

var chapterMemorizedCmd = &cobra.Command{
	Use:   "memorized <chapter>",
	Short: "Mark a chapter memorized (or clear with --clear)",
	Args:  cobra.ExactArgs(1),
	RunE:  runChapterMemorized,
}

var chapterNextCmd = &cobra.Command{
	Use:   "next [chapter]",
	Short: "Show or set the chapter queued to memorize next",
	Long: `Without an argument, print the queued-next chapter. With a chapter
number, queue that chapter; at most one chapter is ever queued, so
queueing moves the flag. --clear removes the flag entirely.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runChapterNext,
}

func init() {
	chapterMemorizedCmd.Flags().Bool("clear", false, "clear the memorized flag")
	chapterNextCmd.Flags().Bool("clear", false, "clear the queued-next flag")
	chapterCmd.AddCommand(chapterListCmd, chapterShowCmd, chapterBookmarkCmd, chapterMemorizedCmd, chapterNextCmd)
	rootCmd.AddCommand(chapterCmd)
}

func parseChapterArg(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid chapter %q", arg)
	}
	if n < store.FirstChapter || n > store.LastChapter {
		return 0, fmt.Errorf("chapter %d out of range %d-%d", n, store.FirstChapter, store.LastChapter)
	}
	return n, nil
}

func runChapterList(cmd *cobra.Command, args []string) error {
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
	if len(chapters) == 0 {
		fmt.Println("No chapters imported yet; run 'hifz import' first")
		return nil
	}

	fmt.Printf("%-5s %-16s %-22s %6s  %s\n", "NUM", "NAME", "MEANING", "VERSES", "FLAGS")
	for _, c := range chapters {
		flags := ""
		if c.Bookmarked {
			flags += "B"
		}
		if c.Memorized {
			flags += "M"
		}
		if c.QueuedNext {
			flags += "N"
		}
		fmt.Printf("%-5d %-16s %-22s %6d  %s\n",
			c.Number, c.NameTransliteration, c.NameMeaning, c.VerseCount, flags)
	}
	return nil
}

func runChapterShow(cmd *cobra.Command, args []string) error {
	applyLogFlags()

	number, err := parseChapterArg(args[0])
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	c, err := st.GetChapter(number)
	if err != nil {
		return err
	}
	if c == nil {
		return fmt.Errorf("chapter %d: %w (run 'hifz import' first)", number, util.ErrNotFound)
	}

	verses, err := st.GetVerses(number)
	if err != nil {
		return err
	}

	settings, err := st.GetSettings()
	if err != nil {
		return err
	}

	fmt.Printf("%d. %s (%s) - %s, %d verses\n\n",
		c.Number, c.NameTransliteration, c.NameArabic, c.NameMeaning, c.VerseCount)

	for _, v := range verses {
		fmt.Printf("%d:%d  %s\n", v.ChapterNumber, v.VerseNumber, v.TextArabic)
		if settings.ShowTransliteration && v.Transliteration != "" {
			fmt.Printf("      %s\n", v.Transliteration)
		}
		translations, err := st.GetTranslations(number, v.VerseNumber)
		if err != nil {
			return err
		}
		for _, t := range translations {
			if t.CatalogID == settings.PrimaryTranslationID ||
				t.CatalogID == settings.SecondaryTranslationID {
				fmt.Printf("      [%s] %s\n", t.LanguageCode, t.Text)
			}
		}
		fmt.Println()
	}

	if err := st.TouchLastAccessed(number); err != nil {
		util.WarnLog("%v", err)
	}
	return nil
}

func runChapterBookmark(cmd *cobra.Command, args []string) error {
	applyLogFlags()

	number, err := parseChapterArg(args[0])
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	c, err := st.GetChapter(number)
	if err != nil {
		return err
	}
	if c == nil {
		return fmt.Errorf("chapter %d: %w", number, util.ErrNotFound)
	}

	if err := st.SetBookmarked(number, !c.Bookmarked); err != nil {
		return err
	}
	if c.Bookmarked {
		fmt.Printf("Chapter %d unbookmarked\n", number)
	} else {
		fmt.Printf("Chapter %d bookmarked\n", number)
	}
	return nil
}

func runChapterMemorized(cmd *cobra.Command, args []string) error {
	applyLogFlags()

	number, err := parseChapterArg(args[0])
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	clear, _ := cmd.Flags().GetBool("clear")
	if err := st.SetMemorized(number, !clear); err != nil {
		return err
	}

	if clear {
		fmt.Printf("Chapter %d memorization cleared\n", number)
		return nil
	}

	fmt.Printf("Chapter %d marked memorized\n", number)
	count, err := st.CountMemorized()
	if err == nil {
		fmt.Printf("Progress: %d of %d chapters\n", count, store.ChapterCount)
	}
	return nil
}

func runChapterNext(cmd *cobra.Command, args []string) error {
	applyLogFlags()

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if clear, _ := cmd.Flags().GetBool("clear"); clear {
		if err := st.ClearQueuedNext(); err != nil {
			return err
		}
		fmt.Println("Queued-next cleared")
		return nil
	}

	if len(args) == 0 {
		c, err := st.QueuedNextChapter()
		if err != nil {
			return err
		}
		if c == nil {
			fmt.Println("No chapter queued")
			return nil
		}
		fmt.Printf("Next up: %d. %s (%s)\n", c.Number, c.NameTransliteration, c.NameMeaning)
		return nil
	}

	number, err := parseChapterArg(args[0])
	if err != nil {
		return err
	}
	if err := st.SetQueuedNext(number); err != nil {
		return err
	}
	fmt.Printf("Chapter %d queued next\n", number)
	return nil
}
