package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/franz/hifz/internal/download"
	"github.com/franz/hifz/internal/netwatch"
	"github.com/franz/hifz/internal/store"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var audioCmd = &cobra.Command{
	Use:   "audio",
	Short: "Manage cached recitation audio",
}

var audioGetCmd = &cobra.Command{
	Use:   "get <chapter>",
	Short: "Download one chapter recitation into the cache",
	Args:  cobra.ExactArgs(1),
	RunE:  runAudioGet,
}

var audioAllCmd = &cobra.Command{
	Use:   "all",
	Short: "Download every uncached chapter recitation",
	Long: `Download all chapters not yet in the cache, sequentially in ascending
order. Chapters that exhaust their retries are reported at the end
without stopping the batch. Ctrl-C stops after the current chapter.`,
	RunE: runAudioAll,
}

var audioVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check cached audio files are valid",
	RunE:  runAudioVerify,
}

func init() {
	audioGetCmd.Flags().Int("reciter", 0, "reciter id (defaults to the selected reciter)")
	audioAllCmd.Flags().Int("reciter", 0, "reciter id (defaults to the selected reciter)")
	audioAllCmd.Flags().Bool("wifi-only", false, "only download on wifi (also honors the saved setting)")
	audioVerifyCmd.Flags().Int("reciter", 0, "reciter id (defaults to the selected reciter)")

	audioCmd.AddCommand(audioGetCmd, audioAllCmd, audioVerifyCmd)
	rootCmd.AddCommand(audioCmd)
}

// resolveReciter returns the reciter id from the flag or the saved setting
func resolveReciter(cmd *cobra.Command) (int, error) {
	if id, _ := cmd.Flags().GetInt("reciter"); id > 0 {
		return id, nil
	}
	st, err := openStore()
	if err != nil {
		return 0, err
	}
	defer st.Close()
	settings, err := st.GetSettings()
	if err != nil {
		return 0, err
	}
	return settings.ReciterID, nil
}

func runAudioGet(cmd *cobra.Command, args []string) error {
	applyLogFlags()
	ctx := context.Background()

	chapter, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid chapter %q", args[0])
	}

	reciter, err := resolveReciter(cmd)
	if err != nil {
		return err
	}

	cache, err := openCache()
	if err != nil {
		return err
	}
	if cache.Has(chapter, reciter) {
		fmt.Printf("Chapter %d already cached for reciter %d\n", chapter, reciter)
		return nil
	}

	logger := newEventLogger()
	defer logger.Close()

	mgr := download.New(&download.Config{
		Client: newClient(),
		Cache:  cache,
		Logger: logger,
	})

	bar := progressbar.NewOptions(100,
		progressbar.OptionSetDescription(fmt.Sprintf("Chapter %d", chapter)),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(200*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)

	if err := mgr.Get(ctx, chapter, reciter, func(frac float64) {
		bar.Set(int(frac * 100))
	}); err != nil {
		return err
	}

	if info, err := os.Stat(cache.Path(chapter, reciter)); err == nil {
		fmt.Printf("Cached chapter %d (%s)\n", chapter, humanize.Bytes(uint64(info.Size())))
	}
	return nil
}

func runAudioAll(cmd *cobra.Command, args []string) error {
	applyLogFlags()

	reciter, err := resolveReciter(cmd)
	if err != nil {
		return err
	}

	wifiOnly, _ := cmd.Flags().GetBool("wifi-only")
	if !wifiOnly {
		// The saved setting also restricts batch downloads
		st, err := openStore()
		if err != nil {
			return err
		}
		settings, err := st.GetSettings()
		st.Close()
		if err != nil {
			return err
		}
		wifiOnly = settings.WifiOnly
	}

	cache, err := openCache()
	if err != nil {
		return err
	}

	logger := newEventLogger()
	defer logger.Close()

	watcher := netwatch.NewWatcher(0)
	watcher.Start()
	defer watcher.Stop()

	mgr := download.New(&download.Config{
		Client:  newClient(),
		Cache:   cache,
		Network: watcher,
		Logger:  logger,
	})

	// Ctrl-C cancels cooperatively: the batch stops after the current item
	ctx := context.Background()
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	defer signal.Stop(sig)
	go func() {
		<-sig
		fmt.Println("\nStopping after the current chapter...")
		mgr.CancelBatch()
	}()

	var bar *progressbar.ProgressBar
	result, err := mgr.GetAll(ctx, reciter, wifiOnly, func(done, total int, itemFrac float64) {
		if total == 0 {
			return
		}
		if bar == nil {
			bar = progressbar.NewOptions(total*100,
				progressbar.OptionSetDescription("Downloading"),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionThrottle(200*time.Millisecond),
				progressbar.OptionClearOnFinish(),
			)
		}
		bar.Set(done*100 + int(itemFrac*100))
	})
	if err != nil {
		return err
	}

	switch {
	case result.Requested == 0:
		fmt.Printf("All %d chapters already cached for reciter %d\n", store.ChapterCount, reciter)
	case result.Cancelled:
		fmt.Printf("Cancelled: %d of %d chapters downloaded\n", result.Completed, result.Requested)
	case len(result.Failed) > 0:
		fmt.Printf("Finished with %d failures (chapters %v); %d chapters downloaded\n",
			len(result.Failed), result.Failed, result.Completed)
	default:
		fmt.Printf("Downloaded %d chapters\n", result.Completed)
	}

	if size, err := cache.TotalSize(); err == nil {
		fmt.Printf("Cache size: %s\n", humanize.Bytes(uint64(size)))
	}
	return nil
}

func runAudioVerify(cmd *cobra.Command, args []string) error {
	applyLogFlags()

	reciter, err := resolveReciter(cmd)
	if err != nil {
		return err
	}

	cache, err := openCache()
	if err != nil {
		return err
	}

	cached, err := cache.CachedChapters(reciter)
	if err != nil {
		return err
	}
	if len(cached) == 0 {
		fmt.Printf("No cached audio for reciter %d\n", reciter)
		return nil
	}

	chapters := make([]int, 0, len(cached))
	for chapter := range cached {
		chapters = append(chapters, chapter)
	}
	sort.Ints(chapters)

	bad := 0
	for _, chapter := range chapters {
		entry, err := cache.Verify(chapter, reciter)
		if err != nil {
			fmt.Printf("  chapter %3d: INVALID (%v)\n", chapter, err)
			bad++
			continue
		}
		fmt.Printf("  chapter %3d: %-4s %8s\n", chapter, entry.FileType, humanize.Bytes(uint64(entry.SizeBytes)))
	}

	if bad > 0 {
		return fmt.Errorf("%d invalid cache entries; re-download them with 'hifz audio get'", bad)
	}
	fmt.Printf("All %d cached chapters verified\n", len(cached))
	return nil
}
