package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"

	"github.com/franz/hifz/internal/player"
	"github.com/franz/hifz/internal/store"
	"github.com/franz/hifz/internal/util"
	"github.com/spf13/cobra"
)

var playCmd = &cobra.Command{
	Use:   "play [chapter]",
	Short: "Play a chapter recitation with verse tracking",
	Long: `Play a chapter recitation through mpv, tracking the current verse from
the timing metadata. Without a chapter argument, playback resumes the
last played chapter.

Playback is interactive; commands on stdin:
  p          pause / resume
  f / b      seek 10s forward / backward
  s <secs>   seek to an absolute position
  r          toggle repeat
  v <n>      restart under reciter n
  q          stop and quit`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlay,
}

func init() {
	playCmd.Flags().Int("verse", 0, "play a single verse of the chapter")
	playCmd.Flags().Bool("repeat", false, "repeat the chapter (or verse) when it ends")
	playCmd.Flags().Float64("rate", 1.0, "playback rate")
	playCmd.Flags().Int("reciter", 0, "reciter id (defaults to the selected reciter)")
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	applyLogFlags()

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	settings, err := st.GetSettings()
	if err != nil {
		return err
	}

	chapter := 0
	if len(args) == 1 {
		chapter, err = strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid chapter %q", args[0])
		}
	} else {
		// Resume the saved session
		if settings.LastChapter == 0 {
			return fmt.Errorf("no saved session; pass a chapter number")
		}
		chapter = settings.LastChapter
		util.InfoLog("Resuming chapter %d (last position %.0fs)", chapter, settings.LastPositionSecs)
	}
	if chapter < store.FirstChapter || chapter > store.LastChapter {
		return fmt.Errorf("chapter %d out of range %d-%d", chapter, store.FirstChapter, store.LastChapter)
	}

	reciter, _ := cmd.Flags().GetInt("reciter")
	if reciter <= 0 {
		reciter = settings.ReciterID
	}

	cache, err := openCache()
	if err != nil {
		return err
	}

	rate, _ := cmd.Flags().GetFloat64("rate")
	repeat, _ := cmd.Flags().GetBool("repeat")
	verse, _ := cmd.Flags().GetInt("verse")

	done := make(chan struct{})
	var doneOnce sync.Once
	engine := player.New(&player.Config{
		Client:    newClient(),
		Cache:     cache,
		Store:     st,
		Opener:    player.NewMPVOpener(),
		ReciterID: reciter,
		OnChange: func(s player.Snapshot) {
			printStatus(s)
			if s.State == player.StateStopped || s.State == player.StateError {
				doneOnce.Do(func() { close(done) })
			}
		},
	})
	defer engine.Close()

	engine.SetRepeat(repeat)
	if rate != 1.0 {
		if err := engine.SetRate(rate); err != nil {
			return err
		}
	}

	if verse > 0 {
		engine.PlayVerse(chapter, verse)
	} else {
		engine.Play(chapter)
	}

	// Ctrl-C stops playback cleanly, saving the position
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	defer signal.Stop(sig)

	input := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			input <- strings.TrimSpace(scanner.Text())
		}
		close(input)
	}()

	for {
		select {
		case <-done:
			return playbackResult(engine)
		case <-sig:
			engine.Stop()
			return nil
		case line, ok := <-input:
			if !ok {
				// stdin closed (piped input); wait for playback to finish
				<-done
				return playbackResult(engine)
			}
			if quit := handleInput(engine, line); quit {
				engine.Stop()
				return nil
			}
		}
	}
}

func handleInput(engine *player.Engine, line string) (quit bool) {
	switch {
	case line == "q":
		return true
	case line == "p":
		if err := engine.Toggle(); err != nil {
			util.WarnLog("%v", err)
		}
	case line == "f":
		engine.HandleCommand(player.CmdSkipForward)
	case line == "b":
		engine.HandleCommand(player.CmdSkipBackward)
	case strings.HasPrefix(line, "s "):
		secs, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimPrefix(line, "s ")), 64)
		if err != nil {
			util.WarnLog("invalid seek target %q", line)
			return false
		}
		if err := engine.HandleSeek(secs); err != nil {
			util.WarnLog("%v", err)
		}
	case line == "r":
		s := engine.Snapshot()
		engine.SetRepeat(!s.Repeat)
		fmt.Printf("repeat %v\n", !s.Repeat)
	case strings.HasPrefix(line, "v "):
		id, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "v ")))
		if err != nil || id <= 0 {
			util.WarnLog("invalid reciter id %q", line)
			return false
		}
		engine.SetVoice(id)
	case line == "":
	default:
		fmt.Println("commands: p pause/resume, f/b skip, s <secs> seek, r repeat, v <id> voice, q quit")
	}
	return false
}

func printStatus(s player.Snapshot) {
	switch s.State {
	case player.StateLoading:
		fmt.Printf("Loading chapter %d...\n", s.Chapter)
	case player.StatePlaying:
		if s.Mode.SingleVerse {
			fmt.Printf("Playing chapter %d verse %d (%.2fx)\n", s.Chapter, s.Mode.Verse, s.Rate)
		} else {
			fmt.Printf("Playing chapter %d from verse %d (%.2fx)\n", s.Chapter, s.Verse, s.Rate)
		}
	case player.StatePaused:
		fmt.Printf("Paused at %.0fs (verse %d)\n", s.Position, s.Verse)
	case player.StateStopped:
		fmt.Println("Stopped")
	case player.StateError:
		fmt.Printf("Playback error: %s\n", s.Err)
	}
}

func playbackResult(engine *player.Engine) error {
	if s := engine.Snapshot(); s.State == player.StateError {
		return fmt.Errorf("%s", s.Err)
	}
	return nil
}
