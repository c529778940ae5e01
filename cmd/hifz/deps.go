package main

import (
	"github.com/franz/hifz/internal/audiocache"
	"github.com/franz/hifz/internal/quran"
	"github.com/franz/hifz/internal/report"
	"github.com/franz/hifz/internal/store"
	"github.com/franz/hifz/internal/util"
	"github.com/spf13/viper"
)

// applyLogFlags sets the global log level from the common flags
func applyLogFlags() {
	util.SetVerbose(viper.GetBool("verbose"))
	util.SetQuiet(viper.GetBool("quiet"))
}

func openStore() (*store.Store, error) {
	return store.Open(viper.GetString("db"))
}

func openCache() (*audiocache.Cache, error) {
	return audiocache.New(viper.GetString("cache-dir"))
}

func newClient() *quran.Client {
	return quran.NewClient(viper.GetString("api-base"))
}

// newEventLogger returns nil when no log directory is configured; a nil
// logger silently drops events.
func newEventLogger() *report.EventLogger {
	dir := viper.GetString("log-dir")
	if dir == "" {
		return nil
	}
	logger, err := report.NewEventLogger(dir, report.LevelDebug)
	if err != nil {
		util.WarnLog("Event log disabled: %v", err)
		return nil
	}
	return logger
}
