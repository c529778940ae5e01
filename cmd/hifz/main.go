package main

import (
	"fmt"
	"os"

	"github.com/franz/hifz/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version is set at build time
	Version = "dev"

	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "hifz",
		Short: "Juz Amma memorization companion - offline content and recitation audio",
		Long: `hifz keeps a local, offline-capable copy of Juz Amma content: verse text,
translation editions and recitation audio. It syncs translations from the
content API, caches chapter audio for offline playback and drives a
verse-aligned audio player.`,
		Version: Version,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./configs/hifz.yaml)")
	rootCmd.PersistentFlags().String("db", "hifz.db", "content database file")
	rootCmd.PersistentFlags().String("cache-dir", "audio-cache", "audio cache directory")
	rootCmd.PersistentFlags().String("api-base", "", "content API base URL (default is the public endpoint)")
	rootCmd.PersistentFlags().String("log-dir", "", "write a JSONL event log of operations to this directory")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "quiet output (errors only)")

	// Bind flags to viper
	viper.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("cache-dir", rootCmd.PersistentFlags().Lookup("cache-dir"))
	viper.BindPFlag("api-base", rootCmd.PersistentFlags().Lookup("api-base"))
	viper.BindPFlag("log-dir", rootCmd.PersistentFlags().Lookup("log-dir"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")
		viper.SetConfigName("hifz")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("HIFZ")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && !viper.GetBool("quiet") {
		util.InfoLog("Using config file: %s", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
