package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change persistent settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting",
	Long: `Change a persistent setting. Keys:
  reciter       reciter id for downloads and playback
  secondary     secondary translation catalog id (0 clears it)
  wifi-only     true/false, restrict batch audio downloads to wifi
  translit      true/false, show transliteration alongside verses
  theme         light/dark/system`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

func init() {
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, args []string) error {
	applyLogFlags()

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	s, err := st.GetSettings()
	if err != nil {
		return err
	}

	fmt.Printf("reciter:     %d\n", s.ReciterID)
	if s.PrimaryTranslationID != 0 {
		fmt.Printf("primary:     %d (%s)\n", s.PrimaryTranslationID, s.PrimaryLanguage)
	} else {
		fmt.Printf("primary:     none\n")
	}
	if s.SecondaryTranslationID != 0 {
		fmt.Printf("secondary:   %d (%s)\n", s.SecondaryTranslationID, s.SecondaryLanguage)
	} else {
		fmt.Printf("secondary:   none\n")
	}
	fmt.Printf("wifi-only:   %v\n", s.WifiOnly)
	fmt.Printf("translit:    %v\n", s.ShowTransliteration)
	fmt.Printf("theme:       %s\n", s.Theme)
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	applyLogFlags()

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	key, value := args[0], args[1]
	switch key {
	case "reciter":
		id, err := strconv.Atoi(value)
		if err != nil || id <= 0 {
			return fmt.Errorf("invalid reciter id %q", value)
		}
		if err := st.SetReciter(id); err != nil {
			return err
		}
	case "secondary":
		id, err := strconv.Atoi(value)
		if err != nil || id < 0 {
			return fmt.Errorf("invalid catalog id %q", value)
		}
		language := ""
		if id != 0 {
			s, err := st.GetSettings()
			if err != nil {
				return err
			}
			// Fall back to the primary language; sync records the real one
			language = s.PrimaryLanguage
		}
		if err := st.SetSecondaryTranslation(id, language); err != nil {
			return err
		}
	case "wifi-only":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean %q", value)
		}
		if err := st.SetWifiOnly(b); err != nil {
			return err
		}
	case "translit":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean %q", value)
		}
		s, err := st.GetSettings()
		if err != nil {
			return err
		}
		s.ShowTransliteration = b
		if err := st.SaveSettings(s); err != nil {
			return err
		}
	case "theme":
		switch value {
		case "light", "dark", "system":
		default:
			return fmt.Errorf("invalid theme %q (light, dark or system)", value)
		}
		s, err := st.GetSettings()
		if err != nil {
			return err
		}
		s.Theme = value
		if err := st.SaveSettings(s); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown setting %q", key)
	}

	fmt.Printf("%s = %s\n", key, value)
	return nil
}
