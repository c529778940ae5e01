package store

import (
	"database/sql"
	"fmt"

	"github.com/franz/hifz/internal/util"
)

// settingsKey is the fixed id of the singleton settings row
const settingsKey = 1

// Settings is the singleton user settings record
type Settings struct {
	PrimaryTranslationID   int
	PrimaryLanguage        string
	SecondaryTranslationID int // 0 means none
	SecondaryLanguage      string
	ReciterID              int
	WifiOnly               bool
	ShowTransliteration    bool
	NotificationTime       string // "HH:MM", empty disables
	Theme                  string
	LastChapter            int // 0 means no saved session
	LastPositionSecs       float64
}

// defaultSettings mirrors the column defaults in the schema
func defaultSettings() *Settings {
	return &Settings{
		ReciterID:           7,
		ShowTransliteration: true,
		Theme:               "system",
	}
}

// GetSettings returns the singleton settings row, creating it with
// defaults on first access
func (s *Store) GetSettings() (*Settings, error) {
	settings := &Settings{}
	err := s.db.QueryRow(`
		SELECT primary_translation_id, primary_language,
		       secondary_translation_id, secondary_language,
		       reciter_id, wifi_only, show_transliteration,
		       notification_time, theme, last_chapter, last_position_secs
		FROM settings WHERE id = ?
	`, settingsKey).Scan(
		&settings.PrimaryTranslationID, &settings.PrimaryLanguage,
		&settings.SecondaryTranslationID, &settings.SecondaryLanguage,
		&settings.ReciterID, &settings.WifiOnly, &settings.ShowTransliteration,
		&settings.NotificationTime, &settings.Theme,
		&settings.LastChapter, &settings.LastPositionSecs,
	)

	if err == sql.ErrNoRows {
		settings = defaultSettings()
		if err := s.SaveSettings(settings); err != nil {
			return nil, err
		}
		return settings, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	return settings, nil
}

// SaveSettings writes the singleton settings row
func (s *Store) SaveSettings(settings *Settings) error {
	_, err := s.db.Exec(`
		INSERT INTO settings (id, primary_translation_id, primary_language,
			secondary_translation_id, secondary_language, reciter_id, wifi_only,
			show_transliteration, notification_time, theme, last_chapter, last_position_secs)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			primary_translation_id = excluded.primary_translation_id,
			primary_language = excluded.primary_language,
			secondary_translation_id = excluded.secondary_translation_id,
			secondary_language = excluded.secondary_language,
			reciter_id = excluded.reciter_id,
			wifi_only = excluded.wifi_only,
			show_transliteration = excluded.show_transliteration,
			notification_time = excluded.notification_time,
			theme = excluded.theme,
			last_chapter = excluded.last_chapter,
			last_position_secs = excluded.last_position_secs
		`, settingsKey,
		settings.PrimaryTranslationID, settings.PrimaryLanguage,
		settings.SecondaryTranslationID, settings.SecondaryLanguage,
		settings.ReciterID, settings.WifiOnly, settings.ShowTransliteration,
		settings.NotificationTime, settings.Theme,
		settings.LastChapter, settings.LastPositionSecs)

	if err != nil {
		return fmt.Errorf("%w: failed to save settings: %v", util.ErrStorage, err)
	}

	return nil
}

// SetPrimaryTranslation records the active primary translation edition
func (s *Store) SetPrimaryTranslation(catalogID int, language string) error {
	return s.updateSettings(func(settings *Settings) {
		settings.PrimaryTranslationID = catalogID
		settings.PrimaryLanguage = language
	})
}

// SetSecondaryTranslation records the secondary edition; catalogID 0 clears it
func (s *Store) SetSecondaryTranslation(catalogID int, language string) error {
	return s.updateSettings(func(settings *Settings) {
		settings.SecondaryTranslationID = catalogID
		settings.SecondaryLanguage = language
	})
}

// SetReciter records the selected reciter
func (s *Store) SetReciter(reciterID int) error {
	return s.updateSettings(func(settings *Settings) {
		settings.ReciterID = reciterID
	})
}

// SetWifiOnly records whether audio downloads are restricted to wifi
func (s *Store) SetWifiOnly(wifiOnly bool) error {
	return s.updateSettings(func(settings *Settings) {
		settings.WifiOnly = wifiOnly
	})
}

// SaveLastPlayback records the most recent playback position for session
// restoration. Restoration only surfaces the value; resuming is up to the
// caller.
func (s *Store) SaveLastPlayback(chapter int, positionSecs float64) error {
	return s.updateSettings(func(settings *Settings) {
		settings.LastChapter = chapter
		settings.LastPositionSecs = positionSecs
	})
}

func (s *Store) updateSettings(mutate func(*Settings)) error {
	settings, err := s.GetSettings()
	if err != nil {
		return err
	}
	mutate(settings)
	return s.SaveSettings(settings)
}
