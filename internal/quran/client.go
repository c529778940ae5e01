// Package quran provides stateless HTTP accessors for remote Quran content:
// verse text, translation editions, reciter catalogs and chapter audio
// descriptors. The client performs no retries; resilience is the caller's
// responsibility.
package quran

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/franz/hifz/internal/util"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the content API base URL
	DefaultBaseURL = "https://api.quran.com/api/v4"

	// UserAgent identifies this application to the API
	UserAgent = "hifz/1.0 (https://github.com/franz/hifz)"

	// requestInterval is the minimum spacing between API requests
	requestInterval = 250 * time.Millisecond
)

// Client handles content API requests with rate limiting
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	limiter    *rate.Limiter
}

// NewClient creates a new content API client. An empty baseURL selects the
// default endpoint.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: UserAgent,
		limiter:   rate.NewLimiter(rate.Every(requestInterval), 1),
	}
}

// TranslationInfo is a translation catalog entry
type TranslationInfo struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Author   string `json:"author_name"`
	Language string `json:"language_name"`
}

// Reciter is a reciter catalog entry
type Reciter struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Style string `json:"style"`
}

// VerseText is one verse of a chapter's source text
type VerseText struct {
	VerseNumber     int    `json:"verse_number"`
	TextArabic      string `json:"text_uthmani"`
	Transliteration string `json:"transliteration"`
}

// VerseTiming locates a verse within a chapter audio file
type VerseTiming struct {
	VerseNumber int
	StartSecs   float64
	EndSecs     float64
}

// ChapterAudio describes a chapter recitation: where the media lives and,
// when requested, how verses map onto it
type ChapterAudio struct {
	AudioURL      string
	FileSizeBytes int64
	Format        string
	Timings       []VerseTiming
}

type pagination struct {
	NextPage *int `json:"next_page"`
}

type translationsPage struct {
	Translations []TranslationInfo `json:"translations"`
	Pagination   pagination        `json:"pagination"`
}

type recitersPage struct {
	Reciters   []Reciter  `json:"reciters"`
	Pagination pagination `json:"pagination"`
}

type translationTextResponse struct {
	Translations []struct {
		Text string `json:"text"`
	} `json:"translations"`
}

type chapterVersesResponse struct {
	Verses []VerseText `json:"verses"`
}

type chapterAudioResponse struct {
	AudioFile struct {
		AudioURL     string `json:"audio_url"`
		FileSize     int64  `json:"file_size"`
		Format       string `json:"format"`
		VerseTimings []struct {
			VerseKey      string  `json:"verse_key"`
			TimestampFrom float64 `json:"timestamp_from"`
			TimestampTo   float64 `json:"timestamp_to"`
		} `json:"verse_timings"`
	} `json:"audio_file"`
}

// FetchTranslationCatalog retrieves the full translation catalog, following
// pagination until exhausted. The merged list is stable-sorted by id.
func (c *Client) FetchTranslationCatalog(ctx context.Context) ([]TranslationInfo, error) {
	var all []TranslationInfo
	page := 1
	for {
		var resp translationsPage
		url := fmt.Sprintf("%s/translations-catalog?page=%d", c.baseURL, page)
		if err := c.getJSON(ctx, url, &resp); err != nil {
			return nil, err
		}
		all = append(all, resp.Translations...)
		if resp.Pagination.NextPage == nil || *resp.Pagination.NextPage <= page {
			break
		}
		page = *resp.Pagination.NextPage
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all, nil
}

// FetchReciterCatalog retrieves the full reciter catalog, following
// pagination until exhausted. The merged list is stable-sorted by id.
func (c *Client) FetchReciterCatalog(ctx context.Context) ([]Reciter, error) {
	var all []Reciter
	page := 1
	for {
		var resp recitersPage
		url := fmt.Sprintf("%s/reciters-catalog?page=%d", c.baseURL, page)
		if err := c.getJSON(ctx, url, &resp); err != nil {
			return nil, err
		}
		all = append(all, resp.Reciters...)
		if resp.Pagination.NextPage == nil || *resp.Pagination.NextPage <= page {
			break
		}
		page = *resp.Pagination.NextPage
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all, nil
}

// FetchChapterTranslation retrieves one chapter's verse texts for a
// translation edition. Entries are positional: the response is aligned to
// the chapter's own ascending verse order and carries no verse numbers.
func (c *Client) FetchChapterTranslation(ctx context.Context, catalogID, chapter int) ([]string, error) {
	if catalogID <= 0 {
		return nil, fmt.Errorf("%w: catalog id %d", util.ErrInvalidRef, catalogID)
	}
	if err := validChapter(chapter); err != nil {
		return nil, err
	}

	var resp translationTextResponse
	url := fmt.Sprintf("%s/translation/%d?chapter=%d", c.baseURL, catalogID, chapter)
	if err := c.getJSON(ctx, url, &resp); err != nil {
		return nil, err
	}

	texts := make([]string, 0, len(resp.Translations))
	for _, t := range resp.Translations {
		texts = append(texts, t.Text)
	}
	return texts, nil
}

// FetchChapterVerses retrieves a chapter's source text for import
func (c *Client) FetchChapterVerses(ctx context.Context, chapter int) ([]VerseText, error) {
	if err := validChapter(chapter); err != nil {
		return nil, err
	}

	var resp chapterVersesResponse
	url := fmt.Sprintf("%s/chapter-verses/%d", c.baseURL, chapter)
	if err := c.getJSON(ctx, url, &resp); err != nil {
		return nil, err
	}
	return resp.Verses, nil
}

// FetchChapterAudio retrieves the audio descriptor for a chapter and
// reciter. When withTiming is set the request asks for segment data and the
// returned timing table is sorted by verse number.
func (c *Client) FetchChapterAudio(ctx context.Context, reciterID, chapter int, withTiming bool) (*ChapterAudio, error) {
	if reciterID <= 0 {
		return nil, fmt.Errorf("%w: reciter id %d", util.ErrInvalidRef, reciterID)
	}
	if err := validChapter(chapter); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/chapter-audio/%d/%d", c.baseURL, reciterID, chapter)
	if withTiming {
		url += "?segments=true"
	}

	var resp chapterAudioResponse
	if err := c.getJSON(ctx, url, &resp); err != nil {
		return nil, err
	}

	if resp.AudioFile.AudioURL == "" {
		return nil, fmt.Errorf("%w: no audio for reciter %d chapter %d", util.ErrNotFound, reciterID, chapter)
	}

	audio := &ChapterAudio{
		AudioURL:      resp.AudioFile.AudioURL,
		FileSizeBytes: resp.AudioFile.FileSize,
		Format:        resp.AudioFile.Format,
	}

	for _, t := range resp.AudioFile.VerseTimings {
		verse, err := parseVerseKey(t.VerseKey)
		if err != nil {
			util.WarnLog("Skipping malformed verse key %q: %v", t.VerseKey, err)
			continue
		}
		audio.Timings = append(audio.Timings, VerseTiming{
			VerseNumber: verse,
			StartSecs:   t.TimestampFrom / 1000.0,
			EndSecs:     t.TimestampTo / 1000.0,
		})
	}
	sort.Slice(audio.Timings, func(i, j int) bool {
		return audio.Timings[i].VerseNumber < audio.Timings[j].VerseNumber
	})

	return audio, nil
}

// OpenAudioStream opens the media at url for streaming download. The caller
// must close the returned body. The second value is the content length, or
// -1 when unknown.
func (c *Client) OpenAudioStream(ctx context.Context, url string) (io.ReadCloser, int64, error) {
	if url == "" {
		return nil, 0, fmt.Errorf("%w: empty audio url", util.ErrInvalidRef)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", util.ErrInvalidRef, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", util.ErrNetwork, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, 0, fmt.Errorf("audio media: %w", util.ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, 0, fmt.Errorf("%w: unexpected status %d", util.ErrNetwork, resp.StatusCode)
	}

	return resp.Body, resp.ContentLength, nil
}

// getJSON performs a rate-limited GET and decodes the JSON response
func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", util.ErrInvalidRef, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	util.DebugLog("Content API: GET %s", url)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", util.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w", url, util.ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: unexpected status %d: %s", util.ErrNetwork, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", util.ErrDecode, err)
	}

	return nil
}

func validChapter(chapter int) error {
	if chapter <= 0 {
		return fmt.Errorf("%w: chapter %d", util.ErrInvalidRef, chapter)
	}
	return nil
}

func parseVerseKey(key string) (int, error) {
	parts := strings.Split(key, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("%w: verse key %q", util.ErrDecode, key)
	}
	verse, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("%w: verse key %q", util.ErrDecode, key)
	}
	return verse, nil
}
