package quran

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/franz/hifz/internal/util"
)

func TestFetchTranslationCatalogPagination(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		switch r.URL.Query().Get("page") {
		case "1":
			fmt.Fprint(w, `{"translations":[{"id":20,"name":"Saheeh International","author_name":"Saheeh","language_name":"english"}],"pagination":{"next_page":2}}`)
		case "2":
			fmt.Fprint(w, `{"translations":[{"id":5,"name":"Elmir Kuliev","author_name":"Kuliev","language_name":"russian"}],"pagination":{"next_page":null}}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	list, err := c.FetchTranslationCatalog(context.Background())
	if err != nil {
		t.Fatalf("FetchTranslationCatalog: %v", err)
	}

	if requests != 2 {
		t.Errorf("made %d requests, want 2", requests)
	}
	if len(list) != 2 {
		t.Fatalf("got %d entries, want 2", len(list))
	}
	// Merged list is sorted by id regardless of page order
	if list[0].ID != 5 || list[1].ID != 20 {
		t.Errorf("ids = %d, %d, want 5, 20", list[0].ID, list[1].ID)
	}
	if list[1].Language != "english" || list[1].Author != "Saheeh" {
		t.Errorf("entry 20 = %+v", list[1])
	}
}

func TestFetchReciterCatalog(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"reciters":[{"id":7,"name":"Mishari Rashid al-Afasy","style":"murattal"},{"id":3,"name":"Abdur-Rahman as-Sudais","style":""}],"pagination":{"next_page":null}}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	list, err := c.FetchReciterCatalog(context.Background())
	if err != nil {
		t.Fatalf("FetchReciterCatalog: %v", err)
	}
	if len(list) != 2 || list[0].ID != 3 || list[1].Style != "murattal" {
		t.Errorf("reciters = %+v", list)
	}
}

func TestFetchChapterTranslationPositional(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/translation/131" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"translations":[{"text":"first"},{"text":"second"},{"text":"third"}]}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	texts, err := c.FetchChapterTranslation(context.Background(), 131, 103)
	if err != nil {
		t.Fatalf("FetchChapterTranslation: %v", err)
	}
	if len(texts) != 3 || texts[0] != "first" || texts[2] != "third" {
		t.Errorf("texts = %v", texts)
	}
}

func TestFetchChapterTranslationValidation(t *testing.T) {
	c := NewClient("http://localhost:1")

	if _, err := c.FetchChapterTranslation(context.Background(), 0, 103); !errors.Is(err, util.ErrInvalidRef) {
		t.Errorf("catalog id 0: err = %v, want ErrInvalidRef", err)
	}
	if _, err := c.FetchChapterTranslation(context.Background(), 131, -1); !errors.Is(err, util.ErrInvalidRef) {
		t.Errorf("chapter -1: err = %v, want ErrInvalidRef", err)
	}
}

func TestFetchChapterAudioTimings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("segments") != "true" {
			t.Errorf("missing segments=true in %s", r.URL)
		}
		fmt.Fprint(w, `{"audio_file":{"audio_url":"https://cdn.example/103.mp3","file_size":123456,"format":"mp3","verse_timings":[
			{"verse_key":"103:2","timestamp_from":5000,"timestamp_to":9000},
			{"verse_key":"103:1","timestamp_from":0,"timestamp_to":5000},
			{"verse_key":"bogus","timestamp_from":1,"timestamp_to":2},
			{"verse_key":"103:3","timestamp_from":9000,"timestamp_to":14000}
		]}}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	audio, err := c.FetchChapterAudio(context.Background(), 7, 103, true)
	if err != nil {
		t.Fatalf("FetchChapterAudio: %v", err)
	}

	if audio.AudioURL != "https://cdn.example/103.mp3" || audio.FileSizeBytes != 123456 {
		t.Errorf("descriptor = %+v", audio)
	}
	// Malformed keys are skipped; the rest sorted by verse, ms converted
	if len(audio.Timings) != 3 {
		t.Fatalf("got %d timings, want 3", len(audio.Timings))
	}
	want := []VerseTiming{
		{VerseNumber: 1, StartSecs: 0, EndSecs: 5},
		{VerseNumber: 2, StartSecs: 5, EndSecs: 9},
		{VerseNumber: 3, StartSecs: 9, EndSecs: 14},
	}
	for i, w := range want {
		if audio.Timings[i] != w {
			t.Errorf("timing[%d] = %+v, want %+v", i, audio.Timings[i], w)
		}
	}
}

func TestFetchChapterAudioMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"audio_file":{}}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.FetchChapterAudio(context.Background(), 7, 103, false)
	if !errors.Is(err, util.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestGetJSONErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/chapter-verses/103":
			fmt.Fprint(w, `not json at all`)
		case "/chapter-verses/104":
			http.NotFound(w, r)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	ctx := context.Background()

	if _, err := c.FetchChapterVerses(ctx, 103); !errors.Is(err, util.ErrDecode) {
		t.Errorf("bad json: err = %v, want ErrDecode", err)
	}
	if _, err := c.FetchChapterVerses(ctx, 104); !errors.Is(err, util.ErrNotFound) {
		t.Errorf("404: err = %v, want ErrNotFound", err)
	}
	if _, err := c.FetchChapterVerses(ctx, 105); !errors.Is(err, util.ErrNetwork) {
		t.Errorf("500: err = %v, want ErrNetwork", err)
	}
}

func TestOpenAudioStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/gone.mp3" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("audio-bytes"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)

	body, size, err := c.OpenAudioStream(context.Background(), srv.URL+"/103.mp3")
	if err != nil {
		t.Fatalf("OpenAudioStream: %v", err)
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if string(data) != "audio-bytes" || size != int64(len(data)) {
		t.Errorf("got %q (size %d)", data, size)
	}

	if _, _, err := c.OpenAudioStream(context.Background(), srv.URL+"/gone.mp3"); !errors.Is(err, util.ErrNotFound) {
		t.Errorf("404 stream: err = %v, want ErrNotFound", err)
	}
	if _, _, err := c.OpenAudioStream(context.Background(), ""); !errors.Is(err, util.ErrInvalidRef) {
		t.Errorf("empty url: err = %v, want ErrInvalidRef", err)
	}
}
