package youtube

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"PT1H2M3S", 3723},
		{"PT15M33S", 933},
		{"PT45S", 45},
		{"PT2H", 7200},
		{"PT", 0},
		{"P1D", 0},
		{"", 0},
		{"garbage", 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseDuration(tt.in); got != tt.want {
				t.Errorf("ParseDuration(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestTutorialQuery(t *testing.T) {
	if got := TutorialQuery("Python", " Data  Structures "); got != "Python Data Structures tutorial" {
		t.Errorf("TutorialQuery() = %q", got)
	}
}

func TestSearch_JoinsDetailsByID(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		checks := map[string]string{
			"part":              "snippet",
			"q":                 "Python Classes tutorial",
			"type":              "video",
			"maxResults":        "2",
			"order":             "relevance",
			"videoDuration":     "medium",
			"videoDefinition":   "high",
			"relevanceLanguage": "en",
			"key":               "k",
		}
		for name, want := range checks {
			if got := q.Get(name); got != want {
				t.Errorf("search param %s = %q, want %q", name, got, want)
			}
		}
		w.Write([]byte(`{"items":[
			{"id":{"videoId":"aaa"},"snippet":{"title":"Classes 101","channelTitle":"Chan A","thumbnails":{"high":{"url":"https://i.ytimg.com/aaa.jpg"}}}},
			{"id":{"videoId":"bbb"},"snippet":{"title":"OOP in Python","channelTitle":"Chan B","thumbnails":{}}}
		]}`))
	})
	mux.HandleFunc("/videos", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("id") != "aaa,bbb" || q.Get("part") != "contentDetails,statistics" {
			t.Errorf("videos params = %v", q)
		}
		// Returned out of order to exercise the ID join.
		w.Write([]byte(`{"items":[
			{"id":"bbb","contentDetails":{"duration":"PT10M"},"statistics":{"viewCount":"42"}},
			{"id":"aaa","contentDetails":{"duration":"PT1H2M3S"},"statistics":{"viewCount":"1000"}}
		]}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := New(Config{APIKey: "k", BaseURL: server.URL})
	videos, err := client.Search(t.Context(), TutorialQuery("Python", "Classes"), 2, OrderRelevance)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(videos) != 2 {
		t.Fatalf("got %d videos, want 2", len(videos))
	}

	a, b := videos[0], videos[1]
	if a.URL != "https://www.youtube.com/watch?v=aaa" || a.DurationSeconds != 3723 || a.Views != 1000 {
		t.Errorf("video[0] = %+v", a)
	}
	if a.ThumbnailURL != "https://i.ytimg.com/aaa.jpg" || a.ChannelName != "Chan A" || a.Platform != Platform {
		t.Errorf("video[0] snippet = %+v", a)
	}
	if b.DurationSeconds != 600 || b.Views != 42 || b.OrderIndex != 1 {
		t.Errorf("video[1] = %+v", b)
	}
}

func TestSearch_DetailsFailureKeepsVideos(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[{"id":{"videoId":"aaa"},"snippet":{"title":"T"}}]}`))
	})
	mux.HandleFunc("/videos", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota", http.StatusForbidden)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	videos, err := New(Config{APIKey: "k", BaseURL: server.URL}).Search(t.Context(), "q", 1, "")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(videos) != 1 || videos[0].DurationSeconds != 0 {
		t.Errorf("videos = %+v", videos)
	}
}

func TestSearch_Errors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusForbidden)
	}))
	defer server.Close()

	_, err := New(Config{APIKey: "k", BaseURL: server.URL}).Search(t.Context(), "q", 3, "")
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Errorf("Search() error = %v, want status 403", err)
	}

	_, err = New(Config{BaseURL: server.URL}).Search(t.Context(), "q", 3, "")
	if !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("Search() error = %v, want ErrNoAPIKey", err)
	}
}
