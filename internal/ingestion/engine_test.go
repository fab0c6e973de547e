package ingestion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/mfenderov/doculens/internal/events"
	"github.com/mfenderov/doculens/internal/extractor"
	"github.com/mfenderov/doculens/internal/fetcher"
	"github.com/mfenderov/doculens/internal/store"
	"github.com/mfenderov/doculens/internal/summarizer"
	"github.com/mfenderov/doculens/pkg/models"
)

const pythonBase = extractor.DefaultPythonURL

var longBody = strings.Repeat("Python makes everyday programming approachable and fun to learn. ", 20)

type fakeFetcher struct {
	pages map[string]string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (string, bool) {
	html, ok := f.pages[url]
	return html, ok
}

// pythonSite builds a tutorial with n sections. Sections listed in missing are
// linked from the index but cannot be fetched.
func pythonSite(n int, body string, missing ...int) *fakeFetcher {
	gone := make(map[int]bool)
	for _, m := range missing {
		gone[m] = true
	}

	var links strings.Builder
	pages := make(map[string]string)
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&links, `<li><a class="reference internal" href="s%d.html">Topic %d</a></li>`, i, i)
		if gone[i] {
			continue
		}
		pages[fmt.Sprintf("%ss%d.html", pythonBase, i)] = fmt.Sprintf(`<html><body>
<div class="sphinxsidebar"><p>sidebar</p></div>
<div class="body"><h1>Topic %d</h1><p>%s</p>
<div class="highlight"><pre>print("section %d")</pre></div></div>
</body></html>`, i, body, i)
	}
	pages[pythonBase+"index.html"] = `<html><body><div class="body"><ul>` + links.String() + `</ul></div></body></html>`
	return &fakeFetcher{pages: pages}
}

func staticSessions(f fetcher.Fetcher, released *int) Sessions {
	return func() (fetcher.Fetcher, func()) {
		return f, func() {
			if released != nil {
				*released++
			}
		}
	}
}

type stubSummarizer struct {
	summary  string
	err      error
	requests []summarizer.Request
}

func (s *stubSummarizer) Summarize(_ context.Context, req summarizer.Request) (string, error) {
	s.requests = append(s.requests, req)
	return s.summary, s.err
}

// failingStore wraps a real store and fails code-example inserts for one
// section title, after the section row itself was written.
type failingStore struct {
	*store.Store
	failTitle string
}

func (s *failingStore) Begin(ctx context.Context) (store.Tx, error) {
	tx, err := s.Store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &failingTx{Tx: tx, failTitle: s.failTitle}, nil
}

type failingTx struct {
	store.Tx
	failTitle string
	current   string
}

func (t *failingTx) SaveSection(ctx context.Context, sec *models.Section) error {
	t.current = sec.Title
	return t.Tx.SaveSection(ctx, sec)
}

func (t *failingTx) InsertCodeExample(ctx context.Context, sectionID string, ex models.CodeExample) error {
	if t.current == t.failTitle {
		return errors.New("disk I/O error")
	}
	return t.Tx.InsertCodeExample(ctx, sectionID, ex)
}

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sectionTitles(t *testing.T, s *store.Store, languageID string) []string {
	t.Helper()

	sections, err := s.ListSections(t.Context(), languageID)
	if err != nil {
		t.Fatalf("ListSections() error = %v", err)
	}
	titles := make([]string, len(sections))
	for i, sec := range sections {
		titles[i] = sec.Title
	}
	return titles
}

func TestIngest_PartialFailure(t *testing.T) {
	st := setupTestStore(t)
	released := 0
	o := New(st, &stubSummarizer{summary: "A summary."}, staticSessions(pythonSite(5, longBody, 3), &released), Config{})

	result, err := o.Ingest(t.Context(), "Python", "")
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	if result.SectionsScraped != 5 || result.SectionsStored != 4 {
		t.Errorf("scraped/stored = %d/%d, want 5/4", result.SectionsScraped, result.SectionsStored)
	}
	if result.Status != StatusPartial {
		t.Errorf("Status = %q, want %q", result.Status, StatusPartial)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "Topic 3") {
		t.Errorf("Errors = %v, want one error naming Topic 3", result.Errors)
	}
	if released != 1 {
		t.Errorf("fetcher released %d times, want 1", released)
	}

	got := strings.Join(sectionTitles(t, st, result.LanguageID), ",")
	if got != "Topic 1,Topic 2,Topic 4,Topic 5" {
		t.Errorf("stored sections = %s", got)
	}
}

func TestIngest_QuickPath(t *testing.T) {
	st := setupTestStore(t)
	o := New(st, &stubSummarizer{summary: "A summary."}, staticSessions(pythonSite(10, longBody), nil), Config{})

	result, err := o.Ingest(t.Context(), "Python", "")
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if result.SectionsStored != 10 || result.QuickPathSections != 4 || result.Status != StatusSucceeded {
		t.Fatalf("result = %+v", result)
	}

	sections, err := st.ListSections(t.Context(), result.LanguageID)
	if err != nil {
		t.Fatal(err)
	}
	for i, sec := range sections {
		if sec.IsQuickPath != (i < 4) {
			t.Errorf("section %d (%s) IsQuickPath = %v", i, sec.Title, sec.IsQuickPath)
		}
		if !sec.IsDeepPath {
			t.Errorf("section %d (%s) should be on the deep path", i, sec.Title)
		}
	}
}

func TestQuickPathCount(t *testing.T) {
	tests := []struct {
		total int
		ratio float64
		want  int
	}{
		{0, 0.4, 0},
		{1, 0.4, 1},
		{3, 0.4, 2},
		{5, 0.4, 2},
		{10, 0.4, 4},
		{15, 0.4, 6},
		{10, 1, 10},
	}
	for _, tt := range tests {
		if got := quickPathCount(tt.total, tt.ratio); got != tt.want {
			t.Errorf("quickPathCount(%d, %v) = %d, want %d", tt.total, tt.ratio, got, tt.want)
		}
	}
}

func TestIngest_LanguageIsResolvedNotDuplicated(t *testing.T) {
	st := setupTestStore(t)
	o := New(st, &stubSummarizer{summary: "A summary."}, staticSessions(pythonSite(2, longBody), nil), Config{})

	first, err := o.Ingest(t.Context(), "Python", "")
	if err != nil {
		t.Fatal(err)
	}
	second, err := o.Ingest(t.Context(), "Python", "")
	if err != nil {
		t.Fatal(err)
	}

	if first.LanguageID == "" || first.LanguageID != second.LanguageID {
		t.Errorf("language IDs = %q, %q; want the same non-empty ID", first.LanguageID, second.LanguageID)
	}
	languages, err := st.ListLanguages(t.Context())
	if err != nil || len(languages) != 1 {
		t.Fatalf("ListLanguages() = %d, %v; want 1", len(languages), err)
	}

	lang := languages[0]
	if lang.Slug != "python" || lang.Description != "Learn Python programming" {
		t.Errorf("language = %+v", lang)
	}
	if lang.LogoURL != "https://cdn.jsdelivr.net/gh/devicons/devicon/icons/python/python-original.svg" {
		t.Errorf("LogoURL = %q", lang.LogoURL)
	}

	if titles := sectionTitles(t, st, first.LanguageID); len(titles) != 2 {
		t.Errorf("re-ingest should refresh sections in place, got %v", titles)
	}
}

func TestIngest_Summaries(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		sum       *stubSummarizer
		want      string
		wantCalls int
	}{
		{"provider summary is trimmed", longBody, &stubSummarizer{summary: "  Python basics.\n"}, "Python basics.", 1},
		{"provider failure", longBody, &stubSummarizer{err: summarizer.ErrServiceUnavailable}, FailedSummary, 1},
		{"empty provider response", longBody, &stubSummarizer{summary: "   "}, EmptySummary, 1},
		{"short preview skips provider", "Too short.", &stubSummarizer{summary: "unused"}, ShortPreviewSummary, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := setupTestStore(t)
			o := New(st, tt.sum, staticSessions(pythonSite(1, tt.body), nil), Config{})

			result, err := o.Ingest(t.Context(), "Python", "")
			if err != nil {
				t.Fatal(err)
			}
			if result.SectionsStored != 1 {
				t.Fatalf("SectionsStored = %d, want 1", result.SectionsStored)
			}

			sections, _ := st.ListSections(t.Context(), result.LanguageID)
			if sections[0].Summary != tt.want {
				t.Errorf("Summary = %q, want %q", sections[0].Summary, tt.want)
			}
			if len(tt.sum.requests) != tt.wantCalls {
				t.Fatalf("summarizer called %d times, want %d", len(tt.sum.requests), tt.wantCalls)
			}
			if tt.wantCalls > 0 {
				req := tt.sum.requests[0]
				if req.LanguageContext != "Python" || req.MaxWords != 150 || req.Style != summarizer.StyleConcise {
					t.Errorf("request = %+v", req)
				}
				if extractor.WordCount(req.Content) != 100 {
					t.Errorf("preview has %d words, want 100", extractor.WordCount(req.Content))
				}
			}
		})
	}
}

func TestIngest_NilSummarizerUsesPlaceholder(t *testing.T) {
	st := setupTestStore(t)
	o := New(st, nil, staticSessions(pythonSite(1, longBody), nil), Config{})

	result, err := o.Ingest(t.Context(), "Python", "")
	if err != nil {
		t.Fatal(err)
	}
	sections, _ := st.ListSections(t.Context(), result.LanguageID)
	if len(sections) != 1 || sections[0].Summary != FailedSummary {
		t.Errorf("sections = %+v", sections)
	}
}

func TestIngest_SectionFailureIsRolledBackAlone(t *testing.T) {
	st := setupTestStore(t)
	fs := &failingStore{Store: st, failTitle: "Topic 2"}
	o := New(fs, &stubSummarizer{summary: "A summary."}, staticSessions(pythonSite(3, longBody), nil), Config{})

	result, err := o.Ingest(t.Context(), "Python", "")
	if err != nil {
		t.Fatal(err)
	}
	if result.SectionsScraped != 3 || result.SectionsStored != 2 || result.Status != StatusPartial {
		t.Errorf("result = %+v", result)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "disk I/O error") {
		t.Errorf("Errors = %v", result.Errors)
	}

	sections, _ := st.ListSections(t.Context(), result.LanguageID)
	if got := len(sections); got != 2 {
		t.Fatalf("stored %d sections, want 2", got)
	}
	for _, sec := range sections {
		if sec.Title == "Topic 2" {
			t.Error("failed section should have been rolled back")
		}
		code, err := st.ListCodeExamples(t.Context(), sec.ID)
		if err != nil || len(code) != 1 {
			t.Errorf("section %s code examples = %d, %v", sec.Title, len(code), err)
		}
	}
}

func TestIngest_CapsStoredCodeExamples(t *testing.T) {
	st := setupTestStore(t)
	f := pythonSite(1, longBody)
	var blocks strings.Builder
	for i := range 8 {
		fmt.Fprintf(&blocks, `<div class="highlight"><pre>print("example %d")</pre></div>`, i)
	}
	f.pages[pythonBase+"s1.html"] = `<html><body><div class="body"><h1>Topic 1</h1><p>` + longBody + `</p>` + blocks.String() + `</div></body></html>`

	o := New(st, &stubSummarizer{summary: "A summary."}, staticSessions(f, nil), Config{MaxCodeExamples: 3})
	result, err := o.Ingest(t.Context(), "Python", "")
	if err != nil {
		t.Fatal(err)
	}

	sections, _ := st.ListSections(t.Context(), result.LanguageID)
	code, _ := st.ListCodeExamples(t.Context(), sections[0].ID)
	if len(code) != 3 || code[0].Code != `print("example 0")` {
		t.Errorf("code examples = %+v", code)
	}
}

func TestIngest_UnsupportedLanguage(t *testing.T) {
	st := setupTestStore(t)
	o := New(st, nil, staticSessions(&fakeFetcher{}, nil), Config{})

	result, err := o.Ingest(t.Context(), "Cobol", "https://example.com/cobol/")
	if err != nil {
		t.Fatalf("Ingest() error = %v, want a failed_to_start result", err)
	}
	if result.Status != StatusFailedToStart {
		t.Errorf("Status = %q, want %q", result.Status, StatusFailedToStart)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "no scraper available") {
		t.Errorf("Errors = %v", result.Errors)
	}
	if languages, _ := st.ListLanguages(t.Context()); len(languages) != 0 {
		t.Errorf("no language should be created, got %+v", languages)
	}
}

func TestIngest_EmptyNameIsInvalid(t *testing.T) {
	o := New(setupTestStore(t), nil, staticSessions(&fakeFetcher{}, nil), Config{})

	if _, err := o.Ingest(t.Context(), "  ", ""); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("Ingest() error = %v, want ErrInvalidParameter", err)
	}
}

func TestIngest_EmptyIndex(t *testing.T) {
	st := setupTestStore(t)
	o := New(st, nil, staticSessions(&fakeFetcher{}, nil), Config{})

	result, err := o.Ingest(t.Context(), "Rust", "")
	if err != nil {
		t.Fatal(err)
	}
	if result.Status != StatusEmpty || result.SectionsScraped != 0 || result.SectionsStored != 0 {
		t.Errorf("result = %+v", result)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "index unavailable") {
		t.Errorf("Errors = %v, want the unavailable index reported", result.Errors)
	}
	if _, err := st.GetLanguage(t.Context(), result.LanguageID); err != nil {
		t.Errorf("language should still be created: %v", err)
	}
}

func TestIngest_IndexWithoutSections(t *testing.T) {
	st := setupTestStore(t)
	f := &fakeFetcher{pages: map[string]string{
		pythonBase + "index.html": `<html><body><div class="body"><p>Nothing here yet.</p></div></body></html>`,
	}}
	o := New(st, nil, staticSessions(f, nil), Config{})

	result, err := o.Ingest(t.Context(), "Python", "")
	if err != nil {
		t.Fatal(err)
	}
	if result.Status != StatusEmpty || len(result.Errors) != 0 {
		t.Errorf("result = %+v, want an empty run without errors", result)
	}
}

func TestIngest_DocsHomeURLIsNotScraped(t *testing.T) {
	st := setupTestStore(t)
	home := "https://docs.python.org/3/"
	o := New(st, &stubSummarizer{summary: "A summary."}, staticSessions(pythonSite(5, longBody), nil), Config{})

	result, err := o.Ingest(t.Context(), "Python", home)
	if err != nil {
		t.Fatal(err)
	}
	if result.SectionsScraped != 5 || result.SectionsStored != 5 || result.Status != StatusSucceeded {
		t.Fatalf("result = %+v", result)
	}

	lang, err := st.GetLanguage(t.Context(), result.LanguageID)
	if err != nil || lang.OfficialDocURL != home {
		t.Errorf("language = %+v, %v", lang, err)
	}
}

// mirrored serves site under root instead of the default tutorial URL.
func mirrored(site *fakeFetcher, root string) *fakeFetcher {
	moved := &fakeFetcher{pages: make(map[string]string)}
	for url, html := range site.pages {
		moved.pages[strings.Replace(url, pythonBase, root, 1)] = html
	}
	return moved
}

func TestIngest_ConfiguredRoot(t *testing.T) {
	mirror := "https://mirror.example.org/py/tutorial/"

	tests := []struct {
		name string
		root string
	}{
		{"directory root", mirror},
		{"index page root", mirror + "index.html"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := setupTestStore(t)
			config := Config{Roots: map[extractor.Source]string{extractor.SourcePython: tt.root}}
			o := New(st, nil, staticSessions(mirrored(pythonSite(2, longBody), mirror), nil), config)

			result, err := o.Ingest(t.Context(), "python3", "https://mirror.example.org/py/")
			if err != nil {
				t.Fatal(err)
			}
			if result.SectionsStored != 2 || len(result.Errors) != 0 {
				t.Fatalf("result = %+v", result)
			}

			sections, _ := st.ListSections(t.Context(), result.LanguageID)
			if len(sections) != 2 || sections[0].SourceURL != mirror+"s1.html" {
				t.Errorf("sections = %+v", sections)
			}
			lang, err := st.GetLanguage(t.Context(), result.LanguageID)
			if err != nil || lang.OfficialDocURL != "https://mirror.example.org/py/" {
				t.Errorf("language = %+v, %v", lang, err)
			}
		})
	}
}

func TestIngest_PageURLAsDocURL(t *testing.T) {
	st := setupTestStore(t)
	o := New(st, nil, staticSessions(pythonSite(2, longBody), nil), Config{})

	result, err := o.Ingest(t.Context(), "Python", pythonBase+"index.html")
	if err != nil {
		t.Fatal(err)
	}
	if result.SectionsStored != 2 || result.Status != StatusSucceeded {
		t.Errorf("result = %+v", result)
	}
}

func TestIngest_QuickPathCountsScrapedSections(t *testing.T) {
	st := setupTestStore(t)
	o := New(st, &stubSummarizer{summary: "A summary."}, staticSessions(pythonSite(5, longBody, 1), nil), Config{})

	result, err := o.Ingest(t.Context(), "Python", "")
	if err != nil {
		t.Fatal(err)
	}
	if result.SectionsScraped != 5 || result.SectionsStored != 4 || result.QuickPathSections != 2 {
		t.Fatalf("result = %+v", result)
	}

	sections, err := st.ListSections(t.Context(), result.LanguageID)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]bool{"Topic 2": true, "Topic 3": true, "Topic 4": false, "Topic 5": false}
	for _, sec := range sections {
		if sec.IsQuickPath != want[sec.Title] {
			t.Errorf("%s IsQuickPath = %v, want %v", sec.Title, sec.IsQuickPath, want[sec.Title])
		}
	}
}

func TestIngest_PublishesStoredSections(t *testing.T) {
	st := setupTestStore(t)
	ch := make(chan events.SectionStored, 10)
	o := New(st, &stubSummarizer{summary: "A summary."}, staticSessions(pythonSite(3, longBody, 2), nil), Config{}).Notify(ch)

	result, err := o.Ingest(t.Context(), "Python", "")
	if err != nil {
		t.Fatal(err)
	}
	close(ch)

	var got []events.SectionStored
	for e := range ch {
		got = append(got, e)
	}
	if len(got) != result.SectionsStored {
		t.Fatalf("got %d events, want %d", len(got), result.SectionsStored)
	}
	first := got[0]
	if first.Title != "Topic 1" || first.Language != "Python" || first.LanguageID != result.LanguageID {
		t.Errorf("event = %+v", first)
	}
	if first.SectionID == "" || first.Summary != "A summary." || !strings.Contains(first.HTML, "Topic 1") {
		t.Errorf("event = %+v", first)
	}
}
