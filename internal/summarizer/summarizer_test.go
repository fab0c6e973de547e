package summarizer

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// fakeProvider returns a fixed reply or error and records its calls.
type fakeProvider struct {
	name      string
	reply     string
	err       error
	calls     int
	system    string
	user      string
	maxTokens int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Complete(_ context.Context, system, user string, maxTokens int) (string, error) {
	f.calls++
	f.system, f.user, f.maxTokens = system, user, maxTokens
	return f.reply, f.err
}

var docText = strings.Repeat("Lists are mutable sequences of items. ", 5)

func TestSummarize_PrimarySucceeds(t *testing.T) {
	primary := &fakeProvider{name: "groq", reply: "P"}
	secondary := &fakeProvider{name: "anthropic", reply: "S"}

	got, err := New(primary, secondary).Summarize(t.Context(), Request{
		Content:         docText,
		MaxWords:        150,
		Style:           StyleConcise,
		LanguageContext: "Python",
	})
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if got != "P" {
		t.Errorf("Summarize() = %q, want P", got)
	}
	if secondary.calls != 0 {
		t.Errorf("secondary called %d times, want 0", secondary.calls)
	}
	if primary.maxTokens != 300 {
		t.Errorf("maxTokens = %d, want 300", primary.maxTokens)
	}
	if !strings.Contains(primary.system, "You specialize in Python documentation.") {
		t.Errorf("system prompt = %q", primary.system)
	}
	if !strings.Contains(primary.user, "(max 150 words)") {
		t.Errorf("user prompt = %q", primary.user)
	}
}

func TestSummarize_FailsOverToSecondary(t *testing.T) {
	primary := &fakeProvider{name: "groq", err: errors.New("rate limited")}
	secondary := &fakeProvider{name: "anthropic", reply: "X"}

	got, err := New(primary, secondary).Summarize(t.Context(), Request{Content: docText, MaxWords: 100})
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if got != "X" {
		t.Errorf("Summarize() = %q, want X", got)
	}
	if primary.calls != 1 || secondary.calls != 1 {
		t.Errorf("calls primary=%d secondary=%d, want 1/1", primary.calls, secondary.calls)
	}
	if primary.user != secondary.user || primary.system != secondary.system {
		t.Error("secondary should receive the same instruction as primary")
	}
}

func TestSummarize_Unavailable(t *testing.T) {
	tests := []struct {
		name      string
		primary   Provider
		secondary Provider
	}{
		{"both fail", &fakeProvider{name: "a", err: errors.New("down")}, &fakeProvider{name: "b", err: errors.New("down")}},
		{"unconfigured", nil, nil},
		{"only secondary configured and failing", nil, &fakeProvider{name: "b", err: errors.New("down")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.primary, tt.secondary).Summarize(t.Context(), Request{Content: docText})
			if !errors.Is(err, ErrServiceUnavailable) {
				t.Errorf("error = %v, want ErrServiceUnavailable", err)
			}
			if errors.Is(err, ErrValidation) {
				t.Error("unavailable error must not be a validation error")
			}
		})
	}
}

func TestSummarize_ContentTooShort(t *testing.T) {
	primary := &fakeProvider{name: "groq", reply: "P"}

	_, err := New(primary, nil).Summarize(t.Context(), Request{Content: "   too short   "})
	if !errors.Is(err, ErrContentTooShort) || !errors.Is(err, ErrValidation) {
		t.Errorf("error = %v, want ErrContentTooShort", err)
	}
	if errors.Is(err, ErrServiceUnavailable) {
		t.Error("validation error must not be a service-unavailable error")
	}
	if primary.calls != 0 {
		t.Error("provider should not be called for invalid input")
	}
}

func TestSummarize_TruncatesLongInput(t *testing.T) {
	primary := &fakeProvider{name: "groq", reply: "ok"}
	long := strings.Repeat("a", MaxInputChars+500)

	if _, err := New(primary, nil).Summarize(t.Context(), Request{Content: long}); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(primary.user, strings.Repeat("a", MaxInputChars+1)) {
		t.Error("content should be truncated before submission")
	}
	if !strings.Contains(primary.user, strings.Repeat("a", MaxInputChars)+"...") {
		t.Error("truncated content should end with an ellipsis")
	}
}

func TestSystemPrompt(t *testing.T) {
	tests := []struct {
		style Style
		lang  string
		want  string
	}{
		{StyleConcise, "", "You are a technical documentation summarizer. Create brief, clear summaries focusing on core concepts. Maintain accuracy and technical precision."},
		{StyleDetailed, "Rust", "You are a technical documentation summarizer. You specialize in Rust documentation. Create comprehensive summaries preserving technical details. Maintain accuracy and technical precision."},
		{StyleBulletPoints, "", "You are a technical documentation summarizer. Create summaries as bullet points highlighting key points. Maintain accuracy and technical precision."},
	}

	for _, tt := range tests {
		t.Run(string(tt.style), func(t *testing.T) {
			if got := SystemPrompt(tt.style, tt.lang); got != tt.want {
				t.Errorf("SystemPrompt() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseStyle(t *testing.T) {
	if s, err := ParseStyle("Bullet_Points"); err != nil || s != StyleBulletPoints {
		t.Errorf("ParseStyle(Bullet_Points) = %q, %v", s, err)
	}
	if s, err := ParseStyle(""); err != nil || s != StyleConcise {
		t.Errorf("ParseStyle(\"\") = %q, %v", s, err)
	}
	if _, err := ParseStyle("haiku"); !errors.Is(err, ErrValidation) {
		t.Errorf("ParseStyle(haiku) error = %v, want ErrValidation", err)
	}
}
