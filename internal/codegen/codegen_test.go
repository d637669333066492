package codegen

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sitesmith/sitesmith/internal/config"
	"github.com/sitesmith/sitesmith/internal/models"
	"github.com/sitesmith/sitesmith/internal/providers"
)

func TestParseIntent(t *testing.T) {
	tests := []struct {
		name     string
		prompt   string
		expected models.ModificationIntent
		style    string
	}{
		{
			name:     "all fields",
			prompt:   `Action: MODIFY, Target: Button, Content: "Acheter maintenant", Style: {"color": "red"}, Icon: shopping-cart`,
			expected: models.ModificationIntent{Action: "modify", Target: "button", Content: "Acheter maintenant", Icon: "shopping-cart"},
			style:    `{"color":"red"}`,
		},
		{
			name:     "defaults",
			prompt:   "make it nicer",
			expected: models.ModificationIntent{Action: "add", Target: "custom"},
			style:    "{}",
		},
		{
			name:     "icon none",
			prompt:   "action: remove target: footer Icon: none",
			expected: models.ModificationIntent{Action: "remove", Target: "footer"},
			style:    "{}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseIntent(tt.prompt)
			if err != nil {
				t.Fatalf("ParseIntent() error = %v", err)
			}
			if got.Action != tt.expected.Action || got.Target != tt.expected.Target || got.Content != tt.expected.Content || got.Icon != tt.expected.Icon {
				t.Errorf("Expected %+v, got %+v", tt.expected, got)
			}
			if got.StyleJSON() != tt.style {
				t.Errorf("Expected style %s, got %s", tt.style, got.StyleJSON())
			}
		})
	}
}

func TestParseIntentInvalidStyle(t *testing.T) {
	_, err := ParseIntent(`Action: add, Style: {color: red}`)
	if !errors.Is(err, ErrInvalidStyle) {
		t.Errorf("Expected ErrInvalidStyle, got %v", err)
	}
}

func TestExtractVoiceIntent(t *testing.T) {
	tests := []struct {
		transcription string
		intent        models.VoiceIntent
		icon          string
		err           error
	}{
		{"Ajouter une image de plage", models.VoiceAddImage, "", nil},
		{"please change the text of the header", models.VoiceModifyText, "", nil},
		{"changer le style du bouton", models.VoiceModifyStyle, "", nil},
		{"add a button with icon cart", models.VoiceAddButton, "cart", nil},
		{"ajouter une icône star", models.VoiceAddIcon, "star", nil},
		{"ajouter une image avec icône étoile", models.VoiceAddImage, "étoile", nil},
		{"hello there", "", "", ErrUnknownIntent},
	}

	for _, tt := range tests {
		t.Run(tt.transcription, func(t *testing.T) {
			intent, icon, err := ExtractVoiceIntent(tt.transcription)
			if !errors.Is(err, tt.err) {
				t.Errorf("Expected error %v, got %v", tt.err, err)
			}
			if intent != tt.intent || icon != tt.icon {
				t.Errorf("Expected (%s, %q), got (%s, %q)", tt.intent, tt.icon, intent, icon)
			}
		})
	}
}

func TestIsAddressAndMapIntent(t *testing.T) {
	tests := []struct {
		prompt   string
		expected bool
	}{
		{"Ajoute une carte pour 12 rue de la Paix", true},
		{"show a map of Main Street", true},
		{"add a map", false},
		{"10 Downing Street", false},
		{"Localisation de notre boutique avenue Foch", true},
	}

	for _, tt := range tests {
		if got := IsAddressAndMapIntent(tt.prompt); got != tt.expected {
			t.Errorf("IsAddressAndMapIntent(%q): expected %v, got %v", tt.prompt, tt.expected, got)
		}
	}
}

// stubProvider returns a fixed completion and remembers the last request
type stubProvider struct {
	out  string
	err  error
	last providers.Config
	n    int
}

func (s *stubProvider) Complete(_ context.Context, cfg providers.Config) (string, error) {
	s.n++
	s.last = cfg
	return s.out, s.err
}

type memoryRecorder struct {
	entries []models.HistoryEntry
}

func (m *memoryRecorder) Record(_ context.Context, e models.HistoryEntry) error {
	m.entries = append(m.entries, e)
	return nil
}

func TestGenerate(t *testing.T) {
	stub := &stubProvider{out: "Here is your page:\n```html\n<html><head></head><body><button><i class=\"fas fa-cart\"></i>Acheter</button></body></html>\n```"}
	rec := &memoryRecorder{}
	svc := NewService(stub, Options{Model: "llama3-70b-8192", Temperature: 0.7, MaxTokens: 2000, FontAwesomeKit: "abc123", Recorder: rec})

	result, err := svc.Generate(context.Background(), GenerateRequest{
		Prompt:        `Action: add, Target: button, Content: "Acheter", Icon: cart`,
		CurrentCode:   "<html></html>",
		ExistingPages: []byte(`["index.html"]`),
		PagePath:      "fruits/apple.html",
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if stub.n != 1 {
		t.Errorf("Expected exactly one LLM call, got %d", stub.n)
	}
	if result.Folder != "fruits" {
		t.Errorf("Expected folder fruits, got %s", result.Folder)
	}
	for _, want := range []string{"<title>apple - My Website</title>", "<style>", "https://kit.fontawesome.com/abc123.js", "fa-cart"} {
		if !strings.Contains(result.Code, want) {
			t.Errorf("Expected code to contain %q, got:\n%s", want, result.Code)
		}
	}
	if strings.Contains(result.Code, "Here is your page") {
		t.Errorf("Expected commentary stripped, got:\n%s", result.Code)
	}

	expected := "Applied prompt: Action: add, Target: button, Content: Acheter, Style: {}, Icon: cart"
	if len(result.Modifications) != 1 || result.Modifications[0] != expected {
		t.Errorf("Expected %q, got %v", expected, result.Modifications)
	}

	for _, want := range []string{"'apple'", "'fruits'", "generic", "French"} {
		if !strings.Contains(stub.last.System, want) {
			t.Errorf("Expected system prompt to contain %q", want)
		}
	}
	if !strings.Contains(stub.last.Prompt, `Existing pages: ["index.html"]`) {
		t.Errorf("Expected existing pages in user prompt, got:\n%s", stub.last.Prompt)
	}
	if stub.last.Model != "llama3-70b-8192" || stub.last.MaxTokens != 2000 {
		t.Errorf("Unexpected provider config %+v", stub.last)
	}

	if len(rec.entries) != 1 || rec.entries[0].PagePath != "fruits/apple.html" || rec.entries[0].Icon != "cart" {
		t.Errorf("Expected one recorded entry, got %+v", rec.entries)
	}
}

func TestGenerateDefaultsAndErrors(t *testing.T) {
	stub := &stubProvider{out: "<p>plain</p>"}
	svc := NewService(stub, Options{})

	result, err := svc.Generate(context.Background(), GenerateRequest{Prompt: "Action: add"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if result.Folder != "default" || !strings.Contains(result.Code, "<title>index - My Website</title>") {
		t.Errorf("Expected default page path, got folder %s code:\n%s", result.Folder, result.Code)
	}
	if strings.Contains(result.Code, "kit.fontawesome.com") {
		t.Error("Expected no icon kit without a configured kit")
	}

	if _, err := svc.Generate(context.Background(), GenerateRequest{Prompt: "   "}); !errors.Is(err, ErrMissingPrompt) {
		t.Errorf("Expected ErrMissingPrompt, got %v", err)
	}
	if _, err := svc.Generate(context.Background(), GenerateRequest{Prompt: "Style: {bad}"}); !errors.Is(err, ErrInvalidStyle) {
		t.Errorf("Expected ErrInvalidStyle, got %v", err)
	}

	failing := NewService(&stubProvider{err: &providers.StatusError{StatusCode: 500}}, Options{})
	_, err = failing.Generate(context.Background(), GenerateRequest{Prompt: "Action: add"})
	var statusErr *providers.StatusError
	if !errors.As(err, &statusErr) {
		t.Errorf("Expected wrapped StatusError, got %v", err)
	}
}

func TestAddPage(t *testing.T) {
	stub := &stubProvider{out: "```html\n<html><head><style>body{}</style></head><body><img src=\"\" alt=\"Bouquet\"></body></html>\n```"}
	svc := NewService(stub, Options{Language: "English"})

	result, err := svc.AddPage(context.Background(), "", "flowers.html")
	if err != nil {
		t.Fatalf("AddPage() error = %v", err)
	}
	if result.PageName != "flowers.html" || result.Style != "modern" {
		t.Errorf("Unexpected result %+v", result)
	}
	if !strings.Contains(result.Code, "<title>flowers - My Website</title>") || !strings.Contains(result.Code, `<img src="" alt="Bouquet">`) {
		t.Errorf("Unexpected code:\n%s", result.Code)
	}
	if !strings.Contains(stub.last.Prompt, "Create a flowers.html page") || !strings.Contains(stub.last.System, "English") {
		t.Errorf("Unexpected prompts: %+v", stub.last)
	}

	if _, err := svc.AddPage(context.Background(), "x", ""); !errors.Is(err, ErrMissingPageName) {
		t.Errorf("Expected ErrMissingPageName, got %v", err)
	}
}

func TestVoiceModify(t *testing.T) {
	stub := &stubProvider{out: "<html><body><button>Go</button></body></html>"}
	svc := NewService(stub, Options{})

	result, err := svc.VoiceModify(context.Background(), VoiceRequest{
		Transcription: `Add a button with icon rocket saying "Go"`,
		CurrentCode:   "<html></html>",
		PagePath:      "index.html",
	})
	if err != nil {
		t.Fatalf("VoiceModify() error = %v", err)
	}
	if result.Intent != "add_button" || result.Icon != "rocket" {
		t.Errorf("Unexpected result %+v", result)
	}
	if result.Message != "Code modified successfully for intent 'add_button'" {
		t.Errorf("Unexpected message %q", result.Message)
	}
	if !strings.Contains(stub.last.Prompt, "Target: button") || !strings.Contains(stub.last.Prompt, "Icon: rocket") {
		t.Errorf("Expected structured prompt, got:\n%s", stub.last.Prompt)
	}

	tests := []struct {
		req VoiceRequest
		err error
	}{
		{VoiceRequest{CurrentCode: "<p>"}, ErrMissingTranscription},
		{VoiceRequest{Transcription: "add an image"}, ErrMissingCurrentCode},
		{VoiceRequest{Transcription: "bonjour", CurrentCode: "<p>"}, ErrUnknownIntent},
	}
	for _, tt := range tests {
		if _, err := svc.VoiceModify(context.Background(), tt.req); !errors.Is(err, tt.err) {
			t.Errorf("Expected %v, got %v", tt.err, err)
		}
	}
}

func TestNewProvider(t *testing.T) {
	for _, name := range []string{"groq", "openai", "ollama", "gemini"} {
		if _, err := NewProvider(config.LLMConfig{Provider: name, Retry: config.RetryConfig{MaxAttempts: 3}}); err != nil {
			t.Errorf("NewProvider(%s) error = %v", name, err)
		}
	}
	if _, err := NewProvider(config.LLMConfig{Provider: "mystery"}); err == nil {
		t.Error("Expected error for unknown provider")
	}
}
