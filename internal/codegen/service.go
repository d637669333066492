package codegen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sitesmith/sitesmith/internal/htmlclean"
	"github.com/sitesmith/sitesmith/internal/models"
	"github.com/sitesmith/sitesmith/internal/providers"
)

var (
	ErrMissingPrompt        = errors.New("prompt is required")
	ErrMissingPageName      = errors.New("page name is required")
	ErrMissingTranscription = errors.New("voice transcription is required")
	ErrMissingCurrentCode   = errors.New("current code is required")
)

const (
	DefaultPagePath = "default/index.html"
	DefaultSiteType = "generic"
)

// headingTargets never receive icons
var headingTargets = map[string]bool{
	"navbar": true, "title": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

// Recorder persists applied modifications
type Recorder interface {
	Record(ctx context.Context, entry models.HistoryEntry) error
}

// Options configures a Service
type Options struct {
	Model          string
	Temperature    float64
	MaxTokens      int
	Language       string
	FontAwesomeKit string
	Recorder       Recorder
}

// Service turns prompts into complete HTML pages through an LLM
type Service struct {
	provider       providers.Provider
	model          string
	temperature    float64
	maxTokens      int
	language       string
	fontAwesomeKit string
	recorder       Recorder
}

// NewService creates a Service. provider should already carry its retry policy.
func NewService(provider providers.Provider, opts Options) *Service {
	if opts.Language == "" {
		opts.Language = "French"
	}
	return &Service{
		provider:       provider,
		model:          opts.Model,
		temperature:    opts.Temperature,
		maxTokens:      opts.MaxTokens,
		language:       opts.Language,
		fontAwesomeKit: opts.FontAwesomeKit,
		recorder:       opts.Recorder,
	}
}

// GenerateRequest is the input of Generate
type GenerateRequest struct {
	Prompt        string          `json:"prompt"`
	CurrentCode   string          `json:"currentCode"`
	ExistingPages json.RawMessage `json:"existingPages"`
	PagePath      string          `json:"pagePath"`
	SiteType      string          `json:"siteType"`
}

// GenerateResult is the output of Generate
type GenerateResult struct {
	Code          string   `json:"code"`
	Folder        string   `json:"folder"`
	Modifications []string `json:"modifications"`
}

// Generate applies a structured prompt to the current page code.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, ErrMissingPrompt
	}

	intent, err := ParseIntent(prompt)
	if err != nil {
		return nil, err
	}

	pagePath := req.PagePath
	if pagePath == "" {
		pagePath = DefaultPagePath
	}
	siteType := req.SiteType
	if siteType == "" {
		siteType = DefaultSiteType
	}
	folderName := models.FolderFromPath(pagePath)
	pageName := models.PageNameFromPath(pagePath)

	slog.Debug("Parsed prompt", "action", intent.Action, "target", intent.Target, "content", intent.Content, "style", intent.StyleJSON(), "icon", intent.IconOrNone())

	raw, err := s.provider.Complete(ctx, providers.Config{
		Model:       s.model,
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
		System:      s.buildGenerateSystemPrompt(intent, pageName, folderName, siteType),
		Prompt:      buildGenerateUserPrompt(req.CurrentCode, pagesList(req.ExistingPages), intent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate code: %w", err)
	}

	code := htmlclean.Clean(raw, pageName)
	if !strings.Contains(strings.ToLower(code), "<style") {
		code = htmlclean.InsertBeforeHeadEnd(code, "<style>"+DefaultStylesheet+"</style>")
	}
	if intent.Icon != "" {
		code = s.ensureIconKit(code)
	}
	checkAdvisories(code, intent)

	summary := fmt.Sprintf("Applied prompt: Action: %s, Target: %s, Content: %s, Style: %s, Icon: %s",
		intent.Action, intent.Target, intent.Content, intent.StyleJSON(), intent.IconOrNone())

	if s.recorder != nil {
		entry := models.HistoryEntry{
			PagePath:  pagePath,
			Action:    intent.Action,
			Target:    intent.Target,
			Content:   intent.Content,
			Style:     intent.StyleJSON(),
			Icon:      intent.Icon,
			Summary:   summary,
			CreatedAt: time.Now().UTC(),
		}
		if err := s.recorder.Record(ctx, entry); err != nil {
			slog.Error("Failed to record modification", "page", pagePath, "error", err)
		}
	}

	return &GenerateResult{
		Code:          code,
		Folder:        folderName,
		Modifications: []string{summary},
	}, nil
}

// PageResult is the output of AddPage
type PageResult struct {
	Code     string `json:"code"`
	PageName string `json:"pageName"`
	Style    string `json:"style"`
}

// AddPage generates a brand new page. Images are left as <img src=""> so
// they can be resolved afterwards.
func (s *Service) AddPage(ctx context.Context, prompt, pageName string) (*PageResult, error) {
	pageName = strings.TrimSpace(pageName)
	if pageName == "" {
		return nil, ErrMissingPageName
	}
	pageTitle := models.PageNameFromPath(pageName)

	raw, err := s.provider.Complete(ctx, providers.Config{
		Model:       s.model,
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
		System:      s.buildPageSystemPrompt(pageName),
		Prompt:      buildPageUserPrompt(strings.TrimSpace(prompt), pageName),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate page: %w", err)
	}

	return &PageResult{
		Code:     htmlclean.Clean(raw, pageTitle),
		PageName: pageName,
		Style:    "modern",
	}, nil
}

// VoiceRequest is the input of VoiceModify
type VoiceRequest struct {
	Transcription string          `json:"voiceTranscription"`
	CurrentCode   string          `json:"currentCode"`
	ExistingPages json.RawMessage `json:"existingPages"`
	PagePath      string          `json:"pagePath"`
}

// VoiceResult is the output of VoiceModify
type VoiceResult struct {
	Code    string `json:"code"`
	Intent  string `json:"intent"`
	Icon    string `json:"icon"`
	Message string `json:"message"`
}

// VoiceModify recognizes the command in a transcription and applies it to
// the current code.
func (s *Service) VoiceModify(ctx context.Context, req VoiceRequest) (*VoiceResult, error) {
	transcription := strings.TrimSpace(req.Transcription)
	if transcription == "" {
		return nil, ErrMissingTranscription
	}
	if req.CurrentCode == "" {
		return nil, ErrMissingCurrentCode
	}

	intent, icon, err := ExtractVoiceIntent(transcription)
	if err != nil {
		slog.Warn("Intent could not be determined from voice transcription", "transcription", transcription)
		return nil, err
	}
	slog.Debug("Extracted voice intent", "intent", intent, "icon", icon)

	result, err := s.Generate(ctx, GenerateRequest{
		Prompt:        voicePrompt(intent, icon, transcription),
		CurrentCode:   req.CurrentCode,
		ExistingPages: req.ExistingPages,
		PagePath:      req.PagePath,
	})
	if err != nil {
		return nil, err
	}

	if icon == "" {
		icon = "none"
	}
	return &VoiceResult{
		Code:    result.Code,
		Intent:  string(intent),
		Icon:    icon,
		Message: fmt.Sprintf("Code modified successfully for intent '%s'", intent),
	}, nil
}

func (s *Service) ensureIconKit(code string) string {
	if s.fontAwesomeKit == "" {
		return code
	}
	src := fmt.Sprintf("https://kit.fontawesome.com/%s.js", s.fontAwesomeKit)
	if strings.Contains(code, src) {
		return code
	}
	return htmlclean.InsertBeforeHeadEnd(code, fmt.Sprintf(`<script src="%s" crossorigin="anonymous"></script>`, src))
}

// checkAdvisories warns when the model ignored part of the request
func checkAdvisories(code string, intent models.ModificationIntent) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(code))
	if err != nil {
		slog.Debug("Could not parse generated code for checks", "error", err)
		return
	}

	if intent.Icon != "" && !headingTargets[intent.Target] {
		if doc.Find(".fa-"+intent.Icon).Length() == 0 {
			slog.Warn("Icon was requested but not applied in the generated code", "icon", intent.Icon, "target", intent.Target)
		}
	}

	if anim, ok := intent.Style["animation"]; ok && anim != nil && anim != "" && anim != false {
		if doc.Find(".animated").Length() == 0 {
			slog.Warn("Animation style was requested but not applied in the generated code", "animation", anim)
		}
	}
}

func pagesList(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return "[]"
	}
	return string(raw)
}
