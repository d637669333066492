package codegen

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/sitesmith/sitesmith/internal/models"
)

var (
	// ErrInvalidStyle is returned when the Style field of a prompt is not a JSON object.
	ErrInvalidStyle = errors.New("invalid style JSON")
	// ErrUnknownIntent is returned when no command is recognized in a voice transcription.
	ErrUnknownIntent = errors.New("intent could not be determined")
)

var (
	actionRe  = regexp.MustCompile(`(?i)Action: (add|remove|modify)`)
	targetRe  = regexp.MustCompile(`(?i)Target: (\w+)`)
	contentRe = regexp.MustCompile(`(?i)Content: "([^"]*)"`)
	styleRe   = regexp.MustCompile(`(?is)Style: (\{.*?\})`)
	iconRe    = regexp.MustCompile(`(?i)Icon: ([\w-]+)`)

	voiceIconRe = regexp.MustCompile(`icône ([\p{L}\p{N}_-]+)|icon ([\p{L}\p{N}_-]+)`)
	digitRe     = regexp.MustCompile(`\d`)
)

// ParseIntent extracts the structured fields of a prompt such as
// `Action: add, Target: button, Content: "Buy", Style: {"color":"red"}, Icon: cart`.
// Missing fields take their defaults (add, custom, "", {}, none).
func ParseIntent(prompt string) (models.ModificationIntent, error) {
	intent := models.ModificationIntent{
		Action: "add",
		Target: "custom",
		Style:  map[string]any{},
	}

	if m := actionRe.FindStringSubmatch(prompt); m != nil {
		intent.Action = strings.ToLower(m[1])
	}
	if m := targetRe.FindStringSubmatch(prompt); m != nil {
		intent.Target = strings.ToLower(m[1])
	}
	if m := contentRe.FindStringSubmatch(prompt); m != nil {
		intent.Content = m[1]
	}
	if m := styleRe.FindStringSubmatch(prompt); m != nil {
		if err := json.Unmarshal([]byte(m[1]), &intent.Style); err != nil {
			return intent, fmt.Errorf("%w: %v", ErrInvalidStyle, err)
		}
	}
	if m := iconRe.FindStringSubmatch(prompt); m != nil && !strings.EqualFold(m[1], "none") {
		intent.Icon = m[1]
	}

	return intent, nil
}

var voicePhrases = []struct {
	intent  models.VoiceIntent
	phrases []string
}{
	{models.VoiceAddImage, []string{"ajouter une image", "add an image"}},
	{models.VoiceModifyText, []string{"changer le texte", "change the text"}},
	{models.VoiceModifyStyle, []string{"changer le style", "change the style"}},
	{models.VoiceAddButton, []string{"ajouter un bouton", "add a button"}},
	{models.VoiceAddIcon, []string{"ajouter une icône", "add an icon"}},
}

// ExtractVoiceIntent maps a spoken command to an intent and an optional icon name.
func ExtractVoiceIntent(transcription string) (models.VoiceIntent, string, error) {
	text := strings.ToLower(transcription)

	var intent models.VoiceIntent
	for _, vp := range voicePhrases {
		for _, phrase := range vp.phrases {
			if strings.Contains(text, phrase) {
				intent = vp.intent
				break
			}
		}
		if intent != "" {
			break
		}
	}

	var icon string
	if m := voiceIconRe.FindStringSubmatch(text); m != nil {
		icon = m[1]
		if icon == "" {
			icon = m[2]
		}
	}

	if intent == "" {
		return "", icon, ErrUnknownIntent
	}
	return intent, icon, nil
}

var (
	addressKeywords = []string{"rue", "avenue", "boulevard", "place", "impasse", "allée", "route", "street", "blvd", "road", "city", "town"}
	mapKeywords     = []string{"carte", "map", "localisation", "location", "géographique", "geographic"}
)

// IsAddressAndMapIntent reports whether prompt mentions an address and asks for a map.
func IsAddressAndMapIntent(prompt string) bool {
	text := strings.ToLower(prompt)

	hasAddress := digitRe.MatchString(text) || containsAny(text, addressKeywords)
	return hasAddress && containsAny(text, mapKeywords)
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// voicePrompt turns a recognized voice command into a structured prompt
func voicePrompt(intent models.VoiceIntent, icon, transcription string) string {
	content := strings.ReplaceAll(strings.TrimSpace(transcription), `"`, "'")

	var action, target string
	switch intent {
	case models.VoiceAddImage:
		action, target = "add", "image"
	case models.VoiceModifyText:
		action, target = "modify", "text"
	case models.VoiceModifyStyle:
		action, target = "modify", "style"
	case models.VoiceAddButton:
		action, target = "add", "button"
	case models.VoiceAddIcon:
		action, target = "add", "icon"
	}

	prompt := fmt.Sprintf(`Action: %s, Target: %s, Content: "%s"`, action, target, content)
	if icon != "" {
		prompt += ", Icon: " + icon
	}
	return prompt
}
