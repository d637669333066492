package images

import (
	"strings"
)

// MaxQueryTokens bounds the refined query length
const MaxQueryTokens = 5

// Vocabulary holds the word tables the refiner works from
type Vocabulary struct {
	StopWords []string `yaml:"stop_words" json:"stop_words"`
	// ContextKeywords maps a page or folder name to keywords appended to its queries
	ContextKeywords map[string][]string `yaml:"context_keywords" json:"context_keywords"`
	// Associations maps a page or folder name to alternative queries
	Associations map[string][]string `yaml:"associations" json:"associations"`
}

// DefaultVocabulary returns the built-in tables.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		StopWords: []string{"a", "an", "the", "with", "at", "in", "on", "of", "and", "page", "template"},
		ContextKeywords: map[string][]string{
			"fruits":      {"fruit", "fresh", "organic", "apple", "banana", "orange"},
			"voyages":     {"travel", "landscape", "destination", "tourist"},
			"technologie": {"tech", "computer", "electronic", "device"},
		},
		Associations: map[string][]string{
			"fruits":      {"produce", "fresh food", "healthy snack"},
			"voyages":     {"vacation", "tourism", "adventure"},
			"technologie": {"gadget", "innovation", "digital"},
		},
	}
}

// Refiner turns free text plus page context into a bounded keyword query
type Refiner struct {
	stopWords    map[string]struct{}
	context      map[string][]string
	associations map[string][]string
}

// NewRefiner lowercases every table entry so lookups are case-insensitive.
func NewRefiner(v Vocabulary) *Refiner {
	r := &Refiner{
		stopWords:    make(map[string]struct{}, len(v.StopWords)),
		context:      make(map[string][]string, len(v.ContextKeywords)),
		associations: make(map[string][]string, len(v.Associations)),
	}
	for _, w := range v.StopWords {
		r.stopWords[strings.ToLower(w)] = struct{}{}
	}
	for k, words := range v.ContextKeywords {
		lowered := make([]string, 0, len(words))
		for _, w := range words {
			lowered = append(lowered, strings.Fields(strings.ToLower(w))...)
		}
		r.context[strings.ToLower(k)] = lowered
	}
	for k, alts := range v.Associations {
		r.associations[strings.ToLower(k)] = append([]string(nil), alts...)
	}
	return r
}

// Refine drops stop words, appends context keywords for the page and folder
// names, removes duplicates and truncates to MaxQueryTokens.
func (r *Refiner) Refine(query, pageName, folderName string) string {
	return strings.Join(r.Keywords(query, pageName, folderName), " ")
}

// Keywords is Refine without the final join.
func (r *Refiner) Keywords(query, pageName, folderName string) []string {
	var tokens []string
	for _, tok := range strings.Fields(strings.ToLower(query)) {
		if _, stop := r.stopWords[tok]; stop {
			continue
		}
		tokens = append(tokens, tok)
	}

	for _, ctx := range []string{pageName, folderName} {
		if kws, ok := r.context[contextKey(ctx)]; ok {
			tokens = append(tokens, kws...)
		}
	}

	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, MaxQueryTokens)
	for _, tok := range tokens {
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
		if len(out) == MaxQueryTokens {
			break
		}
	}
	return out
}

// Alternatives returns the base query followed by the synonyms associated
// with the page name, or the folder name when the page name is empty.
func (r *Refiner) Alternatives(baseQuery, pageName, folderName string) []string {
	alts := []string{baseQuery}

	ctx := pageName
	if strings.TrimSpace(ctx) == "" {
		ctx = folderName
	}
	return append(alts, r.associations[contextKey(ctx)]...)
}

func contextKey(name string) string {
	fields := strings.Fields(strings.ToLower(name))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
