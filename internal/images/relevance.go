package images

import (
	"strings"
	"unicode"
)

// IsRelevant reports whether at least minMatches keywords appear in tags.
// Comparison is case-insensitive.
func IsRelevant(tags map[string]struct{}, keywords []string, minMatches int) bool {
	lowered := make(map[string]struct{}, len(tags))
	for t := range tags {
		lowered[strings.ToLower(t)] = struct{}{}
	}

	matches := 0
	for _, kw := range keywords {
		if _, ok := lowered[strings.ToLower(kw)]; ok {
			matches++
		}
	}
	return matches >= minMatches
}

// TagSet splits free text into a lowercase word set.
func TagSet(texts ...string) map[string]struct{} {
	tags := make(map[string]struct{})
	for _, text := range texts {
		for _, word := range splitWords(text) {
			tags[word] = struct{}{}
		}
	}
	return tags
}

// PhraseTagSet keeps each comma-separated phrase as a tag and adds its words too.
func PhraseTagSet(list string) map[string]struct{} {
	tags := make(map[string]struct{})
	for _, phrase := range strings.Split(list, ",") {
		phrase = strings.ToLower(strings.TrimSpace(phrase))
		if phrase == "" {
			continue
		}
		tags[phrase] = struct{}{}
		for _, word := range splitWords(phrase) {
			tags[word] = struct{}{}
		}
	}
	return tags
}

func splitWords(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})
}
