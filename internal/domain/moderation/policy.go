package moderation

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

const (
	mediumMaxLinks = 3
	strictMaxLinks = 2
	strictMinChars = 20
)

var linkPattern = regexp.MustCompile(`(?i)https?://|www\.`)

// Check evaluates content against the community policy. Rules run in a
// fixed order and the first violation wins:
//
//	blocklist   low, medium, strict
//	link count  medium (> 3), strict (> 2)
//	min length  strict (< 20 characters after trimming)
//
// A disabled policy or the off preset allows everything.
func Check(content string, settings Settings) Result {
	if !settings.Enabled || settings.Preset == PresetOff || !settings.Preset.Valid() {
		return Result{Allowed: true}
	}

	if containsBlockedPhrase(content, settings.Blocklist) {
		return Result{Rule: RuleBlocklist, Reason: "Content contains a blocked word or phrase"}
	}

	if settings.Preset == PresetMedium || settings.Preset == PresetStrict {
		limit := mediumMaxLinks
		if settings.Preset == PresetStrict {
			limit = strictMaxLinks
		}
		if CountLinks(content) > limit {
			return Result{Rule: RuleLinks, Reason: "Content contains too many links"}
		}
	}

	if settings.Preset == PresetStrict {
		if utf8.RuneCountInString(strings.TrimSpace(content)) < strictMinChars {
			return Result{Rule: RuleLength, Reason: "Content is too short"}
		}
	}

	return Result{Allowed: true}
}

// CountLinks counts http://, https:// and www. markers, case-insensitively.
func CountLinks(content string) int {
	return len(linkPattern.FindAllStringIndex(content, -1))
}

// BlockedPhrases splits a blocklist into trimmed, non-empty phrases
func BlockedPhrases(blocklist string) []string {
	var phrases []string
	for _, line := range strings.Split(blocklist, "\n") {
		if p := strings.TrimSpace(line); p != "" {
			phrases = append(phrases, p)
		}
	}
	return phrases
}

func containsBlockedPhrase(content, blocklist string) bool {
	phrases := BlockedPhrases(blocklist)
	if len(phrases) == 0 {
		return false
	}

	fold := cases.Fold()
	folded := fold.String(content)
	for _, p := range phrases {
		if strings.Contains(folded, fold.String(p)) {
			return true
		}
	}
	return false
}
