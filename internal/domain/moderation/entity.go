package moderation

import "time"

// Preset selects which automatic rules apply
type Preset string

const (
	PresetOff    Preset = "off"
	PresetLow    Preset = "low"
	PresetMedium Preset = "medium"
	PresetStrict Preset = "strict"
)

// Presets lists every valid preset
var Presets = []Preset{PresetOff, PresetLow, PresetMedium, PresetStrict}

// Valid reports whether p is a known preset
func (p Preset) Valid() bool {
	switch p {
	case PresetOff, PresetLow, PresetMedium, PresetStrict:
		return true
	}
	return false
}

// ReportReason represents the category of a report
type ReportReason string

const (
	ReportReasonSpam       ReportReason = "Spam"
	ReportReasonHarassment ReportReason = "Harassment"
	ReportReasonOffTopic   ReportReason = "Off-topic"
	ReportReasonOther      ReportReason = "Other"
)

// ReportReasons lists every valid reason
var ReportReasons = []ReportReason{ReportReasonSpam, ReportReasonHarassment, ReportReasonOffTopic, ReportReasonOther}

// Valid reports whether r is a known reason
func (r ReportReason) Valid() bool {
	switch r {
	case ReportReasonSpam, ReportReasonHarassment, ReportReasonOffTopic, ReportReasonOther:
		return true
	}
	return false
}

// Decision is a moderator's verdict on a post
type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

// Valid reports whether d is a known decision
func (d Decision) Valid() bool {
	return d == DecisionApproved || d == DecisionRejected
}

// Settings is the per-community moderation configuration. Blocklist holds
// one phrase per line.
type Settings struct {
	Enabled   bool   `json:"enabled"`
	Preset    Preset `json:"preset"`
	Blocklist string `json:"blocklist"`
}

// DefaultSettings applies to communities that never saved settings
func DefaultSettings() Settings {
	return Settings{Enabled: false, Preset: PresetOff, Blocklist: ""}
}

// Validate rejects unknown presets
func (s Settings) Validate() error {
	if !s.Preset.Valid() {
		return ErrInvalidPreset
	}
	return nil
}

// snippetLimit caps the stored content snippet, in characters.
const snippetLimit = 280

// Snapshot is what the reporter saw when filing the report
type Snapshot struct {
	AuthorName     string
	ContentSnippet string
}

// ReportedPost is the single open report of a post
type ReportedPost struct {
	ID             string       `json:"id"`
	CommunityID    string       `json:"communityId"`
	PostID         string       `json:"postId"`
	ReportReason   ReportReason `json:"reportReason"`
	ReportedAt     time.Time    `json:"reportedAt"`
	AuthorName     string       `json:"authorName"`
	ContentSnippet string       `json:"contentSnippet"`
}

// DecisionEntry is the current decision for a post. A new decision replaces it.
type DecisionEntry struct {
	CommunityID string    `json:"communityId"`
	PostID      string    `json:"postId"`
	Decision    Decision  `json:"decision"`
	DecidedAt   time.Time `json:"decidedAt"`
}

// Rule names the policy rule that rejected content
type Rule string

const (
	RuleBlocklist Rule = "blocklist"
	RuleLinks     Rule = "too_many_links"
	RuleLength    Rule = "too_short"
)

// Result is the outcome of a policy check
type Result struct {
	Allowed bool   `json:"allowed"`
	Rule    Rule   `json:"rule,omitempty"`
	Reason  string `json:"reason,omitempty"`
}
