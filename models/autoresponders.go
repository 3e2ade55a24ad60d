package models

type RuleKind string

const (
	RuleKindText     RuleKind = "text"
	RuleKindReaction RuleKind = "reaction"
)

// AutoresponderRule is keyed by guild and lowercased trigger.
type AutoresponderRule struct {
	Trigger string
	Kind    RuleKind
	Reply   string   // RuleKindText
	Emojis  []string // RuleKindReaction, in the order they get added
}

func (r AutoresponderRule) Copy() AutoresponderRule {
	if r.Emojis != nil {
		r.Emojis = append([]string(nil), r.Emojis...)
	}
	return r
}
