package intent

import "strings"

// Signals are evaluated independently; one message may carry several.
type Signals struct {
	ExplicitConfirm bool `json:"explicit_confirm"`
	SoftConfirm     bool `json:"soft_confirm"`
	Reopen          bool `json:"reopen"`
	EditRequested   bool `json:"edit_requested"`
}

// Any reports whether the message carried at least one signal
func (s Signals) Any() bool {
	return s.ExplicitConfirm || s.SoftConfirm || s.Reopen || s.EditRequested
}

// PhraseSets holds the lowercase phrases that trigger each signal
type PhraseSets struct {
	ExplicitConfirm []string
	SoftConfirm     []string
	Reopen          []string
	EditRequested   []string
}

// DefaultPhraseSets returns the investor review vocabulary
func DefaultPhraseSets() PhraseSets {
	return PhraseSets{
		ExplicitConfirm: []string{
			"mark this resolved",
			"mark it resolved",
			"this is resolved",
			"resolved now",
			"approve and resolve",
			"good to go",
			"looks resolved",
		},
		SoftConfirm: []string{
			"i approve",
			"approved",
			"looks good",
			"good with this",
			"works for me",
			"accept this",
		},
		Reopen: []string{
			"reopen",
			"not resolved",
			"keep open",
			"needs more changes",
			"open this again",
		},
		EditRequested: []string{
			"change",
			"update",
			"modify",
			"revise",
			"add",
			"remove",
			"should",
			"need to",
		},
	}
}

// Classifier is a case-insensitive substring matcher over fixed phrase sets
type Classifier struct {
	phrases PhraseSets
}

// NewClassifier creates a classifier with the default phrase sets
func NewClassifier() *Classifier {
	return NewClassifierWithPhrases(DefaultPhraseSets())
}

func NewClassifierWithPhrases(phrases PhraseSets) *Classifier {
	return &Classifier{phrases: phrases}
}

// Classify returns every signal whose phrase set has a member inside message
func (c *Classifier) Classify(message string) Signals {
	lowered := strings.ToLower(message)
	return Signals{
		ExplicitConfirm: containsAny(lowered, c.phrases.ExplicitConfirm),
		SoftConfirm:     containsAny(lowered, c.phrases.SoftConfirm),
		Reopen:          containsAny(lowered, c.phrases.Reopen),
		EditRequested:   containsAny(lowered, c.phrases.EditRequested),
	}
}

func containsAny(message string, phrases []string) bool {
	for _, phrase := range phrases {
		if strings.Contains(message, phrase) {
			return true
		}
	}
	return false
}
