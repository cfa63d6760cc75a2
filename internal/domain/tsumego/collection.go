package tsumego

import (
	"fmt"

	"tsumego_exe/internal/errors"
)

// Tsumego slugs that would collide with collection routes.
var reservedTsumegoSlugs = map[string]bool{
	"verify":  true,
	"explore": true,
}

// Tsumego is a problem that can be reached from its collection root.
type Tsumego struct {
	Slug      string       `json:"slug" bson:"slug" yaml:"slug"`
	Subtitle  string       `json:"subtitle" bson:"subtitle" yaml:"subtitle"`
	State     PositionJSON `json:"state" bson:"state" yaml:"state"`
	BotToPlay bool         `json:"botToPlay" bson:"bot_to_play" yaml:"botToPlay"`
	// Value is the expected solved bound, nil when the problem is not verified.
	Value *Bound `json:"value,omitempty" bson:"value,omitempty" yaml:"value,omitempty"`
}

// Collection groups problems that share one solved graph.
type Collection struct {
	Slug     string       `json:"slug" bson:"slug" yaml:"slug"`
	Title    string       `json:"title" bson:"title" yaml:"title"`
	Wide     bool         `json:"wide" bson:"wide" yaml:"wide"`
	Root     PositionJSON `json:"root" bson:"root" yaml:"root"`
	Tsumegos []Tsumego    `json:"tsumegos" bson:"tsumegos" yaml:"tsumegos"`
}

// Validate checks that the collection and each of its tsumegos can be addressed by slug.
func (c Collection) Validate() error {
	if c.Slug == "" {
		return fmt.Errorf("%w: collection without slug", errors.ErrMalformedCollection)
	}
	seen := make(map[string]bool, len(c.Tsumegos))
	for i, t := range c.Tsumegos {
		switch {
		case t.Slug == "":
			return fmt.Errorf("%w: %s: tsumego %d has no slug", errors.ErrMalformedCollection, c.Slug, i)
		case reservedTsumegoSlugs[t.Slug]:
			return fmt.Errorf("%w: %s: tsumego slug %q is reserved", errors.ErrMalformedCollection, c.Slug, t.Slug)
		case seen[t.Slug]:
			return fmt.Errorf("%w: %s: tsumego slug %q is used twice", errors.ErrMalformedCollection, c.Slug, t.Slug)
		}
		seen[t.Slug] = true
	}
	return nil
}

func (c Collection) TsumegoBySlug(slug string) (Tsumego, bool) {
	for _, t := range c.Tsumegos {
		if t.Slug == slug {
			return t, true
		}
	}
	return Tsumego{}, false
}

type CollectionSummary struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

type CollectionsResponse struct {
	Collections []CollectionSummary `json:"collections"`
}

type TsumegoSummary struct {
	Slug     string `json:"slug"`
	Subtitle string `json:"subtitle"`
}

type CollectionResponse struct {
	Title    string           `json:"title"`
	Root     PositionJSON     `json:"root"`
	Tsumegos []TsumegoSummary `json:"tsumegos"`
}

type TsumegoResponse struct {
	Title     string       `json:"title"`
	Subtitle  string       `json:"subtitle"`
	State     PositionJSON `json:"state"`
	BotToPlay bool         `json:"botToPlay"`
}

// AnalyzeRequest is the body of a position query. Tactics is the tactic context of the
// client; reports always carry both the plain and the forcing view, so it only has to parse.
type AnalyzeRequest struct {
	State   PositionJSON `json:"state"`
	Tactics Tactics      `json:"tactics,omitempty"`
}

// VerificationMismatch records a problem whose solved bound differs from the recorded one.
type VerificationMismatch struct {
	Slug     string `json:"slug"`
	Expected Bound  `json:"expected"`
	Actual   Bound  `json:"actual"`
}

type VerificationReport struct {
	Collection string                 `json:"collection"`
	Checked    int                    `json:"checked"`
	Mismatches []VerificationMismatch `json:"mismatches"`
}
