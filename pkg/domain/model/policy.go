package model

import (
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// AttributePredicates select records by resolution, upload date and platform
type AttributePredicates struct {
	MaxGSD        *float64   `toml:"max_gsd_m"`      // Strict upper bound in metres
	UploadedAfter *time.Time `toml:"uploaded_after"` // Strict lower bound
	Platforms     []string   `toml:"platforms"`      // Case-insensitive; empty means any
}

// Match reports whether the record satisfies every predicate. Records missing
// a constrained attribute never match.
func (p AttributePredicates) Match(r *AssetRecord) bool {
	if p.MaxGSD != nil {
		if r.GSD == nil || !(*r.GSD < *p.MaxGSD) {
			return false
		}
	}

	if p.UploadedAfter != nil {
		if r.UploadedAt == nil || !r.UploadedAt.After(*p.UploadedAfter) {
			return false
		}
	}

	if len(p.Platforms) > 0 {
		if r.Platform == "" {
			return false
		}
		found := false
		for _, allowed := range p.Platforms {
			if strings.EqualFold(allowed, string(r.Platform)) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}

// CoverageRule accepts coverage values for records uploaded in [From, Until)
type CoverageRule struct {
	Name   string     `toml:"name"`
	From   *time.Time `toml:"from"`    // Inclusive; nil means unbounded
	Until  *time.Time `toml:"until"`   // Exclusive; nil means unbounded
	Above  float64    `toml:"above"`   // Exclusive lower bound
	AtMost *float64   `toml:"at_most"` // Inclusive upper bound; nil means unbounded
}

// Contains reports whether t falls in the rule window
func (r CoverageRule) Contains(t time.Time) bool {
	if r.From != nil && t.Before(*r.From) {
		return false
	}
	if r.Until != nil && !t.Before(*r.Until) {
		return false
	}
	return true
}

// Accept reports whether coverage satisfies the rule bounds
func (r CoverageRule) Accept(coverage float64) bool {
	if !(coverage > r.Above) {
		return false
	}
	if r.AtMost != nil && coverage > *r.AtMost {
		return false
	}
	return true
}

// CoveragePolicy is an ordered rule table. The first rule whose window
// contains the upload time decides.
type CoveragePolicy struct {
	Rules []CoverageRule `toml:"coverage"`
}

// CoverageCutoff is the upload date at which the strict band is lifted
var CoverageCutoff = time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)

// DefaultCoveragePolicy returns the strict band before CoverageCutoff and
// any non-zero coverage after it.
func DefaultCoveragePolicy() CoveragePolicy {
	cutoff := CoverageCutoff
	band := 30.0
	return CoveragePolicy{
		Rules: []CoverageRule{
			{Name: "strict-band", Until: &cutoff, Above: 0, AtMost: &band},
			{Name: "any-nonzero", From: &cutoff, Above: 0},
		},
	}
}

// Rule returns the rule governing the given upload time
func (p CoveragePolicy) Rule(uploadedAt time.Time) (*CoverageRule, bool) {
	for i := range p.Rules {
		if p.Rules[i].Contains(uploadedAt) {
			return &p.Rules[i], true
		}
	}
	return nil, false
}

// Accept evaluates a record. Records without coverage or upload time, or
// outside every rule window, are rejected.
func (p CoveragePolicy) Accept(r *AssetRecord) bool {
	if r.Coverage == nil || r.UploadedAt == nil {
		return false
	}
	rule, ok := p.Rule(*r.UploadedAt)
	if !ok {
		return false
	}
	return rule.Accept(*r.Coverage)
}

// Validate rejects empty tables and inverted windows
func (p CoveragePolicy) Validate() error {
	if len(p.Rules) == 0 {
		return goerr.New("coverage policy has no rules")
	}
	for i, r := range p.Rules {
		if r.From != nil && r.Until != nil && !r.From.Before(*r.Until) {
			return goerr.New("coverage rule window is empty", goerr.V("index", i), goerr.V("name", r.Name))
		}
		if r.AtMost != nil && *r.AtMost <= r.Above {
			return goerr.New("coverage rule bounds are empty", goerr.V("index", i), goerr.V("name", r.Name))
		}
	}
	return nil
}
