package rules

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/scratchd/scratchd/internal/config"
)

// PatternType selects which window property a rule matches against.
type PatternType string

const (
	PatternClass    PatternType = "class"
	PatternInstance PatternType = "instance"
	PatternTitle    PatternType = "title"
)

// Scope is a rule's verdict: scoped windows follow the active project,
// global windows stay visible everywhere.
type Scope string

const (
	ScopeScoped Scope = "scoped"
	ScopeGlobal Scope = "global"
)

// Source ranks rules that share a priority: system rules win ties against
// user rules.
type Source string

const (
	SourceSystem Source = "system"
	SourceUser   Source = "user"
)

// Rule is one compiled classification rule.
type Rule struct {
	Pattern  *regexp.Regexp
	Type     PatternType
	Scope    Scope
	Priority int
	Source   Source
}

// Subject is the window identity rules match against.
type Subject struct {
	Class    string
	Instance string
	Title    string
}

// Set holds rules in evaluation order.
type Set struct {
	rules []Rule
}

// Build compiles configuration rules into an evaluation-ordered set.
// Patterns were already syntax-checked at config load; a failure here means
// the configuration bypassed validation.
func Build(cfgs []config.RuleConfig) (*Set, error) {
	compiled := make([]Rule, 0, len(cfgs))
	for i, rc := range cfgs {
		re, err := regexp.Compile(rc.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %d: invalid pattern %q: %w", i, rc.Pattern, err)
		}
		compiled = append(compiled, Rule{
			Pattern:  re,
			Type:     PatternType(rc.Type),
			Scope:    Scope(rc.Scope),
			Priority: rc.Priority,
			Source:   Source(rc.Source),
		})
	}
	normalize(compiled)
	return &Set{rules: compiled}, nil
}

// normalize sorts by priority (descending), system before user on ties, and
// preserves declaration order within the same rank.
func normalize(rules []Rule) {
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].Priority != rules[j].Priority {
			return rules[i].Priority > rules[j].Priority
		}
		return sourceRank(rules[i].Source) < sourceRank(rules[j].Source)
	})
}

func sourceRank(s Source) int {
	if s == SourceSystem {
		return 0
	}
	return 1
}

// Classify returns the scope of the first matching rule. Windows no rule
// matches stay global, so an unrecognized window is never hidden.
func (s *Set) Classify(subject Subject) Scope {
	if r, ok := s.Match(subject); ok {
		return r.Scope
	}
	return ScopeGlobal
}

// Match returns the first rule matching the subject in evaluation order.
func (s *Set) Match(subject Subject) (Rule, bool) {
	if s == nil {
		return Rule{}, false
	}
	for _, r := range s.rules {
		if r.Pattern.MatchString(subject.property(r.Type)) {
			return r, true
		}
	}
	return Rule{}, false
}

// Rules returns a copy of the evaluation order for diagnostics.
func (s *Set) Rules() []Rule {
	if s == nil {
		return nil
	}
	return append([]Rule(nil), s.rules...)
}

func (sub Subject) property(t PatternType) string {
	switch t {
	case PatternInstance:
		return sub.Instance
	case PatternTitle:
		return sub.Title
	default:
		return sub.Class
	}
}
