// Package entity recognizes known domain nouns (teams, players) in free
// text. Lexicons are data, not code: each sport or entity class registers a
// Matcher built from an external term list, so adding a team or player is a
// data update.
package entity

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Matcher reports every known term of one domain present in the text.
type Matcher interface {
	Matches(text string) []string
}

// LexiconMatcher matches a fixed term list with word-boundary semantics,
// case-insensitively. It is immutable after construction and safe for
// concurrent use.
type LexiconMatcher struct {
	domain   string
	terms    []string
	patterns []*regexp.Regexp
}

func NewLexiconMatcher(domain string, terms []string) (*LexiconMatcher, error) {
	m := &LexiconMatcher{domain: domain}

	seen := make(map[string]struct{})
	for _, term := range terms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}

		pattern, err := regexp.Compile(`\b` + regexp.QuoteMeta(term) + `\b`)
		if err != nil {
			return nil, fmt.Errorf("failed to compile lexicon term %q: %w", term, err)
		}

		m.terms = append(m.terms, term)
		m.patterns = append(m.patterns, pattern)
	}

	return m, nil
}

func (m *LexiconMatcher) Domain() string {
	return m.domain
}

func (m *LexiconMatcher) Matches(text string) []string {
	lower := strings.ToLower(text)

	var matches []string
	for i, pattern := range m.patterns {
		if pattern.MatchString(lower) {
			matches = append(matches, m.terms[i])
		}
	}
	return matches
}

// Registry holds one Matcher per domain. It is loaded once at startup and
// treated as immutable, so extraction needs no locking.
type Registry struct {
	domains []string
	byName  map[string]Matcher
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Matcher)}
}

// Register adds or replaces the matcher for a domain. Not safe to call
// concurrently with Extract; registration happens during startup.
func (r *Registry) Register(domain string, matcher Matcher) {
	if _, ok := r.byName[domain]; !ok {
		r.domains = append(r.domains, domain)
	}
	r.byName[domain] = matcher
}

func (r *Registry) Domains() []string {
	out := make([]string, len(r.domains))
	copy(out, r.domains)
	return out
}

// Extract unions lexicon matches across every registered domain. The result
// is deduplicated and sorted, so identical input always yields identical
// output. An empty result is valid for entity-free text.
func (r *Registry) Extract(text string) []string {
	seen := make(map[string]struct{})
	for _, domain := range r.domains {
		for _, match := range r.byName[domain].Matches(text) {
			seen[match] = struct{}{}
		}
	}

	if len(seen) == 0 {
		return nil
	}

	entities := make([]string, 0, len(seen))
	for entity := range seen {
		entities = append(entities, entity)
	}
	sort.Strings(entities)
	return entities
}
