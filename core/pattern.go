package core

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// PatternKind classifies a path pattern by its syntax.
type PatternKind int

const (
	// PatternLiteral has no '*' and no '{name}' tokens. It matches exactly
	// (priority 4) or as a prefix (priority 2).
	PatternLiteral PatternKind = iota
	// PatternParam contains '{name}' tokens that each match one path segment.
	PatternParam
	// PatternWildcard contains '*' and matches as a prefix regex.
	PatternWildcard
)

// Match priorities. Higher wins.
const (
	PriorityWildcard = 1
	PriorityPrefix   = 2
	PriorityParam    = 3
	PriorityExact    = 4
	// PriorityAvatarOverride keeps avatar uploads from being captured by the
	// generic upload wildcard.
	PriorityAvatarOverride = 5
)

// AvatarUploadPath is the one literal pattern whose exact match outranks
// every other exact match.
const AvatarUploadPath = "/api/upload/avatar"

var paramToken = regexp.MustCompile(`\{([^{}/]+)\}`)

// CompiledPattern is a path pattern compiled once at registry construction.
type CompiledPattern struct {
	Raw  string
	Kind PatternKind
	re   *regexp.Regexp
}

// CompilePattern classifies and compiles a raw pattern.
func CompilePattern(raw string) (*CompiledPattern, error) {
	if raw == "" {
		return nil, errors.New("empty path pattern")
	}
	if strings.Count(raw, "{") != strings.Count(raw, "}") {
		return nil, fmt.Errorf("unbalanced braces in pattern %q", raw)
	}

	p := &CompiledPattern{Raw: raw}

	switch {
	case strings.Contains(raw, "*"):
		p.Kind = PatternWildcard
		re, err := regexp.Compile("^" + patternToRegex(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid wildcard pattern %q: %w", raw, err)
		}
		p.re = re
	case paramToken.MatchString(raw):
		p.Kind = PatternParam
		re, err := regexp.Compile("^" + patternToRegex(raw) + "$")
		if err != nil {
			return nil, fmt.Errorf("invalid parameterized pattern %q: %w", raw, err)
		}
		p.re = re
	default:
		p.Kind = PatternLiteral
	}

	return p, nil
}

// Match reports whether the pattern matches path, returning the priority
// and match length used for ranking.
func (p *CompiledPattern) Match(path string) (priority int, length int, ok bool) {
	switch p.Kind {
	case PatternLiteral:
		if path == p.Raw {
			if p.Raw == AvatarUploadPath {
				return PriorityAvatarOverride, len(p.Raw), true
			}
			return PriorityExact, len(p.Raw), true
		}
		if strings.HasPrefix(path, p.Raw) {
			return PriorityPrefix, len(p.Raw), true
		}
	case PatternParam:
		if p.re.MatchString(path) {
			return PriorityParam, len(p.Raw), true
		}
	case PatternWildcard:
		if p.re.MatchString(path) {
			return PriorityWildcard, len(p.Raw) - 1, true
		}
	}
	return 0, 0, false
}

// ParamNames returns the '{name}' tokens of a template in order of appearance.
func ParamNames(template string) []string {
	matches := paramToken.FindAllStringSubmatch(template, -1)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}

// patternToRegex quotes the literal parts of a pattern, turning '*' into
// '.*' and '{name}' into a single path segment.
func patternToRegex(raw string) string {
	var b strings.Builder
	rest := raw
	for rest != "" {
		loc := paramToken.FindStringIndex(rest)
		literal := rest
		if loc != nil {
			literal = rest[:loc[0]]
		}

		parts := strings.Split(literal, "*")
		for i, part := range parts {
			if i > 0 {
				b.WriteString(".*")
			}
			b.WriteString(regexp.QuoteMeta(part))
		}

		if loc == nil {
			break
		}
		b.WriteString("[^/]+")
		rest = rest[loc[1]:]
	}
	return b.String()
}
