package core

import (
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
)

// DeprecatedPath maps one legacy logical path to its canonical replacement.
// A '*' in From captures the remainder of the path, which replaces the '*'
// in To. Example: "/api/exam/*" -> "/api/exams/*".
type DeprecatedPath struct {
	From string `yaml:"from" json:"from"`
	To   string `yaml:"to" json:"to"`
}

type templatedRewrite struct {
	entry DeprecatedPath
	re    *regexp.Regexp
}

// PathRewriter rewrites legacy paths to canonical ones before matching.
type PathRewriter struct {
	exact     map[string]string
	templated []templatedRewrite
}

// NewPathRewriter compiles the deprecated-path table. Templated entries are
// tried in the given order. The table is rejected if rewriting a canonical
// path would change it again, since Rewrite must be idempotent.
func NewPathRewriter(entries []DeprecatedPath) (*PathRewriter, error) {
	r := &PathRewriter{exact: make(map[string]string)}

	for _, e := range entries {
		if e.From == "" || e.To == "" {
			return nil, errors.New("deprecated path entry needs both from and to")
		}
		if !strings.Contains(e.From, "*") {
			if _, exists := r.exact[e.From]; exists {
				return nil, fmt.Errorf("deprecated path %q declared more than once", e.From)
			}
			r.exact[e.From] = e.To
			continue
		}

		parts := strings.Split(e.From, "*")
		for i := range parts {
			parts[i] = regexp.QuoteMeta(parts[i])
		}
		re, err := regexp.Compile("^" + strings.Join(parts, "(.*)") + "$")
		if err != nil {
			return nil, fmt.Errorf("invalid deprecated path template %q: %w", e.From, err)
		}
		r.templated = append(r.templated, templatedRewrite{entry: e, re: re})
	}

	for _, e := range entries {
		if err := r.checkCanonical(e.To); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// sampleSegments stand in for '*' when checking what a templated target
// can produce.
var sampleSegments = []string{"x", "x/y"}

// checkCanonical rejects a target that a later Rewrite would change again.
func (r *PathRewriter) checkCanonical(to string) error {
	if !strings.Contains(to, "*") {
		if _, rewritten := r.lookup(to); rewritten {
			return fmt.Errorf("canonical path %q is itself deprecated", to)
		}
		return nil
	}

	for _, sample := range sampleSegments {
		produced := strings.ReplaceAll(to, "*", sample)
		if _, rewritten := r.lookup(produced); rewritten {
			return fmt.Errorf("canonical path template %q yields deprecated path %q", to, produced)
		}
	}

	// A template "P*" deprecates everything under P, whatever '*' becomes.
	prefix := to[:strings.Index(to, "*")]
	for _, t := range r.templated {
		from := t.entry.From
		if strings.Index(from, "*") != len(from)-1 {
			continue
		}
		if strings.HasPrefix(prefix, from[:len(from)-1]) {
			return fmt.Errorf("canonical path template %q falls under deprecated template %q", to, from)
		}
	}
	return nil
}

// Rewrite returns the canonical form of path, or path unchanged when it is
// not deprecated.
func (r *PathRewriter) Rewrite(path string) string {
	canonical, rewritten := r.lookup(path)
	if rewritten {
		log.Printf("Warning: deprecated API path %s, use %s instead", path, canonical)
	}
	return canonical
}

// IsDeprecated reports whether path would be rewritten.
func (r *PathRewriter) IsDeprecated(path string) bool {
	_, rewritten := r.lookup(path)
	return rewritten
}

func (r *PathRewriter) lookup(path string) (string, bool) {
	if to, ok := r.exact[path]; ok {
		return to, true
	}

	for _, t := range r.templated {
		m := t.re.FindStringSubmatch(path)
		if m == nil {
			continue
		}
		to := t.entry.To
		for _, captured := range m[1:] {
			if !strings.Contains(to, "*") {
				break
			}
			to = strings.Replace(to, "*", captured, 1)
		}
		return to, true
	}

	return path, false
}
