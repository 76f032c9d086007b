package core

import (
	"strings"
)

// Names of the exam platform's backend services.
const (
	ServiceAuth             = "auth-service"
	ServiceUserManagement   = "user-management-service"
	ServiceExamManagement   = "exam-management-service"
	ServiceSubmission       = "submission-service"
	ServiceGrading          = "grading-service"
	ServiceScoreStatistics  = "score-statistics-service"
	ServiceRegionManagement = "region-management-service"
	ServiceFileStorage      = "file-storage-service"
	ServiceSystemConfig     = "system-config-service"
)

// Role path prefixes.
const (
	RoleStudent = "/api/student/"
	RoleCoach   = "/api/coach/"
	RoleGrader  = "/api/grader/"
	RoleAdmin   = "/api/admin/"
)

// FallbackRule guesses a service from literal substrings of a path.
// A rule with RolePrefixes only applies to paths under one of them; a rule
// without Keywords matches any such path.
type FallbackRule struct {
	Service      string
	Keywords     []string
	RolePrefixes []string
}

// Applies reports whether the rule matches path.
func (r FallbackRule) Applies(path string) bool {
	if len(r.RolePrefixes) > 0 && !hasAnyPrefix(path, r.RolePrefixes) {
		return false
	}
	if len(r.Keywords) == 0 {
		return len(r.RolePrefixes) > 0
	}
	for _, kw := range r.Keywords {
		if strings.Contains(path, kw) {
			return true
		}
	}
	return false
}

// FallbackTable is an ordered list of rules; the first applicable rule
// naming a known service wins.
type FallbackTable []FallbackRule

// Guess returns the first applicable rule's service that known accepts.
func (t FallbackTable) Guess(path string, known func(name string) bool) (string, bool) {
	for _, rule := range t {
		if !rule.Applies(path) {
			continue
		}
		if known != nil && !known(rule.Service) {
			continue
		}
		return rule.Service, true
	}
	return "", false
}

// DefaultFallbackTable is the precedence used when no registered pattern
// matches: authentication first, then submission > exam management >
// grading > score statistics > region management > file storage > system
// config > user management, then one catch-all per role prefix.
func DefaultFallbackTable() FallbackTable {
	return FallbackTable{
		{Service: ServiceAuth, Keywords: []string{"/auth/"}},
		{Service: ServiceSubmission, Keywords: []string{"/submit", "/submissions"}},
		{Service: ServiceExamManagement, Keywords: []string{"/exams", "/exam/"}},
		{Service: ServiceGrading, Keywords: []string{"/grading", "/marking"}},
		{Service: ServiceGrading, Keywords: []string{"/tasks", "/reviews"}, RolePrefixes: []string{RoleGrader}},
		{Service: ServiceScoreStatistics, Keywords: []string{"/scores", "/statistics", "/rankings"}},
		{Service: ServiceRegionManagement, Keywords: []string{"/regions"}},
		{Service: ServiceFileStorage, Keywords: []string{"/upload", "/files"}},
		{Service: ServiceSystemConfig, Keywords: []string{"/config", "/settings"}, RolePrefixes: []string{RoleAdmin}},
		{Service: ServiceUserManagement, Keywords: []string{"/users", "/profile", "/password"}},
		{Service: ServiceExamManagement, RolePrefixes: []string{RoleStudent, RoleCoach}},
		{Service: ServiceGrading, RolePrefixes: []string{RoleGrader}},
		{Service: ServiceUserManagement, RolePrefixes: []string{RoleAdmin}},
	}
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
