// Package validation provides input validation utilities
package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

var reservedUsernames = map[string]struct{}{
	"admin":  {},
	"api":    {},
	"auth":   {},
	"me":     {},
	"ws":     {},
	"health": {},
	"user":   {},
}

// reservedProjectNames are second path segments under /api/projects/:id.
var reservedProjectNames = map[string]struct{}{
	"comments": {},
	"liked":    {},
}

// ValidateUsername checks if a username meets requirements
func ValidateUsername(username string) error {
	if len(username) < 3 {
		return fmt.Errorf("username must be at least 3 characters long")
	}
	if len(username) > 30 {
		return fmt.Errorf("username must not exceed 30 characters")
	}
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("username can only contain letters, numbers, underscores, and hyphens")
	}
	if strings.ContainsAny(username[:1], "_-") || strings.ContainsAny(username[len(username)-1:], "_-") {
		return fmt.Errorf("username cannot start or end with underscore or hyphen")
	}
	if _, ok := reservedUsernames[strings.ToLower(username)]; ok {
		return fmt.Errorf("username is reserved")
	}
	return nil
}

// ValidatePassword requires 8-128 characters with at least one letter and one digit.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}
	// bcrypt ignores input past 72 bytes; 128 keeps requests bounded.
	if len(password) > 128 {
		return fmt.Errorf("password must not exceed 128 characters")
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return fmt.Errorf("password must contain at least one letter and one digit")
	}
	return nil
}

// ValidateProjectName checks a project name is present and short enough.
func ValidateProjectName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("project name is required")
	}
	if utf8.RuneCountInString(name) > 60 {
		return fmt.Errorf("project name must not exceed 60 characters")
	}
	if strings.Contains(name, "/") {
		return fmt.Errorf("project name cannot contain '/'")
	}
	if _, ok := reservedProjectNames[strings.ToLower(name)]; ok {
		return fmt.Errorf("project name is reserved")
	}
	return nil
}

// ValidateLink accepts an empty link or an absolute http(s) URL.
func ValidateLink(link string) error {
	if link == "" {
		return nil
	}
	u, err := url.Parse(link)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("link must be an http or https URL")
	}
	return nil
}
