package services

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 2000
	MaxItemLength        = 2000
	MinUsernameLength    = 3
	MaxUsernameLength    = 32
	MaxDisplayNameLength = 64
	MaxAPIKeyNameLength  = 100
)

var (
	usernamePattern   = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)
	publicSlugPattern = regexp.MustCompile(`^[a-z0-9-]{3,50}$`)
	scopePattern      = regexp.MustCompile(`^[a-z]+$`)
)

var allowedScopes = map[string]bool{"read": true, "write": true}

// ValidateTitle trims the title and records a field error when it is empty
// or too long. The trimmed value is returned either way.
func ValidateTitle(v *ValidationError, field, title string) string {
	title = strings.TrimSpace(title)
	switch n := utf8.RuneCountInString(title); {
	case n == 0:
		v.Add(field, "Title is required")
	case n > MaxTitleLength:
		v.Add(field, "Title must be at most 200 characters")
	}
	return title
}

// ValidateDescription normalises an optional description; blank becomes nil.
func ValidateDescription(v *ValidationError, field string, description *string) *string {
	if description == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*description)
	if trimmed == "" {
		return nil
	}
	if utf8.RuneCountInString(trimmed) > MaxDescriptionLength {
		v.Add(field, "Description must be at most 2000 characters")
	}
	return &trimmed
}

func ValidateItemContent(v *ValidationError, field, content string) string {
	content = strings.TrimSpace(content)
	switch n := utf8.RuneCountInString(content); {
	case n == 0:
		v.Add(field, "Content is required")
	case n > MaxItemLength:
		v.Add(field, "Content must be at most 2000 characters")
	}
	return content
}

func ValidateUsername(v *ValidationError, field, username string) string {
	username = strings.TrimSpace(username)
	n := utf8.RuneCountInString(username)
	switch {
	case n < MinUsernameLength || n > MaxUsernameLength:
		v.Add(field, "Username must be 3-32 characters")
	case !usernamePattern.MatchString(username):
		v.Add(field, "Username may contain only letters, numbers, underscores, dots and hyphens")
	}
	return username
}

func ValidateDisplayName(v *ValidationError, field string, displayName *string) *string {
	if displayName == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*displayName)
	if trimmed == "" {
		return nil
	}
	if utf8.RuneCountInString(trimmed) > MaxDisplayNameLength {
		v.Add(field, "Display name must be at most 64 characters")
	}
	return &trimmed
}

// ValidatePublicSlug returns nil for an empty slug, meaning "unpublish".
func ValidatePublicSlug(v *ValidationError, field string, slug *string) *string {
	if slug == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*slug)
	if trimmed == "" {
		return nil
	}
	if !publicSlugPattern.MatchString(trimmed) {
		v.Add(field, "Slug must be 3-50 characters, lowercase letters, numbers, and hyphens only")
	}
	return &trimmed
}

func ValidateAPIKeyName(v *ValidationError, field string, name *string) *string {
	if name == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*name)
	if trimmed == "" {
		return nil
	}
	if utf8.RuneCountInString(trimmed) > MaxAPIKeyNameLength {
		v.Add(field, "Name must be at most 100 characters")
	}
	return &trimmed
}

// ValidateScopes checks every scope and returns them de-duplicated in input order.
func ValidateScopes(v *ValidationError, field string, scopes []string) []string {
	if len(scopes) == 0 {
		v.Add(field, "At least one scope must be provided")
		return nil
	}
	seen := make(map[string]bool, len(scopes))
	result := make([]string, 0, len(scopes))
	for _, scope := range scopes {
		scope = strings.TrimSpace(scope)
		if !scopePattern.MatchString(scope) || !allowedScopes[scope] {
			v.Add(field, "Invalid scope: "+scope)
			continue
		}
		if !seen[scope] {
			seen[scope] = true
			result = append(result, scope)
		}
	}
	return result
}

func ValidatePosition(v *ValidationError, field string, position *int) {
	if position != nil && *position < 0 {
		v.Add(field, "Position must not be negative")
	}
}
