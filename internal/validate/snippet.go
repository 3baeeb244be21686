// Package validate contains the pure validation and normalization rules
// for everything a user can submit: snippet payloads, tag names, and
// credentials.
//
// WHY A SEPARATE PACKAGE?
// These rules are side-effect-free — they never touch storage, logging, or
// HTTP. Keeping them in their own package makes them trivially testable and
// reusable from any caller (HTTP handler, import tool, future CLI).
//
// Every function follows the same contract: given a candidate value, return
// the accepted, normalized value, or an apperror.Fields enumerating one
// message per offending field. Validation is idempotent — re-validating an
// accepted, normalized value succeeds and returns it unchanged.
//
// LIMITS COUNT RUNES, NOT BYTES:
// "100 characters" means what a user sees, so we use
// utf8.RuneCountInString. len() would count UTF-8 bytes and reject a
// 40-character Korean title.
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dhkim/snipstash/internal/apperror"
)

const (
	MaxTitleLen       = 100
	MaxDescriptionLen = 500
	MaxCodeLen        = 50000
	MaxLanguageLen    = 50
	MaxTags           = 10
	MaxTagLen         = 30
)

// tagNamePattern matches the characters a tag may contain after
// case-folding: lowercase letters, digits, hyphen, underscore.
// "c-plus-plus" is fine; "c++" is not.
var tagNamePattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

// SnippetInput is a candidate snippet payload as submitted by a user.
// It carries no identifiers — those belong to the service layer.
type SnippetInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Code        string   `json:"code"`
	Language    string   `json:"language"`
	Tags        []string `json:"tags"`
	Favorite    bool     `json:"favorite"`
}

// Snippet checks a candidate payload against the structural constraints and
// returns the normalized copy: title/description/language trimmed, tags
// case-folded and de-duplicated (first occurrence wins), nil tags treated
// as empty. Code is deliberately not trimmed — leading whitespace is
// significant in code.
//
// On failure it returns the zero SnippetInput and an apperror.Fields with
// one message per offending field.
func Snippet(in SnippetInput) (SnippetInput, error) {
	fields := apperror.Fields{}

	out := SnippetInput{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Code:        in.Code,
		Language:    strings.TrimSpace(in.Language),
		Favorite:    in.Favorite,
	}

	if out.Title == "" {
		fields.Set("title", "Title is required")
	} else if utf8.RuneCountInString(out.Title) > MaxTitleLen {
		fields.Set("title", fmt.Sprintf("Title must be %d characters or less", MaxTitleLen))
	}

	if utf8.RuneCountInString(out.Description) > MaxDescriptionLen {
		fields.Set("description", fmt.Sprintf("Description must be %d characters or less", MaxDescriptionLen))
	}

	if out.Code == "" {
		fields.Set("code", "Code is required")
	} else if utf8.RuneCountInString(out.Code) > MaxCodeLen {
		fields.Set("code", fmt.Sprintf("Code must be %d characters or less", MaxCodeLen))
	}

	if out.Language == "" {
		fields.Set("language", "Language is required")
	} else if utf8.RuneCountInString(out.Language) > MaxLanguageLen {
		fields.Set("language", fmt.Sprintf("Language must be %d characters or less", MaxLanguageLen))
	}

	// Normalize tags before the count check: " React " and "react" are the
	// same tag, and ten duplicates of one name is one tag, not eleven.
	out.Tags = make([]string, 0, len(in.Tags))
	seen := make(map[string]struct{}, len(in.Tags))
	for _, raw := range in.Tags {
		name, err := TagName(raw)
		if err != nil {
			fields.Set("tags", fmt.Sprintf("Invalid tag %q: %v", raw, err))
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out.Tags = append(out.Tags, name)
	}
	if len(out.Tags) > MaxTags {
		fields.Set("tags", fmt.Sprintf("Maximum %d tags allowed", MaxTags))
	}

	if err := fields.OrNil(); err != nil {
		return SnippetInput{}, err
	}
	return out, nil
}

// TagName validates a single candidate tag and returns it normalized:
// trimmed and case-folded to lowercase. Rejected when empty, longer than
// MaxTagLen, or containing characters outside letters/digits/hyphen/
// underscore.
func TagName(raw string) (string, error) {
	name := strings.ToLower(strings.TrimSpace(raw))

	if name == "" {
		return "", apperror.ValidationFailed("tag", "Tag cannot be empty")
	}
	if utf8.RuneCountInString(name) > MaxTagLen {
		return "", apperror.ValidationFailed("tag",
			fmt.Sprintf("Tag must be %d characters or less", MaxTagLen))
	}
	if !tagNamePattern.MatchString(name) {
		return "", apperror.ValidationFailed("tag",
			"Tag can only contain letters, numbers, hyphens, and underscores")
	}

	return name, nil
}
