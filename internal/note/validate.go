package note

import (
	"errors"
	"sort"
	"strings"
	"unicode/utf8"
)

// Field limits for new notes.
const (
	TitleMinLength   = 3
	TitleMaxLength   = 50
	ContentMaxLength = 500
)

// Validation messages shown next to the offending field.
const (
	MsgTitleRequired  = "Title is required"
	MsgTitleTooShort  = "Title must be at least 3 characters"
	MsgTitleTooLong   = "Title is too long"
	MsgContentTooLong = "Content is too long"
	MsgTagRequired    = "Tag is required"
	MsgTagInvalid     = "Invalid category"
)

// Field names used as keys in ValidationErrors.
const (
	FieldTitle   = "title"
	FieldContent = "content"
	FieldTag     = "tag"
)

// ValidationErrors maps a field name to its first failing rule.
type ValidationErrors map[string]string

func (e ValidationErrors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+e[f])
	}
	return strings.Join(parts, "; ")
}

// ValidateTitle checks the title rules. Its signature matches huh's
// field validators so the form can use it directly.
func ValidateTitle(title string) error {
	n := utf8.RuneCountInString(title)
	switch {
	case n == 0:
		return errors.New(MsgTitleRequired)
	case n < TitleMinLength:
		return errors.New(MsgTitleTooShort)
	case n > TitleMaxLength:
		return errors.New(MsgTitleTooLong)
	}
	return nil
}

// ValidateContent checks the optional content length.
func ValidateContent(content string) error {
	if utf8.RuneCountInString(content) > ContentMaxLength {
		return errors.New(MsgContentTooLong)
	}
	return nil
}

// ValidateTag checks that tag names one of the fixed categories.
func ValidateTag(tag string) error {
	if tag == "" {
		return errors.New(MsgTagRequired)
	}
	if !Tag(tag).Valid() {
		return errors.New(MsgTagInvalid)
	}
	return nil
}

// Validate runs every field rule and returns ValidationErrors when any fail.
func Validate(v Values) error {
	errs := ValidationErrors{}
	if err := ValidateTitle(v.Title); err != nil {
		errs[FieldTitle] = err.Error()
	}
	if err := ValidateContent(v.Content); err != nil {
		errs[FieldContent] = err.Error()
	}
	if err := ValidateTag(string(v.Tag)); err != nil {
		errs[FieldTag] = err.Error()
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}
