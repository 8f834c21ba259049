package extract

import (
	"fmt"
	"regexp"
	"strings"

	"akiclient/lib/htmlutil"
	"akiclient/lib/textutil"

	"github.com/PuerkitoBio/goquery"
)

// Requirement decides what a missing field does to the whole extraction.
type Requirement int

const (
	// Required fields fail the extraction with a *MissingFieldError.
	Required Requirement = iota
	// BestEffort fields are skipped silently, the caller keeps whatever it
	// had before.
	BestEffort
)

// Source is a raw body that rules read from, markup is parsed at most
// once and only if a rule needs it.
type Source struct {
	raw    string
	doc    *goquery.Document
	docErr error
	parsed bool
}

func NewSource(body string) *Source {
	return &Source{raw: body}
}

func (s *Source) Raw() string {
	return s.raw
}

func (s *Source) Document() (*goquery.Document, error) {
	if !s.parsed {
		s.doc, s.docErr = htmlutil.NewDocument(s.raw)
		s.parsed = true
	}
	return s.doc, s.docErr
}

// Locator finds the raw value of a field, ok is false when it is absent.
type Locator func(src *Source) (value string, ok bool)

// Rule is a named field with how to find it, whether it is required and
// what to do with the raw match.
type Rule struct {
	Field       string
	Locate      Locator
	Requirement Requirement
	Post        []func(string) string
}

func (r Rule) apply(src *Source) (string, bool) {
	value, ok := r.Locate(src)
	if !ok {
		return "", false
	}
	for _, step := range r.Post {
		value = step(value)
	}
	if value == "" {
		return "", false
	}
	return value, true
}

// ScriptValue matches a pattern against the raw text (usually inline
// script) and returns its first capture group.
func ScriptValue(pattern string) Locator {
	re := regexp.MustCompile(pattern)
	return func(src *Source) (string, bool) {
		groups := re.FindStringSubmatch(src.Raw())
		if len(groups) < 2 {
			return "", false
		}
		return groups[1], true
	}
}

// MarkupText returns the text of the first element matching selector.
func MarkupText(selector string) Locator {
	return func(src *Source) (string, bool) {
		doc, err := src.Document()
		if err != nil {
			return "", false
		}
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			return "", false
		}
		return sel.Text(), true
	}
}

// TextAfter returns the loose text directly following the element matching
// selector.
func TextAfter(selector string) Locator {
	return func(src *Source) (string, bool) {
		doc, err := src.Document()
		if err != nil {
			return "", false
		}
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			return "", false
		}
		return htmlutil.TrailingText(sel), true
	}
}

// post-process steps
var (
	Unescape = htmlutil.CleanText
	Collapse = textutil.CollapseWhitespace
)

// MissingFieldError is a required field that could not be located.
type MissingFieldError struct {
	Kind  string
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s response does not contain expected data: %s", e.Kind, e.Field)
}

// RuleSet is every rule that applies to one kind of response.
type RuleSet struct {
	Kind  string
	Rules []Rule
}

type Result struct {
	Fields map[string]string
	// Skipped lists best-effort fields that were not found.
	Skipped []string
}

func (r Result) Complete() bool {
	return len(r.Skipped) == 0
}

// Apply runs every rule against body. The first missing required field
// fails the whole extraction, missing best-effort fields are collected in
// Result.Skipped.
func (rs RuleSet) Apply(body string) (Result, error) {
	src := NewSource(body)
	result := Result{Fields: make(map[string]string, len(rs.Rules))}

	for _, rule := range rs.Rules {
		value, ok := rule.apply(src)
		if ok {
			result.Fields[rule.Field] = value
			continue
		}
		if rule.Requirement == Required {
			return Result{}, &MissingFieldError{Kind: rs.Kind, Field: rule.Field}
		}
		result.Skipped = append(result.Skipped, rule.Field)
	}
	return result, nil
}

func (rs RuleSet) String() string {
	fields := make([]string, len(rs.Rules))
	for i, r := range rs.Rules {
		fields[i] = r.Field
	}
	return fmt.Sprintf("%s(%s)", rs.Kind, strings.Join(fields, ", "))
}
