// Package classify decides what kind of content a message body carries and
// which media record, if any, it refers to.
package classify

import (
	"regexp"
	"strings"

	"github.com/MikeSquared-Agency/chatarchive/internal/chat"
	"github.com/MikeSquared-Agency/chatarchive/internal/media"
)

// Result is the outcome of classifying one body. MediaName is the file name
// the body mentions; it still has to be linked against the archive's media.
type Result struct {
	Kind      chat.Kind
	MediaName string
	Rule      string
}

// step is one stage of the cascade. Stages run top to bottom and the first
// one that returns ok decides the result.
type step struct {
	name string
	eval func(body string) (Result, bool)
}

var cascade = []step{
	{"system", func(body string) (Result, bool) {
		return Result{Kind: chat.KindSystem}, anyMatch(systemIndicators, body)
	}},
	{"deleted", func(body string) (Result, bool) {
		return Result{Kind: chat.KindDeleted}, anyMatch(deletedPatterns, body)
	}},
	{"omitted", func(body string) (Result, bool) {
		for _, r := range omissionRules {
			if r.re.MatchString(body) {
				return Result{Kind: r.kind}, true
			}
		}
		return Result{}, false
	}},
	{"attached", func(body string) (Result, bool) {
		for _, r := range attachmentRules {
			if m := r.re.FindStringSubmatch(body); m != nil {
				return Result{Kind: r.kind, MediaName: strings.TrimSpace(m[1])}, true
			}
		}
		return Result{}, false
	}},
	{"filename", func(body string) (Result, bool) {
		m := bareFileName.FindStringSubmatch(body)
		if m == nil {
			return Result{}, false
		}
		for _, f := range fileFamilies {
			if f.re.MatchString(m[1]) {
				return Result{Kind: f.kind, MediaName: m[1]}, true
			}
		}
		return Result{}, false
	}},
}

// Classify runs the cascade over a message body. Bodies that match nothing
// are text.
func Classify(body string) Result {
	for _, s := range cascade {
		if res, ok := s.eval(body); ok {
			res.Rule = s.name
			return res
		}
	}
	return Result{Kind: chat.KindText, Rule: "text"}
}

// Link finds the media record a mentioned file name refers to. names must be
// in a stable order; the first acceptable name wins. An exact name is
// preferred, otherwise a name is accepted when either contains the other,
// ignoring case and any directory prefix on the stored name.
func Link(mentioned string, names []string) (string, bool) {
	if mentioned == "" {
		return "", false
	}
	want := strings.ToLower(mentioned)

	for _, name := range names {
		if strings.EqualFold(name, mentioned) {
			return name, true
		}
	}
	for _, name := range names {
		have := strings.ToLower(media.BaseName(name))
		if have == "" {
			continue
		}
		if strings.Contains(have, want) || strings.Contains(want, have) {
			return name, true
		}
	}
	return "", false
}

func anyMatch(patterns []*regexp.Regexp, s string) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}
