package question

import (
	"net/url"
	"regexp"
	"slices"
	"strings"
)

// params matches key=`value`, key is `value` and key="value".
var params = regexp.MustCompile("\\b([a-z_][a-z0-9_]*)(?:\\s*=\\s*|\\s+is\\s+)(?:`([^`]+)`|\"([^\"]+)\")")

func scanArgs(text string) []Arg {
	var args []Arg
	for _, m := range params.FindAllStringSubmatch(text, -1) {
		value := m[2]
		if value == "" {
			value = m[3]
		}
		args = append(args, Arg{Name: m[1], Value: value})
	}
	return args
}

type parametrized struct {
	origin Question
	scan   func(string) []Arg
}

// Parametrized appends the parameters mentioned in the comment to the
// request of origin. Absent and deferred requests pass through untouched
// and the comment is not scanned.
func Parametrized(origin Question) Question {
	return parametrized{origin: origin, scan: scanArgs}
}

func (p parametrized) Understand(c Comment, home *url.URL) Request {
	req := p.origin.Understand(c, home)
	if req.Kind() != KindResolved {
		return req
	}
	return req.With(p.scan(c.Body)...)
}

// IfContains asks origin only when the comment holds word, ignoring case.
func IfContains(word string, origin Question) Question {
	re := regexp.MustCompile(`(?i)(?:^|[^\p{L}\p{N}_])` + regexp.QuoteMeta(word) + `(?:$|[^\p{L}\p{N}_])`)
	return Func(func(c Comment, home *url.URL) Request {
		if !re.MatchString(c.Body) {
			return Absent
		}
		return origin.Understand(c, home)
	})
}

// ReferredTo asks origin only when the comment mentions @login. The
// mention is removed from the text origin sees.
func ReferredTo(login string, origin Question) Question {
	re := regexp.MustCompile(`(?i)(@` + regexp.QuoteMeta(login) + `)(?:$|[^A-Za-z0-9-])`)
	return Func(func(c Comment, home *url.URL) Request {
		loc := re.FindStringSubmatchIndex(c.Body)
		if loc == nil {
			return Absent
		}
		// Case folding may match a mention longer than login.
		start, end := loc[2], loc[3]
		c.Body = strings.TrimSpace(c.Body[:start] + c.Body[end:])
		return origin.Understand(c, home)
	})
}

// FirstOf returns the first answer that is not Absent.
func FirstOf(questions ...Question) Question {
	questions = slices.Clone(questions)
	return Func(func(c Comment, home *url.URL) Request {
		for _, q := range questions {
			if req := q.Understand(c, home); req.Kind() != KindAbsent {
				return req
			}
		}
		return Absent
	})
}

// Since asks origin only about comments numbered after number, so a
// comment already acted on is not seen twice.
func Since(number int64, origin Question) Question {
	return Func(func(c Comment, home *url.URL) Request {
		if c.Number <= number {
			return Absent
		}
		return origin.Understand(c, home)
	})
}

// Authorized asks origin only about comments written by one of authors.
// A comment whose author is not known yet is deferred.
func Authorized(authors []string, origin Question) Question {
	allowed := make(map[string]bool, len(authors))
	for _, a := range authors {
		allowed[strings.ToLower(a)] = true
	}
	return Func(func(c Comment, home *url.URL) Request {
		if c.Author == "" {
			return Later
		}
		if !allowed[strings.ToLower(c.Author)] {
			return Absent
		}
		return origin.Understand(c, home)
	})
}

// WithAuthor records the author of the comment as the "author" argument
// of resolved requests.
func WithAuthor(origin Question) Question {
	return Func(func(c Comment, home *url.URL) Request {
		req := origin.Understand(c, home)
		if req.Kind() != KindResolved || c.Author == "" {
			return req
		}
		return req.With(Arg{Name: "author", Value: c.Author})
	})
}
