package question

import "net/url"

// Comment is the text a question looks at, with where it came from.
type Comment struct {
	Number int64  // Position in its thread
	Author string // Login of the writer, empty when unknown
	Body   string
}

// Question recognizes a command in a comment. Implementations must be
// total: malformed text yields Absent or Later, never a panic. home
// locates the thread the comment belongs to and may be nil.
type Question interface {
	Understand(c Comment, home *url.URL) Request
}

// Func adapts a function to a Question.
type Func func(c Comment, home *url.URL) Request

func (f Func) Understand(c Comment, home *url.URL) Request { return f(c, home) }

// Empty never recognizes anything.
var Empty Question = Func(func(Comment, *url.URL) Request { return Absent })

// Command recognizes every comment as a command of type typ.
// It is meant to sit behind a filter such as IfContains.
func Command(typ string) Question {
	return Func(func(Comment, *url.URL) Request { return Resolved(typ) })
}

// Fixed always answers req.
func Fixed(req Request) Question {
	return Func(func(Comment, *url.URL) Request { return req })
}
