// Package agent acts on talks in response to comments.
package agent

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/aretw0/talks/internal/logging"
	"github.com/aretw0/talks/pkg/directive"
	"github.com/aretw0/talks/pkg/domain"
	"github.com/aretw0/talks/pkg/question"
	"github.com/aretw0/talks/pkg/talk"
)

// Understands records the request a question finds in a comment.
// A talk holds at most one request; comments arriving while one is
// pending are answered question.Later and must be offered again.
type Understands struct {
	question question.Question
	logger   *slog.Logger
	limit    int
}

// Option configures Understands.
type Option func(*Understands)

// WithLogger configures a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(u *Understands) {
		u.logger = logger
	}
}

// WithMaxCommentSize bounds the comments looked at; larger ones are ignored.
func WithMaxCommentSize(n int) Option {
	return func(u *Understands) {
		u.limit = n
	}
}

// NewUnderstands creates an agent asking q.
func NewUnderstands(q question.Question, opts ...Option) *Understands {
	u := &Understands{question: q, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Execute asks the question about the sanitized comment and, when it
// resolves, writes the request into t in a single modification. It
// returns what was understood. Absent and deferred answers leave t
// untouched, and so do comments that fail sanitizing.
func (u *Understands) Execute(ctx context.Context, t talk.Talk, c question.Comment, home *url.URL) (question.Request, error) {
	body, err := Sanitize(c.Body, u.limit)
	if err != nil {
		u.logger.Warn("Comment ignored", "comment", c.Number, "error", err)
		return question.Absent, nil
	}
	c.Body = body

	req := u.question.Understand(c, home)
	if req.Kind() != question.KindResolved {
		u.logger.Debug("Nothing to do", "comment", c.Number, "kind", req.Kind())
		return req, nil
	}

	doc, err := t.Read(ctx)
	if err != nil {
		return question.Absent, err
	}
	if doc.Exists("/talk/request") {
		u.logger.Info("Request already pending, deferring", "comment", c.Number)
		return question.Later, nil
	}

	dirs := directive.New().
		XPath("/talk").
		Add("request").
		Attr("id", strconv.FormatInt(c.Number, 10)).
		Append(req.Dirs())
	if home != nil {
		dirs = dirs.XPath("/talk").AddIf("wire").AddIf("href").Set(home.String())
	}
	if err := t.Modify(ctx, dirs); err != nil {
		if u.lostRace(ctx, t, err) {
			u.logger.Info("Request recorded meanwhile, deferring", "comment", c.Number)
			return question.Later, nil
		}
		return question.Absent, err
	}

	u.logger.Info("Request recorded", "comment", c.Number, "type", req.Type(), "args", len(req.Args()))
	return req, nil
}

// lostRace reports whether a rejected modification collided with a
// request written by a concurrent Execute between the read and the write.
func (u *Understands) lostRace(ctx context.Context, t talk.Talk, err error) bool {
	var invalid *domain.ValidationError
	var state *domain.StateError
	if !errors.As(err, &invalid) && !errors.As(err, &state) {
		return false
	}
	doc, rerr := t.Read(ctx)
	return rerr == nil && doc.Exists("/talk/request")
}
