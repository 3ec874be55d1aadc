package question

import (
	"net/url"
	"testing"

	"github.com/aretw0/talks/pkg/directive"
	"github.com/aretw0/talks/pkg/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func home(t *testing.T) *url.URL {
	t.Helper()
	u, err := url.Parse("https://github.com/acme/app/issues/1")
	require.NoError(t, err)
	return u
}

func TestParametrized_FetchesParams(t *testing.T) {
	origin := Fixed(Resolved("xxx", Arg{Name: "hello", Value: "all"}))
	c := Comment{Number: 1, Body: "hey, tag=`1.9` and server is `p5`, title is `Version 1.9.0`"}

	req := Parametrized(origin).Understand(c, home(t))

	assert.Equal(t, KindResolved, req.Kind())
	assert.Equal(t, "xxx", req.Type())
	assert.Equal(t, Args{
		{Name: "hello", Value: "all"},
		{Name: "tag", Value: "1.9"},
		{Name: "server", Value: "p5"},
		{Name: "title", Value: "Version 1.9.0"},
	}, req.Args())

	doc, err := directive.Apply(tree.Empty(), directive.New().Add("request").Append(req.Dirs()))
	require.NoError(t, err)
	typ, _ := doc.Text("/request/type")
	assert.Equal(t, "xxx", typ)
	assert.Equal(t, 4, doc.Count("/request/args/arg"))
	title := doc.Find("/request/args/arg[@name='title']")
	require.NotNil(t, title)
	assert.Equal(t, "Version 1.9.0", title.Text())
}

func TestParametrized_DoubleQuotes(t *testing.T) {
	req := Parametrized(Command("deploy")).Understand(Comment{Body: `deploy with env="prod"`}, nil)
	value, ok := req.Args().Get("env")
	assert.True(t, ok)
	assert.Equal(t, "prod", value)
}

func TestParametrized_IgnoresEmptyParams(t *testing.T) {
	req := Parametrized(Empty).Understand(Comment{Body: "hey"}, home(t))
	assert.True(t, req.Dirs().Empty())
}

func TestParametrized_IgnoresEmptyReq(t *testing.T) {
	req := Parametrized(Empty).Understand(Comment{Body: "hey you, tag=`1`"}, home(t))
	assert.Equal(t, Absent, req)
}

func TestParametrized_IgnoresLaterReq(t *testing.T) {
	req := Parametrized(Fixed(Later)).Understand(Comment{Body: "tag=`1`"}, home(t))
	assert.Equal(t, Later, req)
}

func TestParametrized_ShortCircuitSkipsScan(t *testing.T) {
	scans := 0
	counting := func(text string) []Arg {
		scans++
		return scanArgs(text)
	}
	c := Comment{Body: "tag=`1.9`"}

	for _, origin := range []Question{Empty, Fixed(Later)} {
		p := parametrized{origin: origin, scan: counting}
		p.Understand(c, nil)
	}
	assert.Zero(t, scans)

	parametrized{origin: Command("x"), scan: counting}.Understand(c, nil)
	assert.Equal(t, 1, scans)
}

func TestParametrized_NoMentions(t *testing.T) {
	req := Parametrized(Command("merge")).Understand(Comment{Body: "please merge, this is fine"}, nil)
	assert.Equal(t, Resolved("merge"), req)
}

func TestIfContains(t *testing.T) {
	q := IfContains("deploy", Command("deploy"))

	assert.Equal(t, KindResolved, q.Understand(Comment{Body: "please Deploy it"}, nil).Kind())
	assert.Equal(t, KindResolved, q.Understand(Comment{Body: "deploy"}, nil).Kind())
	assert.Equal(t, Absent, q.Understand(Comment{Body: "redeployment"}, nil))
	assert.Equal(t, Absent, q.Understand(Comment{Body: ""}, nil))
}

func TestReferredTo(t *testing.T) {
	var seen string
	origin := Func(func(c Comment, _ *url.URL) Request {
		seen = c.Body
		return Resolved("hello")
	})
	q := ReferredTo("bot", origin)

	assert.Equal(t, Absent, q.Understand(Comment{Body: "hello everyone"}, nil))
	assert.Equal(t, Absent, q.Understand(Comment{Body: "@botany hello"}, nil))

	req := q.Understand(Comment{Body: "@Bot hello"}, nil)
	assert.Equal(t, "hello", req.Type())
	assert.Equal(t, "hello", seen)
}

func TestReferredTo_FoldedMention(t *testing.T) {
	var seen string
	q := ReferredTo("bots", Func(func(c Comment, _ *url.URL) Request {
		seen = c.Body
		return Resolved("hello")
	}))

	// U+017F folds to "s" but takes two bytes.
	req := q.Understand(Comment{Body: "@BOT\u017f deploy"}, nil)
	assert.Equal(t, KindResolved, req.Kind())
	assert.Equal(t, "deploy", seen)

	req = q.Understand(Comment{Body: "please @bot\u017f, deploy"}, nil)
	assert.Equal(t, KindResolved, req.Kind())
	assert.Equal(t, "please , deploy", seen)
}

func TestFirstOf(t *testing.T) {
	q := FirstOf(Empty, Fixed(Later), Command("never"))
	assert.Equal(t, Later, q.Understand(Comment{}, nil))

	q = FirstOf(IfContains("merge", Command("merge")), IfContains("deploy", Command("deploy")))
	assert.Equal(t, "deploy", q.Understand(Comment{Body: "deploy"}, nil).Type())
	assert.Equal(t, Absent, q.Understand(Comment{Body: "hi"}, nil))

	assert.Equal(t, Absent, FirstOf().Understand(Comment{}, nil))
}

func TestSince(t *testing.T) {
	q := Since(5, Command("x"))
	assert.Equal(t, Absent, q.Understand(Comment{Number: 5}, nil))
	assert.Equal(t, KindResolved, q.Understand(Comment{Number: 6}, nil).Kind())
}

func TestAuthorized(t *testing.T) {
	q := Authorized([]string{"Alice"}, Command("x"))
	assert.Equal(t, Later, q.Understand(Comment{}, nil))
	assert.Equal(t, Absent, q.Understand(Comment{Author: "mallory"}, nil))
	assert.Equal(t, KindResolved, q.Understand(Comment{Author: "alice"}, nil).Kind())
}

func TestWithAuthor(t *testing.T) {
	q := WithAuthor(Command("x"))
	author, ok := q.Understand(Comment{Author: "alice"}, nil).Args().Get("author")
	assert.True(t, ok)
	assert.Equal(t, "alice", author)

	assert.Equal(t, Later, WithAuthor(Fixed(Later)).Understand(Comment{Author: "alice"}, nil))
}

func TestRecognizersAreTotal(t *testing.T) {
	q := Parametrized(ReferredTo("bot", IfContains("deploy", Command("deploy"))))
	for _, body := range []string{"", "@", "@bot", "`", "tag=`", "tag is ``", "\x00\xff", "@bot deploy tag=\"\""} {
		assert.NotPanics(t, func() { q.Understand(Comment{Body: body}, nil) }, body)
	}
}
