package agent_test

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/talks/pkg/adapters/memory"
	"github.com/aretw0/talks/pkg/agent"
	"github.com/aretw0/talks/pkg/ports"
	"github.com/aretw0/talks/pkg/question"
	"github.com/aretw0/talks/pkg/talk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*talk.Stored, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	tk, err := talk.NewRegistry(store).Create(context.Background(), 1, "test")
	require.NoError(t, err)
	return tk, store
}

func deployQuestion() question.Question {
	return question.Parametrized(question.ReferredTo("bot", question.IfContains("deploy", question.Command("deploy"))))
}

func TestUnderstands_RecordsRequest(t *testing.T) {
	ctx := context.Background()
	tk, _ := setup(t)
	home, _ := url.Parse("https://github.com/acme/app/issues/1")

	req, err := agent.NewUnderstands(deployQuestion()).
		Execute(ctx, tk, question.Comment{Number: 7, Body: "@bot deploy tag=`1.9`"}, home)
	require.NoError(t, err)
	assert.Equal(t, "deploy", req.Type())

	doc, err := tk.Read(ctx)
	require.NoError(t, err)
	id, _ := doc.Attr("/talk/request", "id")
	assert.Equal(t, "7", id)
	typ, _ := doc.Text("/talk/request/type")
	assert.Equal(t, "deploy", typ)
	name, _ := doc.Attr("/talk/request/args/arg", "name")
	assert.Equal(t, "tag", name)
	href, _ := doc.Text("/talk/wire/href")
	assert.Equal(t, home.String(), href)
}

func TestUnderstands_IgnoresNonCommands(t *testing.T) {
	ctx := context.Background()
	tk, store := setup(t)
	before, err := store.Load(ctx, "test")
	require.NoError(t, err)

	u := agent.NewUnderstands(deployQuestion())
	req, err := u.Execute(ctx, tk, question.Comment{Number: 2, Body: "thanks!"}, nil)
	require.NoError(t, err)
	assert.Equal(t, question.Absent, req)

	req, err = agent.NewUnderstands(question.Fixed(question.Later)).
		Execute(ctx, tk, question.Comment{Number: 3}, nil)
	require.NoError(t, err)
	assert.Equal(t, question.Later, req)

	after, err := store.Load(ctx, "test")
	require.NoError(t, err)
	assert.Equal(t, before.Data, after.Data)
}

func TestUnderstands_DefersWhilePending(t *testing.T) {
	ctx := context.Background()
	tk, store := setup(t)
	u := agent.NewUnderstands(question.Command("deploy"))

	_, err := u.Execute(ctx, tk, question.Comment{Number: 1}, nil)
	require.NoError(t, err)
	before, err := store.Load(ctx, "test")
	require.NoError(t, err)

	req, err := u.Execute(ctx, tk, question.Comment{Number: 2}, nil)
	require.NoError(t, err)
	assert.Equal(t, question.Later, req)

	after, err := store.Load(ctx, "test")
	require.NoError(t, err)
	assert.Equal(t, before.Data, after.Data)
}

func TestUnderstands_MissingTalk(t *testing.T) {
	_, err := agent.NewUnderstands(question.Command("x")).
		Execute(context.Background(), talk.New(memory.NewStore(), "ghost"), question.Comment{Number: 1}, nil)
	assert.Error(t, err)
}

func TestUnderstands_SanitizesComments(t *testing.T) {
	ctx := context.Background()
	tk, _ := setup(t)
	u := agent.NewUnderstands(deployQuestion(), agent.WithMaxCommentSize(64))

	req, err := u.Execute(ctx, tk, question.Comment{Number: 1, Body: "@bot deploy " + strings.Repeat("x", 64)}, nil)
	require.NoError(t, err)
	assert.Equal(t, question.Absent, req, "oversized comments are ignored")

	req, err = u.Execute(ctx, tk, question.Comment{Number: 2, Body: "@bot deploy tag=`1.\x00\x1b9`"}, nil)
	require.NoError(t, err)
	tag, _ := req.Args().Get("tag")
	assert.Equal(t, "1.9", tag)

	doc, err := tk.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1.9", doc.Find("/talk/request/args/arg").Text())
}

// slowStore widens the gap between reading a talk and writing it back.
type slowStore struct {
	*memory.Store
}

func (s slowStore) Load(ctx context.Context, name string) (ports.Record, error) {
	time.Sleep(5 * time.Millisecond)
	return s.Store.Load(ctx, name)
}

func TestUnderstands_ConcurrentCommentsDefer(t *testing.T) {
	ctx := context.Background()
	reg := talk.NewRegistry(slowStore{memory.NewStore()})
	tk, err := reg.Create(ctx, 1, "t")
	require.NoError(t, err)
	u := agent.NewUnderstands(question.IfContains("deploy", question.Command("deploy")))

	var (
		wg   sync.WaitGroup
		reqs [2]question.Request
		errs [2]error
	)
	for i := range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reqs[i], errs[i] = u.Execute(ctx, tk, question.Comment{Number: int64(i + 1), Body: "deploy"}, nil)
		}()
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	kinds := []question.Kind{reqs[0].Kind(), reqs[1].Kind()}
	assert.ElementsMatch(t, []question.Kind{question.KindResolved, question.KindDeferred}, kinds)

	doc, err := tk.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Count("/talk/request"))
	winner := 1
	if reqs[1].Kind() == question.KindResolved {
		winner = 2
	}
	id, _ := doc.Attr("/talk/request", "id")
	assert.Equal(t, strconv.Itoa(winner), id)
}
