package talk_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/aretw0/talks/pkg/adapters/memory"
	"github.com/aretw0/talks/pkg/directive"
	"github.com/aretw0/talks/pkg/domain"
	"github.com/aretw0/talks/pkg/ports"
	"github.com/aretw0/talks/pkg/talk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStore counts every call that reaches the backend.
type countingStore struct {
	ports.TalkStore
	loads, saves atomic.Int32
}

func (s *countingStore) Load(ctx context.Context, name string) (ports.Record, error) {
	s.loads.Add(1)
	return s.TalkStore.Load(ctx, name)
}

func (s *countingStore) Save(ctx context.Context, name string, data []byte) error {
	s.saves.Add(1)
	return s.TalkStore.Save(ctx, name, data)
}

// brokenStore fails every save.
type brokenStore struct {
	ports.TalkStore
}

func (s *brokenStore) Save(ctx context.Context, name string, data []byte) error {
	return errors.New("disk full")
}

func newTalk(t *testing.T, store ports.TalkStore, opts ...talk.Option) *talk.Stored {
	t.Helper()
	tk, err := talk.NewRegistry(store, opts...).Create(context.Background(), 1, "test")
	require.NoError(t, err)
	return tk
}

func persisted(t *testing.T, store ports.TalkStore, name string) []byte {
	t.Helper()
	rec, err := store.Load(context.Background(), name)
	require.NoError(t, err)
	return rec.Data
}

func TestStored_Identity(t *testing.T) {
	ctx := context.Background()
	tk := newTalk(t, memory.NewStore())

	name, err := tk.Name(ctx)
	require.NoError(t, err)
	assert.Equal(t, "test", name)

	number, err := tk.Number(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), number)

	updated, err := tk.Updated(ctx)
	require.NoError(t, err)
	assert.False(t, updated.IsZero())
}

func TestStored_Modify(t *testing.T) {
	ctx := context.Background()
	tk := newTalk(t, memory.NewStore())

	err := tk.Modify(ctx, directive.New().
		XPath("/talk").Add("wire").Add("href").Set("https://example.com/issues/1"))
	require.NoError(t, err)

	doc, err := tk.Read(ctx)
	require.NoError(t, err)
	href, ok := doc.Text("/talk/wire/href")
	assert.True(t, ok)
	assert.Equal(t, "https://example.com/issues/1", href)
}

func TestStored_ModifyInapplicableKeepsBytes(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	tk := newTalk(t, store)
	before := persisted(t, store, "test")

	err := tk.Modify(ctx, directive.New().Add("wire").Up().Up())

	var stateErr *domain.StateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, before, persisted(t, store, "test"))
}

func TestStored_ModifyRejectsUnencodableText(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	tk := newTalk(t, store)
	before := persisted(t, store, "test")

	err := tk.Modify(ctx, directive.New().XPath("/talk").Add("wire").Add("href").Set("a\x01b"))

	var stateErr *domain.StateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, before, persisted(t, store, "test"))
}

func TestStored_ModifyInvalidKeepsBytes(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	tk := newTalk(t, store)
	before := persisted(t, store, "test")

	err := tk.Modify(ctx, directive.New().Attr("foo", "bar"))

	var invalid *domain.ValidationError
	require.ErrorAs(t, err, &invalid)
	assert.Contains(t, err.Error(), "/talk/@foo: attribute not allowed")
	assert.Equal(t, before, persisted(t, store, "test"))
}

func TestStored_ModifyEmptyDoesNoIO(t *testing.T) {
	store := &countingStore{TalkStore: memory.NewStore()}
	tk := talk.New(store, "missing")

	require.NoError(t, tk.Modify(context.Background(), directive.New()))
	assert.Zero(t, store.loads.Load())
	assert.Zero(t, store.saves.Load())
}

func TestStored_ModifySaveFailure(t *testing.T) {
	ctx := context.Background()
	mem := memory.NewStore()
	newTalk(t, mem)

	tk := talk.New(&brokenStore{TalkStore: mem}, "test")
	err := tk.Modify(ctx, directive.New().Add("wire"))

	var storageErr *domain.StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "save", storageErr.Op)
}

func TestStored_Missing(t *testing.T) {
	tk := talk.New(memory.NewStore(), "ghost")

	_, err := tk.Read(context.Background())
	assert.ErrorIs(t, err, domain.ErrTalkNotFound)

	var storageErr *domain.StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "load", storageErr.Op)
}

func TestStored_ReadUpgradesWithoutWriting(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	legacy := []byte(`<talk name="old" number="7"><request id="3"><type>deploy</type>` +
		`<params><param key="tag">1.0</param></params></request></talk>`)
	require.NoError(t, store.Save(ctx, "old", legacy))

	tk := talk.New(store, "old")
	doc, err := tk.Read(ctx)
	require.NoError(t, err)

	later, _ := doc.Attr("/talk", "later")
	assert.Equal(t, "false", later)
	version, _ := doc.Attr("/talk", "schema")
	assert.Equal(t, "2", version)
	name, ok := doc.Attr("/talk/request/args/arg", "name")
	assert.True(t, ok)
	assert.Equal(t, "tag", name)
	assert.NoError(t, talk.CurrentSchema().Validate(doc))

	assert.Equal(t, legacy, persisted(t, store, "old"))

	// The next modification persists the upgraded form.
	require.NoError(t, tk.Modify(ctx, directive.New().Attr("later", "true")))
	again, err := tk.Read(ctx)
	require.NoError(t, err)
	assert.True(t, again.Exists("/talk/request/args/arg"))
	assert.False(t, again.Exists("/talk/request/params"))
}

func TestStored_ActiveCallsHook(t *testing.T) {
	var got []bool
	hook := func(ctx context.Context, name string, active bool) error {
		assert.Equal(t, "test", name)
		got = append(got, active)
		return nil
	}
	store := memory.NewStore()
	tk := newTalk(t, store, talk.WithActivationHook(hook))
	before := persisted(t, store, "test")

	require.NoError(t, tk.Active(context.Background(), true))
	require.NoError(t, tk.Active(context.Background(), false))
	assert.Equal(t, []bool{true, false}, got)
	assert.Equal(t, before, persisted(t, store, "test"))

	// Without a hook the signal is accepted and ignored.
	assert.NoError(t, talk.New(store, "test").Active(context.Background(), true))
}

func TestStored_ConcurrentModify(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	reg := talk.NewRegistry(store)
	_, err := reg.Create(ctx, 1, "test")
	require.NoError(t, err)

	// Each writer appends a log entry; a lost update would drop one.
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			dirs := directive.New().AddIf("archive").Add("log").Attr("id", string(rune('a'+i)))
			assert.NoError(t, reg.Talk("test").Modify(ctx, dirs))
		}(i)
	}
	wg.Wait()

	doc, err := reg.Talk("test").Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, doc.Count("/talk/archive/log"))
}
