package ports

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/talks/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunTalkStoreContract runs a suite of tests to verify that a TalkStore implementation
// adheres to the defined interface contract.
func RunTalkStoreContract(t *testing.T, store TalkStore) {
	ctx := context.Background()
	name := "contract-test-talk-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		data := []byte(`<talk name="x" number="1"/>`)
		before := time.Now().Add(-time.Second)

		err := store.Save(ctx, name, data)
		require.NoError(t, err, "Save should not return error")

		rec, err := store.Load(ctx, name)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, data, rec.Data)
		assert.True(t, rec.Updated.After(before), "Updated should reflect the save, got %v", rec.Updated)
	})

	t.Run("Save Replaces", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, name, []byte("<a/>")))
		require.NoError(t, store.Save(ctx, name, []byte("<b/>")))

		rec, err := store.Load(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, []byte("<b/>"), rec.Data)
	})

	t.Run("Load Returns Own Copy", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, name, []byte("<a/>")))
		rec, err := store.Load(ctx, name)
		require.NoError(t, err)
		rec.Data[1] = 'z'

		again, err := store.Load(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, []byte("<a/>"), again.Data)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+name)
		assert.ErrorIs(t, err, domain.ErrTalkNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, name, []byte("<a/>")))

		err := store.Delete(ctx, name)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, name)
		assert.ErrorIs(t, err, domain.ErrTalkNotFound, "Load after Delete should return ErrTalkNotFound")

		assert.NoError(t, store.Delete(ctx, name), "Delete should be idempotent")
	})

	t.Run("List", func(t *testing.T) {
		id1 := name + "-1"
		id2 := name + "-2"
		_ = store.Save(ctx, id1, []byte("<a/>"))
		_ = store.Save(ctx, id2, []byte("<a/>"))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		names, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, names, id1)
		assert.Contains(t, names, id2)
	})

	t.Run("Readers Never See Torn Writes", func(t *testing.T) {
		small := bytes.Repeat([]byte("a"), 64)
		large := bytes.Repeat([]byte("b"), 64*1024)
		require.NoError(t, store.Save(ctx, name, small))

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				next := small
				if i%2 == 0 {
					next = large
				}
				_ = store.Save(ctx, name, next)
			}
		}()

		for i := 0; i < 50; i++ {
			rec, err := store.Load(ctx, name)
			require.NoError(t, err)
			ok := bytes.Equal(rec.Data, small) || bytes.Equal(rec.Data, large)
			require.True(t, ok, "observed a partial record of %d bytes", len(rec.Data))
		}
		wg.Wait()
		_ = store.Delete(ctx, name)
	})
}
