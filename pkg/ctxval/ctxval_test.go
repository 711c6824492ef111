package ctxval_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/nguyentranbao-ct/chat-engine/pkg/ctxval"
	"github.com/stretchr/testify/assert"
)

func TestWrap(t *testing.T) {
	t.Parallel()
	type key string

	t.Run("set and get", func(t *testing.T) {
		ctx := ctxval.Wrap(t.Context())
		ctxval.Set(ctx, key("profile_id"), "p1")
		v, ok := ctxval.Get[key, string](ctx, key("profile_id"))
		assert.True(t, ok)
		assert.Equal(t, "p1", v)
	})

	t.Run("overwrite", func(t *testing.T) {
		ctx := ctxval.Wrap(t.Context())
		ctxval.Set(ctx, key("k"), 1)
		ctxval.Set(ctx, key("k"), 2)
		v, _ := ctxval.Get[key, int](ctx, key("k"))
		assert.Equal(t, 2, v)
	})

	t.Run("wrap twice keeps the bag", func(t *testing.T) {
		ctx := ctxval.Wrap(t.Context())
		ctxval.Set(ctx, key("k"), "v")
		again := ctxval.Wrap(ctx)
		v, ok := ctxval.Get[key, string](again, key("k"))
		assert.True(t, ok)
		assert.Equal(t, "v", v)
	})

	t.Run("unwrapped context ignores set", func(t *testing.T) {
		ctx := t.Context()
		assert.False(t, ctxval.IsWrapped(ctx))
		ctxval.Set(ctx, key("k"), "v")
		_, ok := ctxval.Get[key, string](ctx, key("k"))
		assert.False(t, ok)
	})

	t.Run("reads parent values", func(t *testing.T) {
		parent := context.WithValue(t.Context(), key("parent"), "yes")
		ctx := ctxval.Wrap(parent)
		v, ok := ctxval.Get[key, string](ctx, key("parent"))
		assert.True(t, ok)
		assert.Equal(t, "yes", v)
	})
}

func TestConcurrentSetGet(t *testing.T) {
	t.Parallel()
	ctx := ctxval.Wrap(t.Context())

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := range 200 {
				ctxval.Set(ctx, fmt.Sprintf("key-%d", j%10), i)
			}
		}()
		go func() {
			defer wg.Done()
			for j := range 200 {
				_, _ = ctxval.Get[string, int](ctx, fmt.Sprintf("key-%d", j%10))
			}
		}()
	}
	wg.Wait()

	_, ok := ctxval.Get[string, int](ctx, "key-0")
	assert.True(t, ok)
}
