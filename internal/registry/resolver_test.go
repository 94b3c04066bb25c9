package registry

import (
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/gridsweep/internal/ident"
)

func TestResolverProvideAndResolve(t *testing.T) {
	r := NewResolver()
	require.NoError(t, r.Provide("plugins/greeter:static", newStaticGreeter))

	target, err := r.Resolve("plugins/greeter:static")
	require.NoError(t, err)
	assert.NotNil(t, target)

	t.Run("unknown entry point", func(t *testing.T) {
		_, err := r.Resolve("plugins/greeter:missing")
		var loadErr *LoadError
		require.ErrorAs(t, err, &loadErr)
		assert.Equal(t, ident.EntryPointID("plugins/greeter:missing"), loadErr.EntryPoint)
	})

	t.Run("bad grammar", func(t *testing.T) {
		var formatErr *ident.FormatError
		_, err := r.Resolve("no-colon-here")
		assert.ErrorAs(t, err, &formatErr)
		err = r.Provide("also bad", newStaticGreeter)
		assert.ErrorAs(t, err, &formatErr)
	})

	t.Run("nil target rejected", func(t *testing.T) {
		err := r.Provide("plugins/greeter:nil", nil)
		var confErr *ConfigurationError
		assert.ErrorAs(t, err, &confErr)
	})
}

func TestRegisterViaEntryPoint(t *testing.T) {
	s := newGreeterSet(t)
	require.NoError(t, s.Resolver().Provide("plugins/greeter:static", newStaticGreeter))

	reg, err := s.Category("greeter")
	require.NoError(t, err)
	require.NoError(t, reg.Register("static", nil, "plugins/greeter:static", map[string]any{"message": "hi"}))

	instance, err := reg.Make("static", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "hi", instance.(greeter).Greet())

	t.Run("unresolvable entry point is a LoadError", func(t *testing.T) {
		err := reg.Register("ghost", nil, "plugins/greeter:ghost", nil)
		var loadErr *LoadError
		require.ErrorAs(t, err, &loadErr)
		assert.False(t, reg.Has("ghost"))
	})
}

func TestResolverConcurrentAccess(t *testing.T) {
	r := NewResolver()
	target := func(args []any, kwargs map[string]any) (int, error) { return 0, nil }

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = r.Provide("pkg:item", target)
		}()
		go func() {
			defer wg.Done()
			_, _ = r.Resolve("pkg:item")
		}()
	}
	wg.Wait()

	resolved, err := r.Resolve("pkg:item")
	require.NoError(t, err)
	assert.Equal(t, reflect.Func, reflect.ValueOf(resolved).Kind())
}
