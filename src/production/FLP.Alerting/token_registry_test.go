package alerting

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenRegistry_RegisterDeduplicates(t *testing.T) {
	registry := NewTokenRegistry()

	added, err := registry.Register("tok-A", "d1")
	require.NoError(t, err)
	require.True(t, added)

	added, err = registry.Register("tok-A", "d2")
	require.NoError(t, err)
	require.False(t, added)

	require.Equal(t, []string{"tok-A"}, registry.Tokens())
	require.Equal(t, 1, registry.Len())
}

func TestTokenRegistry_RejectsMissingFields(t *testing.T) {
	registry := NewTokenRegistry()

	_, err := registry.Register("", "d1")
	require.True(t, errors.Is(err, ErrMissingTokenField))

	_, err = registry.Register("t1", "")
	require.True(t, errors.Is(err, ErrMissingTokenField))

	require.Zero(t, registry.Len())
	require.Empty(t, registry.Tokens())
}

func TestTokenRegistry_StoresTokenVerbatim(t *testing.T) {
	registry := NewTokenRegistry()

	added, err := registry.Register(" tok-A ", "d1")
	require.NoError(t, err)
	require.True(t, added)

	added, err = registry.Register("tok-A", "d1")
	require.NoError(t, err)
	require.True(t, added)

	require.ElementsMatch(t, []string{" tok-A ", "tok-A"}, registry.Tokens())
}

func TestTokenRegistry_TokensIsSnapshot(t *testing.T) {
	registry := NewTokenRegistry()
	_, _ = registry.Register("tok-A", "d1")

	snapshot := registry.Tokens()
	snapshot[0] = "mutated"
	_, _ = registry.Register("tok-B", "d1")

	require.Len(t, snapshot, 1)
	require.ElementsMatch(t, []string{"tok-A", "tok-B"}, registry.Tokens())
}

func TestTokenRegistry_ConcurrentRegister(t *testing.T) {
	registry := NewTokenRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = registry.Register(fmt.Sprintf("tok-%d", i%10), "d1")
			_ = registry.Tokens()
		}(i)
	}
	wg.Wait()

	require.Equal(t, 10, registry.Len())
}
