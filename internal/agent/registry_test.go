package agent

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAgent is a minimal Agent for registry tests.
type stubAgent struct {
	kind string
}

func (s *stubAgent) Kind() string            { return s.kind }
func (s *stubAgent) Capabilities() []string  { return []string{"stub"} }
func (s *stubAgent) Execute(_ context.Context, _ string, _ bool) (*Result, error) {
	return &Result{Content: "ok"}, nil
}

func TestResolveUnknownKind(t *testing.T) {
	r := NewRegistry(func(_ context.Context, kind string) (Agent, error) {
		t.Fatalf("factory called for unknown kind %q", kind)
		return nil, nil
	}, nil)

	_, err := r.Resolve(context.Background(), "imaginary")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownAgentType)
	assert.Contains(t, err.Error(), "imaginary")
}

func TestResolveCachesInstance(t *testing.T) {
	var calls atomic.Int32
	r := NewRegistry(func(_ context.Context, kind string) (Agent, error) {
		calls.Add(1)
		return &stubAgent{kind: kind}, nil
	}, nil)

	a1, err := r.Resolve(context.Background(), KindChat)
	require.NoError(t, err)
	a2, err := r.Resolve(context.Background(), KindChat)
	require.NoError(t, err)

	assert.Same(t, a1, a2)
	assert.Equal(t, int32(1), calls.Load())
}

func TestResolveConcurrentSingleConstruction(t *testing.T) {
	var calls atomic.Int32
	r := NewRegistry(func(_ context.Context, kind string) (Agent, error) {
		calls.Add(1)
		return &stubAgent{kind: kind}, nil
	}, nil)

	const n = 32
	agents := make([]Agent, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := range n {
		go func() {
			defer wg.Done()
			a, err := r.Resolve(context.Background(), KindSearch)
			assert.NoError(t, err)
			agents[i] = a
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for i := 1; i < n; i++ {
		assert.Same(t, agents[0], agents[i])
	}
}

func TestResolveRetriesAfterFailure(t *testing.T) {
	boom := errors.New("model unavailable")
	var calls atomic.Int32
	r := NewRegistry(func(_ context.Context, kind string) (Agent, error) {
		if calls.Add(1) == 1 {
			return nil, boom
		}
		return &stubAgent{kind: kind}, nil
	}, nil)

	_, err := r.Resolve(context.Background(), KindChat)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	// A failed construction does not poison the kind.
	a, err := r.Resolve(context.Background(), KindChat)
	require.NoError(t, err)
	assert.Equal(t, KindChat, a.Kind())
	assert.Equal(t, int32(2), calls.Load())
}

func TestResolveIndependentKinds(t *testing.T) {
	block := make(chan struct{})
	started := make(chan struct{})

	r := NewRegistry(func(_ context.Context, kind string) (Agent, error) {
		if kind == KindSearch {
			close(started)
			<-block
		}
		return &stubAgent{kind: kind}, nil
	}, nil)

	go func() {
		_, _ = r.Resolve(context.Background(), KindSearch)
	}()
	<-started

	// Slow construction of one kind must not block another.
	a, err := r.Resolve(context.Background(), KindChat)
	require.NoError(t, err)
	assert.Equal(t, KindChat, a.Kind())

	close(block)
}
