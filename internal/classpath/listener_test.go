package classpath

import (
	"runtime"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingListener is large enough to stay out of the tiny allocator, so it
// is collected as soon as it becomes unreachable.
type countingListener struct {
	calls atomic.Int64
	_     [64]byte
}

func (l *countingListener) ClassPathChanged() { l.calls.Add(1) }

func TestRegistryNotifies(t *testing.T) {
	r := NewRegistry()
	a, b := &countingListener{}, &countingListener{}
	Watch(r, a)
	cancel := Watch(r, b)

	r.Notify()
	assert.Equal(t, int64(1), a.calls.Load())
	assert.Equal(t, int64(1), b.calls.Load())

	cancel()
	r.Notify()
	assert.Equal(t, int64(2), a.calls.Load())
	assert.Equal(t, int64(1), b.calls.Load())
	assert.Equal(t, 1, r.Len())
}

func TestRegistryDropsCollectedListeners(t *testing.T) {
	r := NewRegistry()
	keep := &countingListener{}
	Watch(r, keep)
	func() {
		Watch(r, &countingListener{})
	}()
	require.Equal(t, 2, r.Len())

	runtime.GC()
	runtime.GC()

	assert.NotPanics(t, r.Notify)
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, int64(1), keep.calls.Load())
	runtime.KeepAlive(keep)
}

func TestIndexDoesNotKeepListenerAlive(t *testing.T) {
	ix := NewIndex(nil)
	func() {
		Watch(ix.Listeners(), &countingListener{})
	}()
	runtime.GC()
	ix.Reset()
	assert.Equal(t, 0, ix.Listeners().Len())
}
