package generic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolGeneratesWhenEmpty(t *testing.T) {
	calls := 0
	p := NewPool(func() int {
		calls++
		return 42
	})

	assert.Equal(t, 42, p.Get())
	assert.Equal(t, 1, calls)
}

func TestBufferPoolHandsOutFullLengthBuffers(t *testing.T) {
	p := NewBufferPool(1500, 2)
	assert.Equal(t, 1500, p.Size())

	buf := p.Get()
	require.NotNil(t, buf)
	assert.Len(t, *buf, 1500)

	// a reader shrinks the slice to what it received
	*buf = (*buf)[:12]
	p.Put(buf)

	for range 4 {
		b := p.Get()
		assert.Len(t, *b, 1500)
		p.Put(b)
	}
}

func TestBufferPoolDropsUndersizedBuffers(t *testing.T) {
	p := NewBufferPool(64, 0)

	small := make([]byte, 8)
	p.Put(&small)
	p.Put(nil)

	assert.Len(t, *p.Get(), 64)
}
