package generic

import "sync"

// Pool is a typed sync.Pool.
type Pool[T any] struct {
	pool sync.Pool
}

func NewPool[T any](generate func() T) *Pool[T] {
	return &Pool[T]{
		pool: sync.Pool{
			New: func() any {
				return generate()
			},
		},
	}
}

func (p *Pool[T]) Get() T {
	return p.pool.Get().(T)
}

func (p *Pool[T]) Put(value T) {
	p.pool.Put(value)
}

// BufferPool hands out byte slices of a fixed length, for reading one
// datagram at a time.
type BufferPool struct {
	size int
	pool *Pool[*[]byte]
}

// NewBufferPool returns a pool of size-byte buffers with hot of them
// allocated up front.
func NewBufferPool(size, hot int) *BufferPool {
	generate := func() *[]byte {
		buf := make([]byte, size)
		return &buf
	}
	p := &BufferPool{size: size, pool: NewPool(generate)}
	for range hot {
		p.pool.Put(generate())
	}
	return p
}

func (p *BufferPool) Size() int {
	return p.size
}

// Get returns a buffer whose length is Size.
func (p *BufferPool) Get() *[]byte {
	return p.pool.Get()
}

// Put returns buf to the pool with its length restored to Size. Buffers
// that cannot hold Size bytes are dropped.
func (p *BufferPool) Put(buf *[]byte) {
	if buf == nil || cap(*buf) < p.size {
		return
	}
	*buf = (*buf)[:p.size]
	p.pool.Put(buf)
}
