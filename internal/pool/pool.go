// Package pool recycles the scratch storage a parse run needs: the argument
// queues the tokenizer drains and the byte buffers the help formatter fills.
package pool

import (
	"sync"
	"sync/atomic"
)

// Pool is a typed wrapper around sync.Pool with an optional reset hook and
// an optional cap on how many returned objects are retained.
type Pool[T any] struct {
	pool    sync.Pool
	reset   func(*T)
	maxSize int64
	kept    atomic.Int64
}

// NewPool creates a pool that builds new objects with factory.
func NewPool[T any](factory func() *T) *Pool[T] {
	return &Pool[T]{
		pool: sync.Pool{
			New: func() any {
				return factory()
			},
		},
	}
}

// NewPoolWithReset creates a pool whose objects are passed through reset
// every time they are handed out.
func NewPoolWithReset[T any](factory func() *T, reset func(*T)) *Pool[T] {
	p := NewPool(factory)
	p.reset = reset
	return p
}

// Get returns a pooled or freshly built object.
func (p *Pool[T]) Get() *T {
	obj, _ := p.pool.Get().(*T)
	if p.maxSize > 0 && p.kept.Load() > 0 {
		p.kept.Add(-1)
	}
	if p.reset != nil {
		p.reset(obj)
	}
	return obj
}

// Put hands obj back. Nil objects and objects beyond the size cap are
// dropped.
func (p *Pool[T]) Put(obj *T) {
	if obj == nil {
		return
	}
	if p.maxSize > 0 {
		if p.kept.Load() >= p.maxSize {
			return
		}
		p.kept.Add(1)
	}
	p.pool.Put(obj)
}

// SetMaxSize caps the number of retained objects. Zero means unlimited.
func (p *Pool[T]) SetMaxSize(size int) {
	p.maxSize = int64(size)
}

// Stats reports the approximate number of retained objects and the cap.
func (p *Pool[T]) Stats() (kept int64, maxSize int) {
	return p.kept.Load(), int(p.maxSize)
}

// StringSlicePool pools argument queues.
type StringSlicePool struct {
	*Pool[[]string]
}

// NewStringSlicePool creates a pool of empty string slices with the given
// starting capacity.
func NewStringSlicePool(defaultCap int) *StringSlicePool {
	return &StringSlicePool{
		Pool: NewPoolWithReset(
			func() *[]string {
				s := make([]string, 0, defaultCap)
				return &s
			},
			func(s *[]string) {
				clear(*s)
				*s = (*s)[:0]
			},
		),
	}
}

// BufferPool hands out byte buffers bucketed by capacity.
type BufferPool struct {
	buckets []int
	pools   []*Pool[[]byte]
}

// NewBufferPool creates a buffer pool with power-of-two buckets from 64
// bytes to 8 KiB.
func NewBufferPool() *BufferPool {
	bp := &BufferPool{buckets: []int{64, 128, 256, 512, 1024, 2048, 4096, 8192}}
	bp.pools = make([]*Pool[[]byte], len(bp.buckets))
	for i, size := range bp.buckets {
		capacity := size
		bp.pools[i] = NewPoolWithReset(
			func() *[]byte {
				buf := make([]byte, 0, capacity)
				return &buf
			},
			func(buf *[]byte) {
				*buf = (*buf)[:0]
			},
		)
	}
	return bp
}

// Get returns an empty buffer with at least minCap capacity. Requests larger
// than the biggest bucket are allocated directly.
func (bp *BufferPool) Get(minCap int) *[]byte {
	i := bp.bucket(minCap)
	if i < 0 {
		buf := make([]byte, 0, minCap)
		return &buf
	}
	return bp.pools[i].Get()
}

// Put returns buf to the bucket matching its capacity. Buffers that grew
// past the largest bucket or shrank below the smallest are dropped.
func (bp *BufferPool) Put(buf *[]byte) {
	if buf == nil {
		return
	}
	c := cap(*buf)
	for i := len(bp.buckets) - 1; i >= 0; i-- {
		if c >= bp.buckets[i] {
			if c > bp.buckets[len(bp.buckets)-1] {
				return
			}
			bp.pools[i].Put(buf)
			return
		}
	}
}

func (bp *BufferPool) bucket(minCap int) int {
	for i, size := range bp.buckets {
		if size >= minCap {
			return i
		}
	}
	return -1
}

var (
	// Args backs the tokenizer's remaining and leftover argument queues.
	Args = NewStringSlicePool(16)

	// Buffers backs help and usage rendering.
	Buffers = NewBufferPool()
)

// GetStringSlice borrows an empty slice from Args.
func GetStringSlice() *[]string {
	return Args.Get()
}

// PutStringSlice returns a slice to Args.
func PutStringSlice(s *[]string) {
	Args.Put(s)
}

// GetBuffer borrows an empty buffer from Buffers.
func GetBuffer(minCap int) *[]byte {
	return Buffers.Get(minCap)
}

// PutBuffer returns a buffer to Buffers.
func PutBuffer(buf *[]byte) {
	Buffers.Put(buf)
}
