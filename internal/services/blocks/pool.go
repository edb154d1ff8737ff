package blocks

import (
	"sync"

	"github.com/mcoot/blockmatch/internal/model"
)

// Pool recycles block handles. Handles keep their ID for the lifetime of
// the pool; Get grows the pool when nothing is free.
type Pool struct {
	mu     sync.Mutex
	free   []*model.Block
	inUse  map[*model.Block]bool
	nextID model.BlockID
}

// NewPool creates a pool with initial free handles
func NewPool(initial int) *Pool {
	p := &Pool{inUse: make(map[*model.Block]bool)}
	p.Reserve(initial)
	return p
}

func (p *Pool) create() {
	p.nextID++
	p.free = append(p.free, &model.Block{ID: p.nextID})
}

// Reserve grows the pool until at least n handles are free
func (p *Pool) Reserve(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for len(p.free) < n {
		p.create()
	}
}

// Get hands out the oldest free handle, creating one if none is free
func (p *Pool) Get() *model.Block {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.free) == 0 {
		p.create()
	}
	b := p.free[0]
	p.free[0] = nil
	p.free = p.free[1:]
	p.inUse[b] = true
	return b
}

// Put returns a handle to the pool. Handles the pool did not hand out, or
// already returned, are ignored and reported as false.
func (p *Pool) Put(b *model.Block) bool {
	if b == nil {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.inUse[b] {
		return false
	}
	delete(p.inUse, b)
	b.Color = model.ColorNone
	b.Tier = 0
	p.free = append(p.free, b)
	return true
}

// Available returns the number of free handles
func (p *Pool) Available() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}

// Size returns the number of handles the pool has created
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return int(p.nextID)
}

// InUse returns the number of handles currently handed out
func (p *Pool) InUse() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.inUse)
}
