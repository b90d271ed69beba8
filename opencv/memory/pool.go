// Package memory recycles native Mats between filter calls. Augmentation
// runs the same shapes over and over, so keeping a few Mats per shape
// avoids a native allocation per image.
package memory

import (
	"sync"

	"gocv.io/x/gocv"

	"trackaug/opencv/safe"
)

type PoolKey struct {
	Rows    int
	Cols    int
	MatType gocv.MatType
}

type Stats struct {
	Hits   int64
	Misses int64
}

// Pool keeps up to maxPerKey idle Mats for every shape.
type Pool struct {
	mats      map[PoolKey][]*safe.Mat
	maxPerKey int
	stats     Stats
	mu        sync.Mutex
}

func NewPool(maxPerKey int) *Pool {
	return &Pool{
		mats:      make(map[PoolKey][]*safe.Mat),
		maxPerKey: maxPerKey,
	}
}

// Get returns an idle Mat of the requested shape or allocates one. The
// contents of a recycled Mat are whatever its last user left.
func (p *Pool) Get(rows, cols int, matType gocv.MatType) (*safe.Mat, error) {
	key := PoolKey{Rows: rows, Cols: cols, MatType: matType}

	p.mu.Lock()
	for {
		idle := p.mats[key]
		if len(idle) == 0 {
			break
		}
		mat := idle[len(idle)-1]
		p.mats[key] = idle[:len(idle)-1]
		if mat.IsValid() && !mat.Empty() {
			p.stats.Hits++
			p.mu.Unlock()
			return mat, nil
		}
		mat.Close()
	}
	p.stats.Misses++
	p.mu.Unlock()

	return safe.NewMat(rows, cols, matType)
}

// Put hands mat back. It is closed instead when the shape's slot is full.
func (p *Pool) Put(mat *safe.Mat) {
	if mat == nil || !mat.IsValid() || mat.Empty() {
		return
	}
	key := PoolKey{Rows: mat.Rows(), Cols: mat.Cols(), MatType: mat.Type()}

	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.mats[key]) >= p.maxPerKey {
		mat.Close()
		return
	}
	p.mats[key] = append(p.mats[key], mat)
}

func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0
	for _, idle := range p.mats {
		n += len(idle)
	}
	return n
}

func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// Cleanup closes every idle Mat and reports how many there were.
func (p *Pool) Cleanup() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	count := 0
	for key, idle := range p.mats {
		for _, mat := range idle {
			mat.Close()
		}
		count += len(idle)
		delete(p.mats, key)
	}
	return count
}
