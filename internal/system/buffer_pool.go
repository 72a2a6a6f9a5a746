package system

import (
	"image"
	"sync"
	"sync/atomic"
)

// ImagePool recycles scratch *image.RGBA surfaces by size. Buffers come back
// cleared, with their Rect moved to whatever bounds the caller asked for.
type ImagePool struct {
	mu    sync.RWMutex
	sizes map[image.Point]*sync.Pool

	gets, allocs atomic.Uint64
}

func NewImagePool() *ImagePool {
	return &ImagePool{sizes: make(map[image.Point]*sync.Pool)}
}

var scratch = NewImagePool()

// GetImage borrows a cleared buffer from the process-wide pool.
func GetImage(rect image.Rectangle) *image.RGBA { return scratch.Get(rect) }

// PutImage hands a GetImage buffer back.
func PutImage(img *image.RGBA) { scratch.Put(img) }

// ScratchStats reports how often the process-wide pool served a request
// without allocating.
func ScratchStats() PoolStats { return scratch.Stats() }

type PoolStats struct {
	Gets, Allocs uint64
}

// Reused is the share of Get calls that did not allocate.
func (s PoolStats) Reused() float64 {
	if s.Gets == 0 {
		return 0
	}
	return 1 - float64(s.Allocs)/float64(s.Gets)
}

func (p *ImagePool) sizePool(size image.Point) *sync.Pool {
	p.mu.RLock()
	pool, ok := p.sizes[size]
	p.mu.RUnlock()
	if ok {
		return pool
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if pool, ok = p.sizes[size]; ok {
		return pool
	}
	pool = &sync.Pool{New: func() any {
		p.allocs.Add(1)
		return image.NewRGBA(image.Rectangle{Max: size})
	}}
	p.sizes[size] = pool
	return pool
}

func (p *ImagePool) Get(rect image.Rectangle) *image.RGBA {
	p.gets.Add(1)
	img := p.sizePool(rect.Size()).Get().(*image.RGBA)
	clear(img.Pix)
	img.Rect = rect
	return img
}

// Put ignores nil and buffers of a size the pool never handed out.
func (p *ImagePool) Put(img *image.RGBA) {
	if img == nil {
		return
	}
	size := img.Rect.Size()
	p.mu.RLock()
	pool, ok := p.sizes[size]
	p.mu.RUnlock()
	if ok && len(img.Pix) == size.X*size.Y*4 {
		pool.Put(img)
	}
}

func (p *ImagePool) Stats() PoolStats {
	return PoolStats{Gets: p.gets.Load(), Allocs: p.allocs.Load()}
}
