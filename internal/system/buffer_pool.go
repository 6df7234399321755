package system

import (
	"image"
	"sync"
)

// ImagePool recycles snapshot canvases per frame size. Images come back
// dirty; callers paint the full rectangle before use.
type ImagePool struct {
	mu    sync.RWMutex
	sizes map[image.Rectangle]*sync.Pool
}

// NewImagePool creates an empty pool
func NewImagePool() *ImagePool {
	return &ImagePool{sizes: make(map[image.Rectangle]*sync.Pool)}
}

var canvases = NewImagePool()

// GetImage takes a canvas of the given bounds from the shared pool
func GetImage(rect image.Rectangle) *image.RGBA {
	return canvases.Get(rect)
}

// PutImage hands a canvas back to the shared pool
func PutImage(img *image.RGBA) {
	canvases.Put(img)
}

// Get returns a canvas with bounds rect, allocating when none is free
func (p *ImagePool) Get(rect image.Rectangle) *image.RGBA {
	return p.pool(rect, true).Get().(*image.RGBA)
}

// Put recycles img. Canvases of a size never handed out are dropped.
func (p *ImagePool) Put(img *image.RGBA) {
	if img == nil {
		return
	}
	if sp := p.pool(img.Rect, false); sp != nil {
		sp.Put(img)
	}
}

// Sizes reports how many distinct frame sizes the pool serves
func (p *ImagePool) Sizes() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.sizes)
}

func (p *ImagePool) pool(rect image.Rectangle, create bool) *sync.Pool {
	p.mu.RLock()
	sp := p.sizes[rect]
	p.mu.RUnlock()
	if sp != nil || !create {
		return sp
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if sp = p.sizes[rect]; sp == nil {
		sp = &sync.Pool{New: func() any { return image.NewRGBA(rect) }}
		p.sizes[rect] = sp
	}
	return sp
}
