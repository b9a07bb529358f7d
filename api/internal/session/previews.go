package session

import (
	"sync"

	"github.com/google/uuid"
)

type Preview struct {
	Data     []byte
	MIMEType string
}

// Previews hands out display handles for uploaded images. Every handle
// must be released when superseded or when its session ends.
type Previews struct {
	mu    sync.Mutex
	items map[string]Preview
}

func NewPreviews() *Previews {
	return &Previews{items: make(map[string]Preview)}
}

func (p *Previews) Acquire(data []byte, mimeType string) string {
	id := uuid.NewString()
	p.mu.Lock()
	p.items[id] = Preview{Data: data, MIMEType: mimeType}
	p.mu.Unlock()
	return id
}

func (p *Previews) Release(id string) {
	if id == "" {
		return
	}
	p.mu.Lock()
	delete(p.items, id)
	p.mu.Unlock()
}

func (p *Previews) Get(id string) (Preview, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pv, ok := p.items[id]
	return pv, ok
}

func (p *Previews) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.items)
}
