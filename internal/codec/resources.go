package codec

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/rcliao/misoul/internal/model"
)

// ErrNotRenderable is returned for memories that have no binary payload.
var ErrNotRenderable = errors.New("text memories have no renderable resource")

// Resource is a locally addressable copy of a memory's media.
type Resource struct {
	Locator   string `json:"locator"`
	MemoryID  string `json:"memory_id"`
	MediaType string `json:"media_type"`
	Data      []byte `json:"-"`
}

// Resources owns every materialized resource and releases them when the
// memory they belong to leaves view.
type Resources struct {
	mu       sync.Mutex
	byLocal  map[string]*Resource
	byMemory map[string]string
	onFree   func(Resource)
}

// NewResources creates an empty resource table. onFree, if non-nil, is called
// for every released resource.
func NewResources(onFree func(Resource)) *Resources {
	return &Resources{
		byLocal:  make(map[string]*Resource),
		byMemory: make(map[string]string),
		onFree:   onFree,
	}
}

// ToRenderable materializes content into a resource without tracking it.
func ToRenderable(c model.Content) (Resource, error) {
	media, ok := c.(model.Media)
	if !ok {
		return Resource{}, ErrNotRenderable
	}
	return Resource{
		Locator:   "blob:" + uuid.NewString(),
		MediaType: MimeFor(media.Kind()),
		Data:      media.Data(),
	}, nil
}

// Render returns the resource for a memory, materializing it on first use.
func (r *Resources) Render(m model.Memory) (Resource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if loc, ok := r.byMemory[m.ID]; ok && m.ID != "" {
		return *r.byLocal[loc], nil
	}
	res, err := ToRenderable(m.Content)
	if err != nil {
		return Resource{}, err
	}
	res.MemoryID = m.ID
	r.byLocal[res.Locator] = &res
	if m.ID != "" {
		r.byMemory[m.ID] = res.Locator
	}
	return res, nil
}

// Release frees one resource by locator. Unknown locators are ignored.
func (r *Resources) Release(locator string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.releaseLocked(locator)
}

// Forget frees the resource belonging to a memory.
func (r *Resources) Forget(memoryID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if loc, ok := r.byMemory[memoryID]; ok {
		r.releaseLocked(loc)
	}
}

// Retain frees every resource whose memory is not in visible, or is visible
// but no longer carries media.
func (r *Resources) Retain(visible []model.Memory) {
	keep := make(map[string]bool, len(visible))
	for _, m := range visible {
		if _, ok := m.Content.(model.Media); ok {
			keep[m.ID] = true
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for loc, res := range r.byLocal {
		if !keep[res.MemoryID] {
			r.releaseLocked(loc)
		}
	}
}

// ReleaseAll frees everything.
func (r *Resources) ReleaseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for loc := range r.byLocal {
		r.releaseLocked(loc)
	}
}

// Len returns the number of live resources.
func (r *Resources) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byLocal)
}

func (r *Resources) releaseLocked(locator string) {
	res, ok := r.byLocal[locator]
	if !ok {
		return
	}
	delete(r.byLocal, locator)
	if r.byMemory[res.MemoryID] == locator {
		delete(r.byMemory, res.MemoryID)
	}
	if r.onFree != nil {
		r.onFree(*res)
	}
}
