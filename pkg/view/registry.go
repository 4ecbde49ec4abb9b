package view

import (
	"sync"

	"github.com/matzehuels/thinkofyou/pkg/errors"
)

// Registry tracks running views by id so resize requests, which arrive on
// separate HTTP requests, can find their view.
type Registry struct {
	mu    sync.RWMutex
	views map[string]*View
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{views: make(map[string]*View)}
}

// Add registers v and removes it automatically once it stops.
func (r *Registry) Add(v *View) {
	r.mu.Lock()
	r.views[v.ID()] = v
	r.mu.Unlock()

	go func() {
		<-v.Done()
		r.Remove(v.ID())
	}()
}

// Get returns the view with id.
func (r *Registry) Get(id string) (*View, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.views[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "no view %q", id)
	}
	return v, nil
}

// Remove unregisters id. Unknown ids are ignored.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.views, id)
}

// Len returns the number of registered views.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.views)
}
