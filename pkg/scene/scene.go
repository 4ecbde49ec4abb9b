// Package scene holds the persistent, keyed element tree that bubbles are
// rendered into.
//
// A [Container] plays the role of a DOM container: it has a live size and a
// set of [Element]s keyed by record ID. Each element is an anchor that carries
// the position and size of a bubble plus an inner disc that carries its
// period styling. Elements are created once, mutated in place and removed
// explicitly; the tree never rebuilds itself.
//
// Containers are not safe for concurrent use. They are owned by a single
// renderer, which is owned by a single view goroutine.
package scene

import "slices"

// Element is one rendered bubble.
type Element struct {
	Key string `json:"key"`

	// Anchor box: top-left corner and edge length.
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Size float64 `json:"size"`

	// Inner disc styling.
	Period string `json:"period"`
	Fill   string `json:"fill"`
	Stroke string `json:"stroke"`

	// Entered is true only during the pass that created the element; it
	// selects the pop-in treatment.
	Entered bool `json:"entered,omitempty"`
}

// CenterX returns the horizontal center of the anchor box.
func (e *Element) CenterX() float64 { return e.X + e.Size/2 }

// CenterY returns the vertical center of the anchor box.
func (e *Element) CenterY() float64 { return e.Y + e.Size/2 }

// Container is a named, sized collection of elements.
type Container struct {
	name          string
	width, height float64
	elements      map[string]*Element
	order         []string
	detached      bool
}

// NewContainer creates an empty container.
func NewContainer(name string, width, height float64) *Container {
	return &Container{
		name:     name,
		width:    width,
		height:   height,
		elements: make(map[string]*Element),
	}
}

// Name returns the container name.
func (c *Container) Name() string { return c.name }

// Size returns the live container size.
func (c *Container) Size() (width, height float64) { return c.width, c.height }

// Resize changes the container size. Elements are not touched.
func (c *Container) Resize(width, height float64) {
	c.width, c.height = width, height
}

// Get returns the element with the given key.
func (c *Container) Get(key string) (*Element, bool) {
	e, ok := c.elements[key]
	return e, ok
}

// Add inserts e, replacing any element with the same key.
func (c *Container) Add(e *Element) {
	if _, ok := c.elements[e.Key]; !ok {
		c.order = append(c.order, e.Key)
	}
	c.elements[e.Key] = e
}

// Remove deletes the element with the given key and reports whether it
// existed.
func (c *Container) Remove(key string) bool {
	if _, ok := c.elements[key]; !ok {
		return false
	}
	delete(c.elements, key)
	if i := slices.Index(c.order, key); i >= 0 {
		c.order = slices.Delete(c.order, i, i+1)
	}
	return true
}

// Keys returns element keys in insertion order.
func (c *Container) Keys() []string {
	return slices.Clone(c.order)
}

// Elements returns the elements in insertion order.
func (c *Container) Elements() []*Element {
	out := make([]*Element, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, c.elements[k])
	}
	return out
}

// Len returns the number of elements.
func (c *Container) Len() int { return len(c.elements) }

// Detach tears the container down. It is emptied and every later render
// into it is skipped.
func (c *Container) Detach() {
	c.detached = true
	c.elements = make(map[string]*Element)
	c.order = nil
}

// Detached reports whether the container has been torn down.
func (c *Container) Detached() bool { return c.detached }
