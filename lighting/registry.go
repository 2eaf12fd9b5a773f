// Package lighting stores the scene lights, owns their shadow-map resources
// and decides on which frames each shadow map is re-rendered.
package lighting

import (
	"fmt"

	"github.com/charmbracelet/log"

	"r3d/config"
	"r3d/core"
	"r3d/gpu"
)

// LightID is a generation-stamped reference into a Registry. The zero value
// never resolves to a light.
type LightID struct {
	Index      uint32
	Generation uint32
}

func (id LightID) String() string {
	return fmt.Sprintf("%d#%d", id.Index, id.Generation)
}

type slot struct {
	light      Light
	generation uint32
	live       bool
}

// Registry is a slot arena of lights. Destroyed slots are reused, and their
// generation is bumped so stale IDs stop resolving.
type Registry struct {
	dev   gpu.Device
	log   *log.Logger
	cfg   config.ShadowConfig
	slots []slot
	free  []uint32
}

// NewRegistry creates an empty registry allocating shadow maps through dev.
// Zero fields of cfg fall back to the package defaults.
func NewRegistry(dev gpu.Device, cfg config.ShadowConfig, capacity int, logger *log.Logger) *Registry {
	if logger == nil {
		logger = core.Logger()
	}
	return &Registry{
		dev:   dev,
		log:   logger,
		cfg:   withShadowDefaults(cfg),
		slots: make([]slot, 0, max(capacity, 0)),
	}
}

// Create adds a light of type t with default settings and returns its ID.
// New lights start disabled.
func (r *Registry) Create(t LightType) LightID {
	var idx uint32
	if n := len(r.free); n > 0 {
		idx = r.free[n-1]
		r.free = r.free[:n-1]
	} else {
		r.slots = append(r.slots, slot{generation: 1})
		idx = uint32(len(r.slots) - 1)
	}
	s := &r.slots[idx]
	s.live = true
	s.light = newLight(t, r.cfg)
	return LightID{Index: idx, Generation: s.generation}
}

// Destroy releases the light's shadow map and its slot.
func (r *Registry) Destroy(id LightID) {
	l := r.lookup(id, "destroy")
	if l == nil {
		return
	}
	l.Shadow.Map.destroy(r.dev)
	s := &r.slots[id.Index]
	s.live = false
	s.light = Light{}
	s.generation++
	r.free = append(r.free, id.Index)
}

// Exists reports whether id refers to a live light.
func (r *Registry) Exists(id LightID) bool {
	return r.get(id) != nil
}

// Get returns the light for id, or false when id is stale or unknown.
func (r *Registry) Get(id LightID) (*Light, bool) {
	l := r.get(id)
	return l, l != nil
}

// Each calls fn for every live light in slot order.
func (r *Registry) Each(fn func(LightID, *Light)) {
	for i := range r.slots {
		s := &r.slots[i]
		if s.live {
			fn(LightID{Index: uint32(i), Generation: s.generation}, &s.light)
		}
	}
}

// Len returns the number of live lights.
func (r *Registry) Len() int {
	return len(r.slots) - len(r.free)
}

// Close destroys every shadow map and empties the registry.
func (r *Registry) Close() {
	for i := range r.slots {
		if r.slots[i].live {
			r.slots[i].light.Shadow.Map.destroy(r.dev)
		}
	}
	r.slots = r.slots[:0]
	r.free = r.free[:0]
}

func (r *Registry) get(id LightID) *Light {
	if int(id.Index) >= len(r.slots) {
		return nil
	}
	s := &r.slots[id.Index]
	if !s.live || s.generation != id.Generation {
		return nil
	}
	return &s.light
}

// lookup resolves id and logs at error level when it does not.
func (r *Registry) lookup(id LightID, op string) *Light {
	l := r.get(id)
	if l == nil {
		r.log.Error("light is not valid", "light", id, "op", op)
	}
	return l
}

// update resolves id and applies fn; stale IDs are logged and ignored.
func (r *Registry) update(id LightID, op string, fn func(l *Light)) {
	if l := r.lookup(id, op); l != nil {
		fn(l)
	}
}
