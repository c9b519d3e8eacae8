package ecskern

import (
	"sync"

	"github.com/kamstrup/intmap"
)

// worldIDPool hands out small monotonic world ids with free-list reuse,
// exactly like an entity index allocator (spec.md 2's "Id pool: reusable
// integer id allocator for world ids").
type worldIDPool struct {
	next uint32
	free []uint32
}

func (p *worldIDPool) alloc() uint32 {
	if n := len(p.free); n > 0 {
		id := p.free[n-1]
		p.free = p.free[:n-1]
		return id
	}
	id := p.next
	p.next++
	return id
}

func (p *worldIDPool) release(id uint32) {
	p.free = append(p.free, id)
}

// processDirectory is the single truly global piece of state this package
// keeps: the live-world lookup that lets an Entity value — a bare
// (world, index, version) triple with no pointer — resolve back to its
// *World. Gated behind one mutex taken only on world creation/destruction
// (spec.md 5), never on a per-entity operation.
//
// The directory itself is a github.com/kamstrup/intmap.Map rather than a
// built-in map, grounded on plus3-ooftn's ecs/archetype.go use of intmap
// for its own id-keyed entity lookup.
type processDirectory struct {
	mu     sync.Mutex
	pool   worldIDPool
	worlds *intmap.Map[uint32, *World]
}

var process = &processDirectory{
	worlds: intmap.New[uint32, *World](64),
}

func (d *processDirectory) register(w *World) uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.pool.alloc()
	w.id = id
	d.worlds.Put(id, w)
	return id
}

func (d *processDirectory) unregister(id uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.worlds.Del(id)
	d.pool.release(id)
}

func (d *processDirectory) lookup(id uint32) (*World, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.worlds.Get(id)
}
