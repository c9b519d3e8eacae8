// Package ecskern is an archetype-based Entity-Component-System runtime.
//
// Entities are opaque (world, index, version) handles. Components are plain
// value records. Entities sharing the same set of component types live in
// the same archetype, whose data is stored as parallel columnar arrays, one
// dense array per component type plus one dense array of entity handles.
//
// The package is split across several cooperating subsystems: the archetype
// storage engine (signature.go, column.go, archetype.go), the structural
// mutation engine with its deferred event queue (events.go), the query
// engine (query.go), the per-type callback/resource registry (callbacks.go),
// a general pub/sub channel (eventbus.go), and the world/handle surface that
// ties them together (world.go, handles.go). None of it is safe for
// concurrent use from more than one goroutine against the same World. The
// one exception is the process-level world registry (registry_process.go),
// whose creation/destruction paths are guarded by a mutex.
package ecskern
