// Command ecsprofile profiles bulk entity creation and query iteration
// against ecskern, adapted from the teacher's (edwinsyarief-lazyecs)
// deleted profile/entities and profile/query commands — kept so the one
// direct dependency (github.com/pkg/profile) the teacher's own go.mod
// carried is still exercised by something in this module (SPEC_FULL.md
// §4's domain stack table).
package main

import (
	"fmt"

	"github.com/brindlebyte/ecskern"
	"github.com/pkg/profile"
)

type position struct {
	X, Y float32
}

type velocity struct {
	DX, DY float32
}

func main() {
	const (
		rounds   = 20
		iters    = 2000
		entities = 10_000
	)

	p := profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook)
	run(rounds, iters, entities)
	p.Stop()
}

func run(rounds, iters, numEntities int) {
	var sumX float64
	for i := 0; i < rounds; i++ {
		w := ecskern.NewWorld()

		seed := w.CreateEntity()
		ecskern.Set(seed, position{})
		ecskern.Set(seed, velocity{DX: 1, DY: 1})
		populated := seed.Archetype()
		populated.CreateEntities(numEntities - 1)

		q := ecskern.NewQuery(w)
		ecskern.Include[position](q)
		ecskern.Include[velocity](q)

		for iter := 0; iter < iters; iter++ {
			ecskern.ForEach(q, func(e ecskern.Entity, v *velocity) {
				pos := ecskern.Get[position](e)
				pos.X += v.DX
				pos.Y += v.DY
			})
		}

		ecskern.ForEach(q, func(e ecskern.Entity, pos *position) {
			sumX += float64(pos.X)
		})

		w.Destroy()
	}
	fmt.Printf("rounds=%d iters=%d entities=%d sumX=%.0f\n", rounds, iters, numEntities, sumX)
}
