package content

import (
	"fmt"
	"math/rand/v2"
)

// Particle is one floating dot of the animated background, already formatted
// as CSS values.
type Particle struct {
	Left     string
	Top      string
	Width    string
	Height   string
	Delay    string
	Duration string
}

// ParticleCount is how many particles a page render gets.
const ParticleCount = 20

// Particles lays out n particles at random positions.
func Particles(n int, rng *rand.Rand) []Particle {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	out := make([]Particle, n)
	for i := range out {
		out[i] = Particle{
			Left:     fmt.Sprintf("%.2f%%", rng.Float64()*100),
			Top:      fmt.Sprintf("%.2f%%", rng.Float64()*100),
			Width:    fmt.Sprintf("%.2fpx", rng.Float64()*4+2),
			Height:   fmt.Sprintf("%.2fpx", rng.Float64()*4+2),
			Delay:    fmt.Sprintf("%.2fs", rng.Float64()*15),
			Duration: fmt.Sprintf("%.2fs", rng.Float64()*10+10),
		}
	}
	return out
}
