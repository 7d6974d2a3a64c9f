package splat

import (
	"math"
	"math/rand"
)

// DefaultSeed keeps terrain texturing identical between runs and machines.
const DefaultSeed = 42

const (
	noiseSamples = 1024
	noiseMask    = noiseSamples - 1
	noiseOffset  = 0x1000
)

// Noise is a coherent 2D noise generator.
type Noise interface {
	Noise2(x, y float32) float32
	Turbulence2(x, y, freq float32) float32
}

// ZeroNoise returns 0 everywhere. Layer maps built with it depend only on height.
type ZeroNoise struct{}

// Noise2 returns 0.
func (ZeroNoise) Noise2(x, y float32) float32 { return 0 }

// Turbulence2 returns 0.
func (ZeroNoise) Turbulence2(x, y, freq float32) float32 { return 0 }

// Perlin is classic gradient noise over a seeded permutation table.
// It is read-only after construction and safe for concurrent use.
type Perlin struct {
	perm [noiseSamples*2 + 2]int
	grad [noiseSamples*2 + 2][2]float32
}

// NewPerlin builds the permutation and gradient tables from seed.
func NewPerlin(seed int64) *Perlin {
	rng := rand.New(rand.NewSource(seed))
	p := &Perlin{}

	for i := 0; i < noiseSamples; i++ {
		p.perm[i] = i
		for {
			gx := float32(rng.Intn(2*noiseSamples)-noiseSamples) / noiseSamples
			gy := float32(rng.Intn(2*noiseSamples)-noiseSamples) / noiseSamples
			l := float32(math.Sqrt(float64(gx*gx + gy*gy)))
			if l == 0 {
				continue
			}
			p.grad[i] = [2]float32{gx / l, gy / l}
			break
		}
	}

	for i := noiseSamples - 1; i > 0; i-- {
		j := rng.Intn(noiseSamples)
		p.perm[i], p.perm[j] = p.perm[j], p.perm[i]
	}

	for i := 0; i < noiseSamples+2; i++ {
		p.perm[noiseSamples+i] = p.perm[i]
		p.grad[noiseSamples+i] = p.grad[i]
	}
	return p
}

// Noise2 returns gradient noise at (x, y), roughly in [-0.7, 0.7].
func (p *Perlin) Noise2(x, y float32) float32 {
	bx0, bx1, rx0, rx1 := lattice(x)
	by0, by1, ry0, ry1 := lattice(y)

	i := p.perm[bx0]
	j := p.perm[bx1]

	b00 := p.perm[i+by0]
	b10 := p.perm[j+by0]
	b01 := p.perm[i+by1]
	b11 := p.perm[j+by1]

	sx := sCurve(rx0)
	sy := sCurve(ry0)

	u := rx0*p.grad[b00][0] + ry0*p.grad[b00][1]
	v := rx1*p.grad[b10][0] + ry0*p.grad[b10][1]
	a := lerp(u, v, sx)

	u = rx0*p.grad[b01][0] + ry1*p.grad[b01][1]
	v = rx1*p.grad[b11][0] + ry1*p.grad[b11][1]
	b := lerp(u, v, sx)

	return lerp(a, b, sy)
}

// Turbulence2 sums octaves of Noise2 from freq down to 1, halving each step,
// each octave weighted by 1/frequency.
func (p *Perlin) Turbulence2(x, y, freq float32) float32 {
	var t float32
	for ; freq >= 1; freq *= 0.5 {
		t += p.Noise2(freq*x, freq*y) / freq
	}
	return t
}

func lattice(v float32) (b0, b1 int, r0, r1 float32) {
	t := v + noiseOffset
	it := int(t)
	b0 = it & noiseMask
	b1 = (b0 + 1) & noiseMask
	r0 = t - float32(it)
	r1 = r0 - 1
	return b0, b1, r0, r1
}

func sCurve(t float32) float32 {
	return t * t * (3 - 2*t)
}

func lerp(a, b, t float32) float32 {
	return a + t*(b-a)
}
