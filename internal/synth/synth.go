// Package synth generates synthetic specular meteor echoes over a known wind
// field, for exercising the sweep without radar data.
package synth

import (
	"math"
	"math/rand/v2"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/couchcryptid/meteor-ke-sweep/internal/domain"
)

// Config describes the wind field and echo geometry.
type Config struct {
	Wind         [3]float64 // mean (east, north, up), m/s
	Gust         [3]float64 // std dev of an hourly wind perturbation, m/s
	Noise        float64    // std dev of per-echo Doppler noise, m/s
	PerHour      int        // echoes per hour
	HeightMean   float64    // km
	HeightSpread float64    // km
	MinZenith    float64    // degrees
	MaxZenith    float64    // degrees
	Seed         uint64
}

// DefaultConfig is a mid-latitude summer mesosphere with a modest echo rate.
func DefaultConfig() Config {
	return Config{
		Wind:         [3]float64{10, -5, 0},
		Gust:         [3]float64{15, 15, 1},
		Noise:        2,
		PerHour:      40,
		HeightMean:   90,
		HeightSpread: 7,
		MinZenith:    25,
		MaxZenith:    65,
		Seed:         1,
	}
}

// Generator draws echoes day by day from one random stream.
type Generator struct {
	cfg    Config
	rng    *rand.Rand
	height distuv.Normal
	noise  distuv.Normal
	gust   [3]distuv.Normal
}

func NewGenerator(cfg Config) *Generator {
	src := rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)
	g := &Generator{
		cfg:    cfg,
		rng:    rand.New(src),
		height: distuv.Normal{Mu: cfg.HeightMean, Sigma: cfg.HeightSpread, Src: src},
		noise:  distuv.Normal{Mu: 0, Sigma: cfg.Noise, Src: src},
	}
	for i := range g.gust {
		g.gust[i] = distuv.Normal{Mu: 0, Sigma: cfg.Gust[i], Src: src}
	}
	return g
}

// Day returns the echoes of the UTC day containing day, sorted by time. All
// echoes of one hour share the same wind perturbation.
func (g *Generator) Day(day time.Time) []domain.Measurement {
	midnight := day.UTC().Truncate(24 * time.Hour)
	ms := make([]domain.Measurement, 0, 24*g.cfg.PerHour)

	for hour := 0; hour < 24; hour++ {
		var wind [3]float64
		for i := range wind {
			wind[i] = g.cfg.Wind[i] + g.sample(g.gust[i])
		}
		base := midnight.Add(time.Duration(hour) * time.Hour)
		for n := 0; n < g.cfg.PerHour; n++ {
			at := base.Add(time.Duration(g.rng.Int64N(int64(time.Hour))))
			ms = append(ms, g.echo(at, wind))
		}
	}
	sort.Slice(ms, func(i, j int) bool { return ms[i].T < ms[j].T })
	return ms
}

func (g *Generator) echo(at time.Time, wind [3]float64) domain.Measurement {
	h := math.Max(70, math.Min(110, g.sample(g.height)))
	azimuth := 2 * math.Pi * g.rng.Float64()
	zenith := (g.cfg.MinZenith + (g.cfg.MaxZenith-g.cfg.MinZenith)*g.rng.Float64()) * math.Pi / 180

	k := [3]float64{
		math.Sin(zenith) * math.Cos(azimuth),
		math.Sin(zenith) * math.Sin(azimuth),
		math.Cos(zenith),
	}
	ground := h * math.Tan(zenith)
	return domain.Measurement{
		T:     float64(at.UnixNano()) / 1e9,
		East:  ground * math.Cos(azimuth),
		North: ground * math.Sin(azimuth),
		Up:    h,
		K:     k,
		V:     k[0]*wind[0] + k[1]*wind[1] + k[2]*wind[2] + g.sample(g.noise),
	}
}

// sample returns zero for a zero-width distribution.
func (g *Generator) sample(d distuv.Normal) float64 {
	if d.Sigma == 0 {
		return d.Mu
	}
	return d.Rand()
}
