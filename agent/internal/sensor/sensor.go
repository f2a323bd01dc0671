package sensor

import (
	"math"
	"math/rand"
	"time"
)

// Baseline curves for the synthetic readings. Temperature and humidity
// drift over a 24h cycle in opposite phase; light follows a daylight curve
// that is zero at night.
const (
	tempBase  = 21.0
	tempSwing = 4.0
	humiBase  = 45.0
	humiSwing = 15.0
	lightPeak = 800.0

	tempJitter  = 0.3
	humiJitter  = 1.5
	lightJitter = 25.0
)

// Sampler produces synthetic ESP32-style readings. It stands in for the
// device firmware during development and demos, emitting payloads under the
// same field names the firmware uses ({valueA, valueB, valueC}).
//
// A Sampler is not safe for concurrent use; the agent samples from a single
// ticker loop.
type Sampler struct {
	rng *rand.Rand
}

// New returns a Sampler. A non-zero seed makes the jitter deterministic;
// zero seeds from the wall clock.
func New(seed int64) *Sampler {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Sampler{rng: rand.New(rand.NewSource(seed))} //nolint:gosec // not crypto
}

// Sample returns one reading payload for the given instant, ready to POST
// to the server's ingestion endpoint.
func (s *Sampler) Sample(now time.Time) map[string]any {
	dayFrac := dayFraction(now)

	// Warmest mid-afternoon, coldest before dawn.
	phase := 2 * math.Pi * (dayFrac - 0.625)
	temp := tempBase + tempSwing*math.Sin(phase) + s.jitter(tempJitter)

	// Humidity runs against temperature.
	humi := humiBase - humiSwing*math.Sin(phase) + s.jitter(humiJitter)
	humi = clamp(humi, 0, 100)

	light := lightPeak*daylight(dayFrac) + s.jitter(lightJitter)
	light = math.Max(light, 0)

	return map[string]any{
		"valueA": round1(temp),
		"valueB": round1(humi),
		"valueC": math.Round(light),
	}
}

// dayFraction maps now to [0, 1) across the local day.
func dayFraction(now time.Time) float64 {
	h, m, sec := now.Clock()
	return (float64(h) + float64(m)/60 + float64(sec)/3600) / 24
}

// daylight is 0 at night and peaks at solar noon, roughly 06:00–18:00.
func daylight(dayFrac float64) float64 {
	v := math.Sin(math.Pi * (dayFrac*24 - 6) / 12)
	return math.Max(v, 0)
}

func (s *Sampler) jitter(scale float64) float64 {
	return (s.rng.Float64()*2 - 1) * scale
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
