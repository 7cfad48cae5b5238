package sim

import (
	"math"
	"math/rand"

	"github.com/synkti/fleetd/internal/domain"
)

// PriceGenerator synthesizes a spot-price trace with an Ornstein-Uhlenbeck
// mean-reverting process, a daily sinusoidal cycle, and a preemption
// probability that rises as price falls relative to on-demand.
//
// Directly grounded on original_source/spot_data.rs's SpotPriceGenerator:
// the dX = theta(mu - X)dt + sigma*dW update, the 20% volatility / 0.5
// reversion-speed constants, the 10%-amplitude daily sinusoid, and the
// [0.1, 0.95] x on-demand clamp are all carried over unchanged.
type PriceGenerator struct {
	meanPrice           float64
	volatility          float64
	meanReversionSpeed  float64
	currentPrice        float64
	onDemandPrice       float64
	basePreemptionRate  float64 // per hour
	rand                *rand.Rand
}

// NewPriceGenerator builds a generator seeded at meanPrice. rnd must be
// supplied by the caller (a *rand.Rand seeded explicitly) so simulation
// runs are reproducible, per the ordering invariant's concurrency note.
func NewPriceGenerator(meanPrice, onDemandPrice, basePreemptionRate float64, rnd *rand.Rand) *PriceGenerator {
	return &PriceGenerator{
		meanPrice:          meanPrice,
		volatility:         0.2,
		meanReversionSpeed: 0.5,
		currentPrice:       meanPrice,
		onDemandPrice:      onDemandPrice,
		basePreemptionRate: basePreemptionRate,
		rand:               rnd,
	}
}

// Generate produces a stochastic price trace over durationHours, sampled
// every sampleIntervalHours.
func (g *PriceGenerator) Generate(durationHours, sampleIntervalHours float64) []domain.SpotPriceSample {
	numSamples := int(math.Ceil(durationHours / sampleIntervalHours))
	prices := make([]domain.SpotPriceSample, 0, numSamples)

	for i := 0; i < numSamples; i++ {
		hour := float64(i) * sampleIntervalHours
		dt := sampleIntervalHours
		dw := g.rand.NormFloat64() * math.Sqrt(dt)

		meanReversion := g.meanReversionSpeed * (g.meanPrice - g.currentPrice)
		diffusion := g.volatility * dw
		g.currentPrice += meanReversion*dt + diffusion

		dailyFactor := 1 + 0.1*math.Sin(2*math.Pi*hour/24)
		price := g.currentPrice * dailyFactor

		lo, hi := g.onDemandPrice*0.1, g.onDemandPrice*0.95
		if price < lo {
			price = lo
		}
		if price > hi {
			price = hi
		}

		ratio := price / g.onDemandPrice
		multiplier := 1 - ratio
		if multiplier < 0.1 {
			multiplier = 0.1
		}
		preemptProb := g.basePreemptionRate * multiplier * dt

		prices = append(prices, domain.SpotPriceSample{
			Time:        hoursToTime(hour),
			Price:       price,
			Probability: preemptProb,
		})
	}
	return prices
}

// GenerateSimple produces a flat, deterministic trace — one sample per
// hour at a constant price and preemption probability. Used by tests that
// need a trace without the stochastic generator's seed dependency.
func GenerateSimple(durationHours, price, preemptionRate float64) []domain.SpotPriceSample {
	n := int(durationHours)
	out := make([]domain.SpotPriceSample, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.SpotPriceSample{
			Time:        hoursToTime(float64(i)),
			Price:       price,
			Probability: preemptionRate,
		})
	}
	return out
}
