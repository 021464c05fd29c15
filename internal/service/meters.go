package service

import (
	"math/rand/v2"

	"blackscar-server/internal/models"
)

// DeltaSource returns one meter delta per call.
type DeltaSource func() float64

// UniformDelta draws a delta uniformly from [-MeterMaxDelta, +MeterMaxDelta).
func UniformDelta() float64 {
	return rand.Float64()*2*models.MeterMaxDelta - models.MeterMaxDelta
}

// ClampMeter bounds a meter value to [MeterMin, MeterMax].
func ClampMeter(v float64) float64 {
	return max(models.MeterMin, min(models.MeterMax, v))
}

// perturbMeters applies an independent delta to each meter and clamps the result.
func perturbMeters(state *models.GameState, delta DeltaSource) {
	state.Power = ClampMeter(state.Power + delta())
	state.Morale = ClampMeter(state.Morale + delta())
}
