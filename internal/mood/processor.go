// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package mood

import (
	"time"

	"github.com/parkwise/signage/internal/models"
)

// Day periods derived from the local hour.
const (
	PeriodDawn       = "dawn"
	PeriodMorning    = "morning"
	PeriodMidday     = "midday"
	PeriodAfternoon  = "afternoon"
	PeriodGoldenHour = "golden_hour"
	PeriodEvening    = "evening"
	PeriodNight      = "night"
)

// Seasons derived from the month.
const (
	SeasonSpring = "spring"
	SeasonSummer = "summer"
	SeasonAutumn = "autumn"
	SeasonWinter = "winter"
)

// PeriodOf maps a local hour (0..23) onto its day period.
func PeriodOf(hour int) string {
	switch {
	case hour >= 5 && hour < 7:
		return PeriodDawn
	case hour >= 7 && hour < 11:
		return PeriodMorning
	case hour >= 11 && hour < 14:
		return PeriodMidday
	case hour >= 14 && hour < 17:
		return PeriodAfternoon
	case hour >= 17 && hour < 19:
		return PeriodGoldenHour
	case hour >= 19 && hour < 22:
		return PeriodEvening
	default:
		return PeriodNight
	}
}

// SeasonOf maps a month onto its meteorological season.
func SeasonOf(month time.Month) string {
	switch month {
	case time.March, time.April, time.May:
		return SeasonSpring
	case time.June, time.July, time.August:
		return SeasonSummer
	case time.September, time.October, time.November:
		return SeasonAutumn
	default:
		return SeasonWinter
	}
}

// ComputeTarget derives the target vector for one location's signal bag.
// The day period rebases the default vector, every other signal stacks
// additive contributions on top, and the security override is applied
// last so an incident wins over everything. Components clamp to [0,1].
//
// Absent signals (nil pointers) contribute nothing, so a location with
// only a clock reading still gets a sensible target.
func ComputeTarget(sig models.Signals) models.MoodVector {
	v := models.DefaultMoodVector()

	period := sig.Period
	if period == "" && sig.LocalHour != nil {
		period = PeriodOf(*sig.LocalHour)
	}
	applyPeriodBaseline(&v, period)
	applySeason(&v, sig.Season)

	if sig.IsWeekend != nil && *sig.IsWeekend {
		v.Formality -= 0.15
		v.Energy -= 0.05
	}

	applyWeather(&v, sig)
	applyAudio(&v, sig)
	applyOccupancy(&v, sig)
	applyPeopleCount(&v, sig)
	applySecurity(&v, sig)

	clampVector(&v)
	return v
}

// applyPeriodBaseline rebases the components that track the day's arc.
// Unlisted components keep their defaults for the additive phase.
func applyPeriodBaseline(v *models.MoodVector, period string) {
	switch period {
	case PeriodDawn:
		v.Energy = 0.30
		v.Brightness = 0.35
		v.Tempo = 0.30
		v.Warmth = 0.60
	case PeriodMorning:
		v.Energy = 0.65
		v.Brightness = 0.70
		v.Tempo = 0.60
		v.Formality = 0.60
	case PeriodMidday:
		v.Energy = 0.70
		v.Brightness = 0.80
		v.Tempo = 0.65
	case PeriodAfternoon:
		v.Energy = 0.60
		v.Brightness = 0.70
		v.Tempo = 0.55
	case PeriodGoldenHour:
		v.Energy = 0.55
		v.Brightness = 0.55
		v.Tempo = 0.50
		v.Warmth = 0.75
	case PeriodEvening:
		v.Energy = 0.40
		v.Brightness = 0.35
		v.Tempo = 0.40
		v.Warmth = 0.65
	case PeriodNight:
		v.Energy = 0.15
		v.Brightness = 0.15
		v.Tempo = 0.15
	}
}

func applySeason(v *models.MoodVector, season string) {
	switch season {
	case SeasonSummer:
		v.Warmth += 0.05
	case SeasonWinter:
		v.Warmth -= 0.05
	}
}

func applyWeather(v *models.MoodVector, sig models.Signals) {
	switch sig.Condition {
	case "clear", "sunny":
		v.Brightness += 0.15
		v.Energy += 0.10
	case "clouds", "cloudy", "overcast":
		v.Brightness -= 0.10
	case "rain", "drizzle":
		v.Brightness -= 0.15
		v.Warmth += 0.05
		v.Density += 0.05
		v.Tempo -= 0.05
	case "snow":
		v.Brightness += 0.05
		v.Warmth += 0.10
		v.Tempo -= 0.10
	case "storm", "thunderstorm":
		v.Brightness -= 0.20
		v.Urgency += 0.10
		v.Density += 0.05
	}

	if sig.TemperatureC == nil {
		return
	}
	switch t := *sig.TemperatureC; {
	case t > 25:
		if v.Warmth < 0.9 {
			v.Warmth = 0.9
		}
		v.Energy -= 0.15
	case t < 5:
		v.Warmth += 0.15
	}
}

func applyAudio(v *models.MoodVector, sig models.Signals) {
	if sig.AudioLevel != nil {
		v.Energy += *sig.AudioLevel * 0.3
	}
	if sig.SpikeFrequency != nil {
		v.Tempo += *sig.SpikeFrequency * 0.3
	}
	if sig.SustainedLoud {
		v.Density += 0.15
	}
}

func applyOccupancy(v *models.MoodVector, sig models.Signals) {
	if sig.OccupancyRatio == nil {
		return
	}
	switch ratio := *sig.OccupancyRatio; {
	case ratio < 0.2:
		v.Density -= 0.15
	case ratio > 0.9:
		v.Density += 0.20
		v.Formality += 0.10
		v.Urgency += 0.20
	case ratio > 0.7:
		v.Density += 0.20
		v.Formality += 0.10
	}
}

func applyPeopleCount(v *models.MoodVector, sig models.Signals) {
	if sig.PeopleCount == nil {
		return
	}
	n := float64(*sig.PeopleCount) / 20.0
	if n > 1 {
		n = 1
	}
	if n < 0 {
		n = 0
	}
	v.Density += 0.15 * n
	v.Energy += 0.10 * n
}

// applySecurity is the staged override. Level 1 raises urgency; levels
// 2 and 3 pin the ambience to emergency values so screens cut over to
// high-visibility rendering regardless of every other signal.
func applySecurity(v *models.MoodVector, sig models.Signals) {
	if sig.SecurityLevel == nil {
		return
	}
	switch {
	case *sig.SecurityLevel >= 3:
		v.Urgency = 1.0
		v.Warmth = 0.0
		v.Brightness = 1.0
		v.Energy = 1.0
		v.Tempo = 1.0
		v.Formality = 1.0
	case *sig.SecurityLevel == 2:
		v.Urgency = 0.7
		v.Warmth = 0.2
		v.Brightness = 0.9
		v.Energy = 0.8
		v.Tempo = 0.8
		v.Formality = 0.9
	case *sig.SecurityLevel == 1:
		v.Urgency += 0.25
	}
}

// lerpSpeeds is the per-component approach rate for one interpolation
// step. Warmth drifts; urgency snaps.
var lerpSpeeds = models.MoodVector{
	Energy:     0.12,
	Warmth:     0.03,
	Urgency:    0.30,
	Density:    0.10,
	Tempo:      0.15,
	Brightness: 0.08,
	Formality:  0.05,
}

// Lerp moves current one interpolation step toward target. Every
// component converges monotonically; a step factor inside (0,1] cannot
// overshoot, so screens never see a discontinuity even when the target
// jumps.
func Lerp(current, target models.MoodVector) models.MoodVector {
	return models.MoodVector{
		Energy:     step(current.Energy, target.Energy, lerpSpeeds.Energy),
		Warmth:     step(current.Warmth, target.Warmth, lerpSpeeds.Warmth),
		Urgency:    step(current.Urgency, target.Urgency, lerpSpeeds.Urgency),
		Density:    step(current.Density, target.Density, lerpSpeeds.Density),
		Tempo:      step(current.Tempo, target.Tempo, lerpSpeeds.Tempo),
		Brightness: step(current.Brightness, target.Brightness, lerpSpeeds.Brightness),
		Formality:  step(current.Formality, target.Formality, lerpSpeeds.Formality),
	}
}

func step(cur, tgt, speed float64) float64 {
	return cur + (tgt-cur)*speed
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func clampVector(v *models.MoodVector) {
	v.Energy = clamp01(v.Energy)
	v.Warmth = clamp01(v.Warmth)
	v.Urgency = clamp01(v.Urgency)
	v.Density = clamp01(v.Density)
	v.Tempo = clamp01(v.Tempo)
	v.Brightness = clamp01(v.Brightness)
	v.Formality = clamp01(v.Formality)
}
