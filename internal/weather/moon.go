package weather

import (
	"math"
	"time"
)

// MoonPhase describes the moon on a calendar date: the display name and
// icon of the nearest of eight phases, plus the age of the moon in days
// since the last new moon (0 to ~28).
type MoonPhase struct {
	Name    string
	Icon    string
	AgeDays float64
}

var moonPhases = [8]struct {
	name string
	icon string
}{
	{"New Moon", "\U0001f311"},
	{"Waxing Crescent", "\U0001f312"},
	{"First Quarter", "\U0001f313"},
	{"Waxing Gibbous", "\U0001f314"},
	{"Full Moon", "\U0001f315"},
	{"Waning Gibbous", "\U0001f316"},
	{"Last Quarter", "\U0001f317"},
	{"Waning Crescent", "\U0001f318"},
}

// MoonPhaseOn returns the moon phase for the calendar date of t. Only the
// date component matters; the time of day is ignored.
func MoonPhaseOn(t time.Time) MoonPhase {
	age := lunarAge(t)
	idx := int(age/28*8+0.5) % 8
	return MoonPhase{
		Name:    moonPhases[idx].name,
		Icon:    moonPhases[idx].icon,
		AgeDays: math.Round(age*10) / 10,
	}
}

// lunarAge computes the age of the moon in days on a 0..28 scale from a
// truncated series for the moon's elongation. Accurate to well under a
// day, which is plenty for bucketing into eight phases.
func lunarAge(t time.Time) float64 {
	jd := julianDay(t)
	dt := math.Pow(jd-2382148, 2) / (41048480 * 86400)
	tc := (jd + dt - 2451545.0) / 36525
	tc2 := tc * tc
	tc3 := tc2 * tc

	// Mean elongation of the moon, sun mean anomaly, moon mean anomaly.
	d := properAngle(297.85 + 445267.1115*tc - 0.0016300*tc2 + tc3/545868)
	m := properAngle(357.53 + 35999.0503*tc)
	m1 := properAngle(134.96 + 477198.8676*tc + 0.0089970*tc2 + tc3/69699)

	elong := d + 6.29*sinDeg(m1)
	elong -= 2.10 * sinDeg(m)
	elong += 1.27 * sinDeg(2*d-m1)
	elong += 0.66 * sinDeg(2 * d)
	elong = math.Round(properAngle(elong))

	age := (elong + 6.43) / 360 * 28
	if age >= 28 {
		age -= 28
	}
	return age
}

// julianDay returns the Julian day number at 0h UT for t's calendar date.
func julianDay(t time.Time) float64 {
	y, m, d := t.Year(), int(t.Month()), t.Day()
	if m <= 2 {
		y--
		m += 12
	}
	a := math.Floor(float64(y) / 100)
	b := 2 - a + math.Floor(a/4)
	return math.Floor(365.25*float64(y+4716)) + math.Floor(30.6001*float64(m+1)) + float64(d) + b - 1524.5
}

func properAngle(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

func sinDeg(deg float64) float64 {
	return math.Sin(deg * math.Pi / 180)
}
