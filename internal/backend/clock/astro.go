package clock

import (
	"math"
	"time"
)

// synodicMonth is the mean length of a lunation in days.
const synodicMonth = 29.530588853

// refNewMoon is a well-known new moon instant used as the lunation epoch.
var refNewMoon = time.Date(2000, time.January, 6, 18, 14, 0, 0, time.UTC)

// phase describes the moon's appearance on a given date.
type phase struct {
	// Name is the common phase name ("Waxing Gibbous", ...).
	Name string

	// Illumination is the lit fraction of the disc in percent.
	Illumination float64

	// NextFull and PrevFull are the surrounding full moon dates.
	NextFull time.Time
	PrevFull time.Time
}

// moonPhase computes the moon phase for date using the mean synodic cycle.
// Accuracy is within a day of a proper ephemeris, which is plenty for a
// conversational answer.
func moonPhase(date time.Time) phase {
	days := date.Sub(refNewMoon).Hours() / 24
	age := math.Mod(days, synodicMonth)
	if age < 0 {
		age += synodicMonth
	}

	illum := (1 - math.Cos(2*math.Pi*age/synodicMonth)) / 2 * 100

	const fullAge = synodicMonth / 2
	var untilFull float64
	if age <= fullAge {
		untilFull = fullAge - age
	} else {
		untilFull = synodicMonth - age + fullAge
	}
	next := date.Add(time.Duration(untilFull * 24 * float64(time.Hour)))
	prev := next.Add(-time.Duration(synodicMonth * 24 * float64(time.Hour)))

	return phase{
		Name:         phaseName(age),
		Illumination: illum,
		NextFull:     next,
		PrevFull:     prev,
	}
}

// phaseName maps a lunation age in days to the common eight-phase name.
func phaseName(age float64) string {
	switch {
	case age < 1.0:
		return "New Moon"
	case age < 6.38:
		return "Waxing Crescent"
	case age < 8.38:
		return "First Quarter"
	case age < 13.77:
		return "Waxing Gibbous"
	case age < 15.77:
		return "Full Moon"
	case age < 21.15:
		return "Waning Gibbous"
	case age < 23.15:
		return "Last Quarter"
	case age < 28.53:
		return "Waning Crescent"
	default:
		return "New Moon"
	}
}

// sunTimes computes sunrise and sunset (UTC) for the given date and
// coordinates using the NOAA sunrise-equation approximation. ok is false
// during polar day or polar night.
func sunTimes(date time.Time, lat, lon float64) (rise, set time.Time, ok bool) {
	riseUT, okRise := solarEventUT(date, lat, lon, true)
	setUT, okSet := solarEventUT(date, lat, lon, false)
	if !okRise || !okSet {
		return time.Time{}, time.Time{}, false
	}

	midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	rise = midnight.Add(time.Duration(riseUT * float64(time.Hour)))
	set = midnight.Add(time.Duration(setUT * float64(time.Hour)))
	return rise, set, true
}

// solarEventUT returns the UT hour of sunrise (rising=true) or sunset on the
// given date at lat/lon. The zenith includes standard atmospheric refraction.
func solarEventUT(date time.Time, lat, lon float64, rising bool) (float64, bool) {
	const (
		zenith  = 90.833 // official sunrise/sunset zenith in degrees
		deg2rad = math.Pi / 180
		rad2deg = 180 / math.Pi
	)

	n := float64(date.YearDay())
	lngHour := lon / 15

	var t float64
	if rising {
		t = n + (6-lngHour)/24
	} else {
		t = n + (18-lngHour)/24
	}

	// Sun's mean anomaly and true longitude.
	m := 0.9856*t - 3.289
	l := m + 1.916*math.Sin(m*deg2rad) + 0.020*math.Sin(2*m*deg2rad) + 282.634
	l = math.Mod(l+360, 360)

	// Right ascension, adjusted into the same quadrant as l.
	ra := rad2deg * math.Atan(0.91764*math.Tan(l*deg2rad))
	ra = math.Mod(ra+360, 360)
	lQuadrant := math.Floor(l/90) * 90
	raQuadrant := math.Floor(ra/90) * 90
	ra += lQuadrant - raQuadrant
	ra /= 15

	// Declination and local hour angle.
	sinDec := 0.39782 * math.Sin(l*deg2rad)
	cosDec := math.Cos(math.Asin(sinDec))

	cosH := (math.Cos(zenith*deg2rad) - sinDec*math.Sin(lat*deg2rad)) /
		(cosDec * math.Cos(lat*deg2rad))
	if cosH > 1 || cosH < -1 {
		return 0, false
	}

	var h float64
	if rising {
		h = 360 - rad2deg*math.Acos(cosH)
	} else {
		h = rad2deg * math.Acos(cosH)
	}
	h /= 15

	// Local mean time → UT.
	localT := h + ra - 0.06571*t - 6.622
	ut := math.Mod(localT-lngHour+48, 24)
	return ut, true
}
