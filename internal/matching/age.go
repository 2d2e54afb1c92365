package matching

import (
	"math"
	"time"
)

// Age returns completed years between birth and now, counting a birthday
// only once its month and day have been reached.
func Age(birth, now time.Time) int {
	birth, now = birth.UTC(), now.UTC()
	years := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		years--
	}
	return years
}

// BirthBounds converts age bounds into a birth-date window for the given day.
// onOrAfter is inclusive, before exclusive; nil means that side is open.
//
//	age >= min  ⇔  birth <  today - min years + 1 day
//	age <= max  ⇔  birth >= today - (max+1) years + 1 day
func BirthBounds(minAge, maxAge *int, now time.Time) (onOrAfter, before *time.Time) {
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	if minAge != nil {
		t := today.AddDate(-*minAge, 0, 1)
		before = &t
	}
	if maxAge != nil {
		t := today.AddDate(-(*maxAge + 1), 0, 1)
		onOrAfter = &t
	}
	return onOrAfter, before
}

const earthRadiusKm = 6371.0

// DistanceKm is the great-circle (haversine) distance between two points.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLng := (lng2 - lng1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}
