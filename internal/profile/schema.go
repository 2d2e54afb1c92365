// Package profile is the boundary between loosely-typed client profile
// attributes and the strict user schema. Values are converted once here, on
// the way in; reads go through the typed db.User model.
package profile

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/unimeet/match-core/internal/db"
	svcErr "github.com/unimeet/match-core/internal/errors"
)

// Location is a lat/long pair in degrees.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Update is a validated partial profile change. Nil fields are left untouched.
type Update struct {
	Name            *string
	BirthDate       *time.Time
	Gender          *string
	ConnectionTypes *[]string
	PreferredMatch  *[]string
	Image           *string
	Active          *bool

	// Location is applied when SetLocation is true; a nil Location clears it.
	SetLocation bool
	Location    *Location
}

var aliases = map[string]string{
	"connectionTypes": "connection_types",
	"preferredMatch":  "preferred_match",
	"birthDate":       "birth_date",
}

// ParseAttributes validates raw client attributes into an Update.
// Unknown keys are rejected so typos never silently drop data.
func ParseAttributes(raw map[string]any) (Update, error) {
	var u Update
	if len(raw) == 0 {
		return u, fmt.Errorf("%w: no attributes given", svcErr.ErrInvalidArgument)
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		v := raw[key]
		name := key
		if a, ok := aliases[key]; ok {
			name = a
		}

		var err error
		switch name {
		case "name":
			var s string
			if s, err = String(v); err == nil {
				s = strings.TrimSpace(s)
				if s == "" {
					err = fmt.Errorf("must not be empty")
				}
				u.Name = &s
			}
		case "birth_date":
			u.BirthDate, err = Date(v)
		case "gender":
			var s string
			if s, err = String(v); err == nil {
				s = strings.ToLower(strings.TrimSpace(s))
				u.Gender = &s
			}
		case "connection_types":
			var list []string
			if list, err = StringList(v); err == nil {
				u.ConnectionTypes = &list
			}
		case "preferred_match":
			var list []string
			if list, err = StringList(v); err == nil {
				u.PreferredMatch = &list
			}
		case "image":
			var s string
			if s, err = String(v); err == nil {
				s = strings.TrimSpace(s)
				u.Image = &s
			}
		case "active":
			var b bool
			if b, err = Bool(v); err == nil {
				u.Active = &b
			}
		case "location":
			u.SetLocation = true
			u.Location, err = ParseLocation(v)
		default:
			err = fmt.Errorf("unknown attribute")
		}
		if err != nil {
			return Update{}, fmt.Errorf("%w: %s: %v", svcErr.ErrInvalidArgument, key, err)
		}
	}
	return u, nil
}

// Columns returns the column/value map for gorm's Updates.
func (u Update) Columns() map[string]any {
	cols := map[string]any{}
	if u.Name != nil {
		cols["name"] = *u.Name
	}
	if u.BirthDate != nil {
		cols["birth_date"] = *u.BirthDate
	}
	if u.Gender != nil {
		cols["gender"] = *u.Gender
	}
	if u.ConnectionTypes != nil {
		cols["connection_types"] = datatypes.JSONSlice[string](*u.ConnectionTypes)
	}
	if u.PreferredMatch != nil {
		cols["preferred_match"] = datatypes.JSONSlice[string](*u.PreferredMatch)
	}
	if u.Image != nil {
		cols["image"] = *u.Image
	}
	if u.Active != nil {
		cols["active"] = *u.Active
	}
	if u.SetLocation {
		if u.Location == nil {
			cols["latitude"] = nil
			cols["longitude"] = nil
		} else {
			cols["latitude"] = u.Location.Lat
			cols["longitude"] = u.Location.Lng
		}
	}
	return cols
}

// NewUser builds the first row of a profile from u. Active defaults to true.
func (u Update) NewUser(id string) *db.User {
	user := &db.User{
		ID:              id,
		Active:          true,
		ConnectionTypes: datatypes.JSONSlice[string]{},
		PreferredMatch:  datatypes.JSONSlice[string]{},
	}
	if u.Name != nil {
		user.Name = *u.Name
	}
	user.BirthDate = u.BirthDate
	if u.Gender != nil {
		user.Gender = *u.Gender
	}
	if u.ConnectionTypes != nil {
		user.ConnectionTypes = *u.ConnectionTypes
	}
	if u.PreferredMatch != nil {
		user.PreferredMatch = *u.PreferredMatch
	}
	if u.Image != nil {
		user.Image = *u.Image
	}
	if u.Active != nil {
		user.Active = *u.Active
	}
	if u.Location != nil {
		user.Latitude, user.Longitude = &u.Location.Lat, &u.Location.Lng
	}
	return user
}

// String accepts a JSON string; numbers are not coerced.
func String(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("expected string, got %T", v)
	}
	return s, nil
}

// StringList accepts a native list, a JSON-encoded list or a comma-separated
// string, and returns a lowercase, trimmed, de-duplicated list in input order.
// nil and "" yield an empty list.
func StringList(v any) ([]string, error) {
	var items []string
	switch t := v.(type) {
	case nil:
	case []string:
		items = t
	case []any:
		for _, e := range t {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("list element %v is %T, want string", e, e)
			}
			items = append(items, s)
		}
	case string:
		s := strings.TrimSpace(t)
		if strings.HasPrefix(s, "[") {
			if err := json.Unmarshal([]byte(s), &items); err != nil {
				return nil, fmt.Errorf("invalid JSON list: %v", err)
			}
		} else if s != "" {
			items = strings.Split(s, ",")
		}
	default:
		return nil, fmt.Errorf("expected list, got %T", v)
	}
	return NormalizeList(items), nil
}

// NormalizeList lowercases, trims and de-duplicates values, dropping empties.
func NormalizeList(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		s := strings.ToLower(strings.TrimSpace(it))
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Bool accepts a JSON boolean or the literal strings "true"/"false" (any case).
func Bool(v any) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		b, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(t)))
		if err != nil {
			return false, fmt.Errorf("invalid boolean %q", t)
		}
		return b, nil
	}
	return false, fmt.Errorf("expected boolean, got %T", v)
}

// Date accepts "YYYY-MM-DD" or RFC3339 and returns midnight UTC of that day.
// nil is rejected: a birth date cannot be unset.
func Date(v any) (*time.Time, error) {
	s, err := String(v)
	if err != nil {
		return nil, err
	}
	s = strings.TrimSpace(s)

	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		if t, err = time.Parse(time.RFC3339, s); err != nil {
			return nil, fmt.Errorf("invalid date %q", s)
		}
	}
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &day, nil
}

// ParseLocation accepts {"lat":..,"lng":..}, "lat,lng" or nil (clears).
func ParseLocation(v any) (*Location, error) {
	var loc Location
	switch t := v.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		lat, ok1 := number(t["lat"])
		lng, ok2 := number(t["lng"])
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("location needs numeric lat and lng")
		}
		loc = Location{Lat: lat, Lng: lng}
	case string:
		parts := strings.Split(t, ",")
		if len(parts) != 2 {
			return nil, fmt.Errorf("location must be \"lat,lng\"")
		}
		lat, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		lng, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("location must be \"lat,lng\"")
		}
		loc = Location{Lat: lat, Lng: lng}
	default:
		return nil, fmt.Errorf("expected location, got %T", v)
	}

	for _, f := range []float64{loc.Lat, loc.Lng} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("location must be finite")
		}
	}
	if math.Abs(loc.Lat) > 90 || math.Abs(loc.Lng) > 180 {
		return nil, fmt.Errorf("location out of range")
	}
	return &loc, nil
}

func number(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	}
	return 0, false
}
