// Package coords reads user-supplied coordinates and places them on the
// planar grid used by scenes.
//
// Accepted inputs:
//   - MGRS, e.g. "31UDQ4825111932"
//   - degrees minutes seconds, e.g. "48°51'24"N 2°21'8"E"
//   - decimal degrees, e.g. "48.8566, 2.3522"
package coords

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/akhenakh/mgrs"

	"github.com/NERVsystems/osmscene/pkg/geo"
)

// Format is the notation an input was written in
type Format int

const (
	FormatUnknown Format = iota
	FormatDecimal
	FormatDMS
	FormatMGRS
)

// String returns the format name
func (f Format) String() string {
	switch f {
	case FormatDecimal:
		return "decimal"
	case FormatDMS:
		return "dms"
	case FormatMGRS:
		return "mgrs"
	default:
		return "unknown"
	}
}

// ErrUnrecognized is returned when no notation matches the input.
var ErrUnrecognized = errors.New("unrecognized coordinate format")

var (
	mgrsPattern    = regexp.MustCompile(`(?i)^(\d{1,2})([C-HJ-NP-X])([A-HJ-NP-Z]{2})(\d{2,10})$`)
	dmsPattern     = regexp.MustCompile(`(?i)^(\d+)[°d\s]+(\d+)[′'m\s]+(\d+(?:\.\d+)?)[″"s]?\s*([NS])[\s,]+(\d+)[°d\s]+(\d+)[′'m\s]+(\d+(?:\.\d+)?)[″"s]?\s*([EW])$`)
	decimalPattern = regexp.MustCompile(`^(-?\d+(?:\.\d+)?)[,\s]+(-?\d+(?:\.\d+)?)$`)
)

// Position is a resolved coordinate.
type Position struct {
	Input    string       `json:"input"`
	Format   string       `json:"format"`
	Location geo.Location `json:"location"`
	MGRS     string       `json:"mgrs,omitempty"`
	Point    geo.Point    `json:"point"`
	Zoom     int          `json:"zoom"`
}

// Detect returns the notation of input without converting it.
func Detect(input string) Format {
	input = strings.TrimSpace(input)
	switch {
	case mgrsPattern.MatchString(input):
		return FormatMGRS
	case dmsPattern.MatchString(input):
		return FormatDMS
	case decimalPattern.MatchString(input):
		return FormatDecimal
	default:
		return FormatUnknown
	}
}

// Parse converts input to a WGS84 location.
func Parse(input string) (geo.Location, Format, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return geo.Location{}, FormatUnknown, fmt.Errorf("empty coordinate: %w", ErrUnrecognized)
	}

	var (
		loc geo.Location
		err error
	)
	format := Detect(input)
	switch format {
	case FormatMGRS:
		loc, err = parseMGRS(input)
	case FormatDMS:
		loc, err = parseDMS(input)
	case FormatDecimal:
		loc, err = parseDecimal(input)
	default:
		return geo.Location{}, FormatUnknown, fmt.Errorf("%q: %w", input, ErrUnrecognized)
	}
	if err != nil {
		return geo.Location{}, format, err
	}
	return loc, format, nil
}

// Resolve parses input and projects it at zoom. The MGRS field is filled
// for any location MGRS can express.
func Resolve(input string, zoom int) (Position, error) {
	loc, format, err := Parse(input)
	if err != nil {
		return Position{}, err
	}

	pt := geo.ProjectLocation(loc, zoom)
	if !pt.IsSet() {
		return Position{}, fmt.Errorf("%s lies outside the projection at zoom %d", loc, zoom)
	}

	pos := Position{
		Input:    input,
		Format:   format.String(),
		Location: loc,
		Point:    pt,
		Zoom:     zoom,
	}
	if s, err := ToMGRS(loc, 5); err == nil {
		pos.MGRS = s
	}
	return pos, nil
}

// ToMGRS formats loc as MGRS. precision 1..5 selects 10km down to 1m;
// anything else means 1m.
func ToMGRS(loc geo.Location, precision int) (string, error) {
	if precision < 1 || precision > 5 {
		precision = 5
	}
	if err := checkRange(loc); err != nil {
		return "", err
	}
	s, err := mgrs.LatLngToMGRS(loc.Latitude, loc.Longitude, precision)
	if err != nil {
		return "", fmt.Errorf("MGRS conversion failed: %w", err)
	}
	return s, nil
}

func parseMGRS(input string) (geo.Location, error) {
	lat, lon, err := mgrs.MGRSToLatLng(strings.ToUpper(input))
	if err != nil {
		return geo.Location{}, fmt.Errorf("MGRS conversion failed: %w", err)
	}
	loc := geo.Location{Latitude: lat, Longitude: lon}
	return loc, checkRange(loc)
}

func parseDMS(input string) (geo.Location, error) {
	m := dmsPattern.FindStringSubmatch(input)

	lat, err := dmsValue(m[1], m[2], m[3], 90)
	if err != nil {
		return geo.Location{}, fmt.Errorf("latitude: %w", err)
	}
	lon, err := dmsValue(m[5], m[6], m[7], 180)
	if err != nil {
		return geo.Location{}, fmt.Errorf("longitude: %w", err)
	}
	if strings.EqualFold(m[4], "S") {
		lat = -lat
	}
	if strings.EqualFold(m[8], "W") {
		lon = -lon
	}
	return geo.Location{Latitude: lat, Longitude: lon}, nil
}

func dmsValue(deg, min, sec string, limit float64) (float64, error) {
	d, _ := strconv.ParseFloat(deg, 64)
	m, _ := strconv.ParseFloat(min, 64)
	s, _ := strconv.ParseFloat(sec, 64)
	if m >= 60 || s >= 60 {
		return 0, fmt.Errorf("minutes and seconds must be below 60")
	}
	v := d + m/60 + s/3600
	if v > limit {
		return 0, fmt.Errorf("%v exceeds %v", v, limit)
	}
	return v, nil
}

func parseDecimal(input string) (geo.Location, error) {
	m := decimalPattern.FindStringSubmatch(input)
	lat, _ := strconv.ParseFloat(m[1], 64)
	lon, _ := strconv.ParseFloat(m[2], 64)

	loc := geo.Location{Latitude: lat, Longitude: lon}
	return loc, checkRange(loc)
}

func checkRange(loc geo.Location) error {
	if loc.Latitude < -90 || loc.Latitude > 90 {
		return fmt.Errorf("latitude out of range: %f", loc.Latitude)
	}
	if loc.Longitude < -180 || loc.Longitude > 180 {
		return fmt.Errorf("longitude out of range: %f", loc.Longitude)
	}
	return nil
}
