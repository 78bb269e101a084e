package nmea

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Fix is the position report decoded from a GGA or RMC sentence. Optional
// values are nil when the receiver left the field blank.
type Fix struct {
	Sentence SentenceID `json:"sentence"`
	UTCTime  string     `json:"utc_time,omitempty"`
	Valid    bool       `json:"valid"`

	LatDeg *float64 `json:"lat_deg,omitempty"`
	LonDeg *float64 `json:"lon_deg,omitempty"`

	// GGA only.
	Quality    *int     `json:"quality,omitempty"`
	Satellites *int     `json:"satellites,omitempty"`
	HDOP       *float64 `json:"hdop,omitempty"`
	AltMeters  *float64 `json:"alt_m,omitempty"`

	// RMC only.
	GroundKt *float64 `json:"ground_kt,omitempty"`
	TrackDeg *float64 `json:"track_deg,omitempty"`
	Date     string   `json:"date,omitempty"`
}

// DecodeFix decodes the first complete id sentence in buf. Only GGA and RMC
// sentence types are accepted.
func DecodeFix(buf []byte, id SentenceID) (Fix, error) {
	switch id.Type() {
	case "GGA":
		return decodeGGA(buf, id)
	case "RMC":
		return decodeRMC(buf, id)
	default:
		return Fix{}, errors.Wrapf(ErrUnsupportedSentence, "nmea: no fix decoder for %s", id)
	}
}

// fields extracts indices 1..n of one sentence.
func fields(buf []byte, id SentenceID, n int) ([]string, error) {
	out := make([]string, n+1)
	for i := 1; i <= n; i++ {
		f, err := FieldString(buf, id, i)
		if err != nil {
			return nil, err
		}
		out[i] = strings.TrimSpace(f)
	}
	return out, nil
}

// GGA: 1 time, 2-3 lat, 4-5 lon, 6 quality, 7 sats, 8 hdop, 9 alt (m).
func decodeGGA(buf []byte, id SentenceID) (Fix, error) {
	f, err := fields(buf, id, 9)
	if err != nil {
		return Fix{}, err
	}
	fix := Fix{Sentence: id, UTCTime: f[1]}
	fix.LatDeg = latLonPtr(f[2], f[3])
	fix.LonDeg = latLonPtr(f[4], f[5])
	if q, err := strconv.Atoi(f[6]); err == nil {
		fix.Quality = &q
	}
	if n, err := strconv.Atoi(f[7]); err == nil {
		fix.Satellites = &n
	}
	fix.HDOP = floatPtr(f[8])
	fix.AltMeters = floatPtr(f[9])
	fix.Valid = fix.Quality != nil && *fix.Quality > 0 && fix.LatDeg != nil && fix.LonDeg != nil
	return fix, nil
}

// RMC: 1 time, 2 status, 3-4 lat, 5-6 lon, 7 speed (kt), 8 course, 9 date.
func decodeRMC(buf []byte, id SentenceID) (Fix, error) {
	f, err := fields(buf, id, 9)
	if err != nil {
		return Fix{}, err
	}
	fix := Fix{Sentence: id, UTCTime: f[1], Date: f[9]}
	fix.LatDeg = latLonPtr(f[3], f[4])
	fix.LonDeg = latLonPtr(f[5], f[6])
	fix.GroundKt = floatPtr(f[7])
	if trk := floatPtr(f[8]); trk != nil {
		v := math.Mod(*trk+360.0, 360.0)
		fix.TrackDeg = &v
	}
	fix.Valid = f[2] == "A" && fix.LatDeg != nil && fix.LonDeg != nil
	return fix, nil
}

func latLonPtr(v, hemi string) *float64 {
	d, ok := ParseLatLon(v, hemi)
	if !ok {
		return nil
	}
	return &d
}

func floatPtr(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
