package nmea

import "sort"

// SentenceID is a sentence identifier literal including the leading '$',
// for example "$GPGGA".
type SentenceID string

// Talker returns the two-letter talker prefix ("GP", "GN", ...).
func (id SentenceID) Talker() string {
	if len(id) < 3 {
		return ""
	}
	return string(id[1:3])
}

// Type returns the sentence type without the talker ("GGA", "RMC", ...).
func (id SentenceID) Type() string {
	if len(id) < 4 {
		return ""
	}
	return string(id[3:])
}

// Maximum field index per sentence type. Field 0 is the identifier.
//
//	GGA: time, lat, N/S, lon, E/W, quality, sats, hdop, alt, M, geoid, M, age, station
//	GLL: lat, N/S, lon, E/W, time, status, mode
//	RMC: time, status, lat, N/S, lon, E/W, speed, course, date, magvar, E/W, mode, nav status
//	VTG: course T, T, course M, M, speed N, N, speed K, K, mode
//	GSA: mode, fix, 12 x sv, pdop, hdop, vdop, system id
//	ZDA: time, day, month, year, zone hours, zone minutes
var typeFields = map[string]int{
	"GGA": 14,
	"GLL": 7,
	"RMC": 13,
	"VTG": 9,
	"GSA": 18,
	"ZDA": 6,
}

// GI is the NavIC/IRNSS talker.
var talkers = []string{"GP", "GN", "GL", "GA", "GB", "GI"}

var sentenceTable = buildSentenceTable()

func buildSentenceTable() map[SentenceID]int {
	out := make(map[SentenceID]int, len(typeFields)*len(talkers))
	for _, t := range talkers {
		for typ, max := range typeFields {
			out[SentenceID("$"+t+typ)] = max
		}
	}
	return out
}

// Common identifiers used by the GNSS boards.
const (
	GPGGA SentenceID = "$GPGGA"
	GNGGA SentenceID = "$GNGGA"
	GPGLL SentenceID = "$GPGLL"
	GNGLL SentenceID = "$GNGLL"
	GPRMC SentenceID = "$GPRMC"
	GNRMC SentenceID = "$GNRMC"
	GIGGA SentenceID = "$GIGGA"
)

// MaxField reports the highest valid field index for id.
func MaxField(id SentenceID) (int, bool) {
	max, ok := sentenceTable[id]
	return max, ok
}

// Supported returns every recognized identifier, sorted.
func Supported() []SentenceID {
	out := make([]SentenceID, 0, len(sentenceTable))
	for id := range sentenceTable {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
