package nmea

import (
	"bytes"
	"strconv"
	"strings"
)

// SplitDegMin splits a ddmm.mmmm or dddmm.mmmm coordinate field into its
// degree and minute parts. The last two integer digits are minutes.
func SplitDegMin(field []byte) (deg, min []byte, ok bool) {
	intLen := len(field)
	if dot := bytes.IndexByte(field, '.'); dot != -1 {
		intLen = dot
	}
	if intLen < 3 {
		return nil, nil, false
	}
	return field[:intLen-2], field[intLen-2:], true
}

// ParseLatLon converts an NMEA coordinate and its hemisphere (N/S/E/W) to
// signed decimal degrees.
func ParseLatLon(v string, hemi string) (float64, bool) {
	v = strings.TrimSpace(v)
	hemi = strings.TrimSpace(strings.ToUpper(hemi))
	if v == "" || (hemi != "N" && hemi != "S" && hemi != "E" && hemi != "W") {
		return 0, false
	}

	degPart, minPart, ok := SplitDegMin([]byte(v))
	if !ok {
		return 0, false
	}
	deg, err := strconv.Atoi(string(degPart))
	if err != nil {
		return 0, false
	}
	mins, err := strconv.ParseFloat(string(minPart), 64)
	if err != nil || mins < 0 || mins >= 60 {
		return 0, false
	}

	dec := float64(deg) + (mins / 60.0)
	if hemi == "S" || hemi == "W" {
		dec = -dec
	}
	return dec, true
}
