package nmea

import "github.com/pkg/errors"

var (
	ErrUnsupportedSentence = errors.New("unsupported sentence")
	ErrUnsupportedField    = errors.New("unsupported field")
	ErrSentenceNotFound    = errors.New("sentence not found")
	ErrFieldNotFound       = errors.New("field not found")
	ErrShortBuffer         = errors.New("output buffer too small")

	ErrNoChecksum       = errors.New("missing checksum")
	ErrChecksumMismatch = errors.New("checksum mismatch")
)

// Waiting reports whether err only means the receiver has not produced the
// requested data yet; callers are expected to retry on the next read cycle.
func Waiting(err error) bool {
	return errors.Is(err, ErrSentenceNotFound) || errors.Is(err, ErrFieldNotFound)
}
