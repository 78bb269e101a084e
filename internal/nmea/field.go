package nmea

import (
	"bytes"

	"github.com/pkg/errors"
)

// Field returns field index of the first complete occurrence of id in buf.
//
// Field 0 is the identifier itself; field 1 is the first value after it.
// The result aliases buf and may be empty when the receiver left the field
// blank (for example before a position fix). An occurrence of id only counts
// when it is immediately followed by ','.
func Field(buf []byte, id SentenceID, index int) ([]byte, error) {
	max, ok := sentenceTable[id]
	if !ok {
		return nil, errors.Wrapf(ErrUnsupportedSentence, "nmea: %q", string(id))
	}
	if index < 0 || index > max {
		return nil, errors.Wrapf(ErrUnsupportedField, "nmea: %s field %d (max %d)", id, index, max)
	}

	start, end, ok := locate(buf, id)
	if !ok {
		return nil, errors.Wrapf(ErrSentenceNotFound, "nmea: %s", id)
	}
	// The checksum suffix is not part of any field.
	if star := bytes.IndexByte(buf[start:end], '*'); star >= 0 {
		end = start + star
	}

	pos := start
	for n := 0; n < index; n++ {
		c := bytes.IndexByte(buf[pos:end], ',')
		if c < 0 {
			return nil, errors.Wrapf(ErrFieldNotFound, "nmea: %s field %d", id, index)
		}
		pos += c + 1
	}
	stop := end
	if c := bytes.IndexByte(buf[pos:end], ','); c >= 0 {
		stop = pos + c
	}
	return buf[pos:stop:stop], nil
}

// FieldString is Field returning a copy as a string.
func FieldString(buf []byte, id SentenceID, index int) (string, error) {
	f, err := Field(buf, id, index)
	if err != nil {
		return "", err
	}
	return string(f), nil
}

// CopyField writes the requested field to the start of dst and returns its
// length. dst is left untouched on failure.
func CopyField(dst []byte, buf []byte, id SentenceID, index int) (int, error) {
	f, err := Field(buf, id, index)
	if err != nil {
		return 0, err
	}
	if len(f) > len(dst) {
		return 0, errors.Wrapf(ErrShortBuffer, "nmea: %s field %d needs %d bytes, have %d", id, index, len(f), len(dst))
	}
	return copy(dst, f), nil
}

// SentenceAt returns the first complete occurrence of id in buf, from the
// '$' up to (not including) the next '$', line terminator or end of buffer.
func SentenceAt(buf []byte, id SentenceID) ([]byte, error) {
	start, end, err := Locate(buf, id)
	if err != nil {
		return nil, err
	}
	return buf[start:end:end], nil
}

// Locate returns the bounds of the first occurrence of id in buf that is
// followed by ','. end is the sentence's right boundary.
func Locate(buf []byte, id SentenceID) (start, end int, err error) {
	if _, ok := sentenceTable[id]; !ok {
		return 0, 0, errors.Wrapf(ErrUnsupportedSentence, "nmea: %q", string(id))
	}
	start, end, ok := locate(buf, id)
	if !ok {
		return 0, 0, errors.Wrapf(ErrSentenceNotFound, "nmea: %s", id)
	}
	return start, end, nil
}

// Complete reports whether the sentence starting at buf[start] is whole:
// either something follows it (another '$' or a line terminator) or it
// already carries both checksum digits. A sentence running to the end of buf
// without them may still be arriving.
func Complete(buf []byte, start int) bool {
	if start < 0 || start >= len(buf) {
		return false
	}
	end := sentenceEnd(buf, start)
	if end < len(buf) {
		return true
	}
	star := bytes.LastIndexByte(buf[start:end], '*')
	return star >= 0 && end-(start+star) > 2
}

// locate finds the bounds of the first occurrence of id followed by ','.
func locate(buf []byte, id SentenceID) (start, end int, ok bool) {
	lit := []byte(id)
	off := 0
	for {
		i := bytes.Index(buf[off:], lit)
		if i < 0 {
			return 0, 0, false
		}
		start = off + i
		after := start + len(lit)
		if after < len(buf) && buf[after] == ',' {
			break
		}
		off = start + 1
	}
	return start, sentenceEnd(buf, start), true
}

// sentenceEnd returns the right boundary of the sentence starting at start.
func sentenceEnd(buf []byte, start int) int {
	if j := bytes.IndexAny(buf[start+1:], "$\r\n"); j >= 0 {
		return start + 1 + j
	}
	return len(buf)
}
