package nmea

import (
	"bytes"
	"encoding/hex"

	"github.com/pkg/errors"
)

// Checksum returns the XOR of every byte between the leading '$' and the
// '*' of sentence.
func Checksum(sentence []byte) (byte, error) {
	if len(sentence) == 0 || sentence[0] != '$' {
		return 0, errors.New("nmea: missing '$'")
	}
	star := bytes.LastIndexByte(sentence, '*')
	if star == -1 {
		return 0, errors.WithStack(ErrNoChecksum)
	}
	got := byte(0)
	for _, b := range sentence[1:star] {
		got ^= b
	}
	return got, nil
}

// VerifyChecksum checks the two hex digits after '*' against Checksum.
// Trailing CR/LF is tolerated.
func VerifyChecksum(sentence []byte) error {
	sentence = bytes.TrimRight(sentence, "\r\n")
	got, err := Checksum(sentence)
	if err != nil {
		return err
	}
	star := bytes.LastIndexByte(sentence, '*')
	ck := sentence[star+1:]
	if len(ck) < 2 {
		return errors.Wrap(ErrNoChecksum, "nmea: short checksum")
	}
	var want [1]byte
	if _, err := hex.Decode(want[:], ck[:2]); err != nil {
		return errors.Wrap(ErrChecksumMismatch, "nmea: bad checksum digits")
	}
	if got != want[0] {
		return errors.Wrapf(ErrChecksumMismatch, "nmea: got %02X want %02X", got, want[0])
	}
	return nil
}

// AppendChecksum appends "*hh" for payload (which starts with '$') to dst.
func AppendChecksum(dst []byte, payload []byte) []byte {
	ck := byte(0)
	if len(payload) > 0 {
		for _, b := range payload[1:] {
			ck ^= b
		}
	}
	const digits = "0123456789ABCDEF"
	return append(dst, '*', digits[ck>>4], digits[ck&0x0F])
}

// SentenceSummary describes one sentence found by Sentences.
type SentenceSummary struct {
	ID SentenceID
	// HasChecksum is false for sentences cut short by the end of a read.
	HasChecksum bool
	ChecksumOK  bool
}

// Sentences walks every '$'-started sentence in buf.
func Sentences(buf []byte) []SentenceSummary {
	var out []SentenceSummary
	for i := 0; i < len(buf); {
		j := bytes.IndexByte(buf[i:], '$')
		if j < 0 {
			break
		}
		start := i + j
		end := sentenceEnd(buf, start)
		sent := buf[start:end]

		idEnd := bytes.IndexAny(sent, ",*")
		if idEnd < 0 {
			idEnd = len(sent)
		}
		s := SentenceSummary{ID: SentenceID(sent[:idEnd])}
		if bytes.IndexByte(sent, '*') >= 0 {
			s.HasChecksum = true
			s.ChecksumOK = VerifyChecksum(sent) == nil
		}
		out = append(out, s)
		i = end
	}
	return out
}
