package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"nmeafield/internal/capture"
	"nmeafield/internal/nmea"
)

func TestSummarizeCapture(t *testing.T) {
	recs := []capture.Record{
		{At: 0, Data: nil},
		{At: 0, Data: []byte(ggaFix[:30])},
		{At: 200 * time.Millisecond, Data: []byte(ggaFix[30:])},
		{At: 300 * time.Millisecond, Data: []byte("$GPRMC,1,A*00\r\n$XXFOO,1*00\r\n")},
		{At: 0, Data: nil},
		{At: 1 * time.Second, Data: []byte("$GNGGA,1,2")},
	}

	s := summarizeCapture(recs)
	assert.Equal(t, 2, s.Segments)
	assert.Equal(t, 4, s.Chunks)
	assert.Equal(t, 1, s.Sentences[nmea.GPGGA])
	assert.Equal(t, 1, s.Sentences[nmea.GNGGA])
	assert.Equal(t, 2, s.BadChecksum)
	assert.Equal(t, 1, s.NoChecksum)
	assert.Equal(t, 1, s.Unrecognized)
	assert.Equal(t, 1*time.Second, s.MaxDuration)
}

func TestSummarizeCapture_NoStartIsOneSegment(t *testing.T) {
	s := summarizeCapture([]capture.Record{{At: 5, Data: []byte(ggaFix)}})
	assert.Equal(t, 1, s.Segments)
	assert.Zero(t, s.BadChecksum)
	assert.Zero(t, s.NoChecksum)
}

func TestPrintCaptureSummary(t *testing.T) {
	s := summarizeCapture([]capture.Record{{At: 0, Data: nil}, {At: 0, Data: []byte(ggaFix)}})
	var buf bytes.Buffer
	printCaptureSummary(&buf, "x.log", s)
	out := buf.String()
	for _, want := range []string{"path: x.log\n", "segments: 1\n", "chunks: 1\n", "  $GPGGA: 1\n"} {
		assert.Contains(t, out, want)
	}
}
