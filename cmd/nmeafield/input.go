package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"nmeafield/internal/capture"
	"nmeafield/internal/config"
)

// readInput reads path, or stdin when path is empty or "-".
func readInput(path string, stdin io.Reader) ([]byte, error) {
	path = strings.TrimSpace(path)
	if path == "" || path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

// loadRecords parses b as a capture log or plain NMEA text.
func loadRecords(b []byte, format string) ([]capture.Record, error) {
	if format == "" || format == config.FormatAuto {
		format = config.FormatRaw
		if capture.LooksLikeCapture(b) {
			format = config.FormatCapture
		}
	}
	switch format {
	case config.FormatCapture:
		return capture.NewReader(bytes.NewReader(b)).ReadAll()
	case config.FormatRaw:
		return capture.RawRecords(bytes.NewReader(b))
	default:
		return nil, fmt.Errorf("unsupported input format %q", format)
	}
}

// joinRecords concatenates the data of every record.
func joinRecords(recs []capture.Record) []byte {
	var buf bytes.Buffer
	for _, r := range recs {
		buf.Write(r.Data)
	}
	return buf.Bytes()
}
