package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"nmeafield/internal/capture"
	"nmeafield/internal/nmea"
)

type captureSummary struct {
	Segments     int
	Chunks       int
	Bytes        int
	MaxDuration  time.Duration
	Sentences    map[nmea.SentenceID]int
	BadChecksum  int
	NoChecksum   int
	Unrecognized int
}

func summarizeCapture(records []capture.Record) captureSummary {
	s := captureSummary{Sentences: map[nmea.SentenceID]int{}}
	if len(records) == 0 {
		return s
	}

	origin := time.Duration(0)
	segments := 0
	var seg []byte

	flush := func() {
		for _, sent := range nmea.Sentences(seg) {
			if _, ok := nmea.MaxField(sent.ID); !ok {
				s.Unrecognized++
			}
			s.Sentences[sent.ID]++
			switch {
			case !sent.HasChecksum:
				s.NoChecksum++
			case !sent.ChecksumOK:
				s.BadChecksum++
			}
		}
		seg = seg[:0]
	}

	for _, r := range records {
		if r.IsStart() {
			flush()
			segments++
			origin = r.At
			continue
		}

		s.Chunks++
		s.Bytes += len(r.Data)
		at := r.At - origin
		if at < 0 {
			at = 0
		}
		if at > s.MaxDuration {
			s.MaxDuration = at
		}
		seg = append(seg, r.Data...)
	}
	flush()
	if segments == 0 && s.Chunks > 0 {
		segments = 1
	}
	s.Segments = segments

	return s
}

func summaryCmd(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("summary", flag.ContinueOnError)
	fs.SetOutput(stdout)
	format := fs.String("format", "auto", "Input format: auto, capture or raw")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path := strings.TrimSpace(fs.Arg(0))
	if path == "" {
		return fmt.Errorf("path is empty")
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	recs, err := loadRecords(b, *format)
	if err != nil {
		return err
	}
	printCaptureSummary(stdout, path, summarizeCapture(recs))
	return nil
}

func printCaptureSummary(w io.Writer, path string, s captureSummary) {
	fmt.Fprintf(w, "path: %s\n", path)
	fmt.Fprintf(w, "segments: %d\n", s.Segments)
	fmt.Fprintf(w, "chunks: %d\n", s.Chunks)
	fmt.Fprintf(w, "bytes: %d\n", s.Bytes)
	fmt.Fprintf(w, "max_duration: %s\n", s.MaxDuration)
	fmt.Fprintf(w, "bad_checksum: %d\n", s.BadChecksum)
	fmt.Fprintf(w, "no_checksum: %d\n", s.NoChecksum)
	fmt.Fprintf(w, "unrecognized: %d\n", s.Unrecognized)

	keys := make([]string, 0, len(s.Sentences))
	for k := range s.Sentences {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	fmt.Fprintf(w, "sentences:\n")
	for _, k := range keys {
		fmt.Fprintf(w, "  %s: %d\n", k, s.Sentences[nmea.SentenceID(k)])
	}
}
