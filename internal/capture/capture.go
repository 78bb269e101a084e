package capture

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"
)

// Log format: line-oriented text.
//
// - Blank lines ignored.
// - Lines starting with '#' ignored.
// - Line "START" resets the origin (next record time is relative to 0 again).
// - Data lines are: <t_ns>,<hex>
//   where t_ns is nanoseconds since START (monotonic), and hex is the raw bytes
//   of one receiver read cycle. A chunk may hold partial sentences.

type Record struct {
	At   time.Duration
	Data []byte
}

// IsStart reports whether r is a START marker.
func (r Record) IsStart() bool { return r.Data == nil }

type Reader struct {
	r io.Reader
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

func (rr *Reader) ReadAll() ([]Record, error) {
	s := bufio.NewScanner(rr.r)
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	recs := make([]Record, 0, 1024)
	lineNo := 0
	for s.Scan() {
		lineNo++
		line := strings.TrimSpace(s.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}
		if line == "START" {
			recs = append(recs, Record{At: 0, Data: nil})
			continue
		}

		comma := strings.IndexByte(line, ',')
		if comma < 0 {
			return nil, fmt.Errorf("capture line %d: missing comma: %q", lineNo, line)
		}
		tsStr := strings.TrimSpace(line[:comma])
		hexStr := strings.TrimSpace(line[comma+1:])
		if tsStr == "" || hexStr == "" {
			return nil, fmt.Errorf("capture line %d: empty field: %q", lineNo, line)
		}

		tsNs, err := strconv.ParseInt(tsStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("capture line %d: invalid timestamp %q: %w", lineNo, tsStr, err)
		}
		if tsNs < 0 {
			return nil, fmt.Errorf("capture line %d: negative timestamp %d", lineNo, tsNs)
		}

		hexStr = strings.ReplaceAll(hexStr, " ", "")
		b, err := hex.DecodeString(hexStr)
		if err != nil {
			return nil, fmt.Errorf("capture line %d: invalid hex payload: %w", lineNo, err)
		}
		if len(b) == 0 {
			return nil, fmt.Errorf("capture line %d: empty payload", lineNo)
		}

		recs = append(recs, Record{At: time.Duration(tsNs), Data: b})
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return recs, nil
}

// RawRecords turns plain NMEA text into one record per line, each keeping
// its CRLF terminator. Records carry no timing.
func RawRecords(r io.Reader) ([]Record, error) {
	br := bufio.NewReader(r)
	recs := []Record{{At: 0, Data: nil}}
	for {
		line, err := br.ReadBytes('\n')
		if len(strings.TrimSpace(string(line))) > 0 {
			if line[len(line)-1] == '\n' && (len(line) < 2 || line[len(line)-2] != '\r') {
				line = append(line[:len(line)-1], '\r', '\n')
			}
			recs = append(recs, Record{Data: line})
		}
		if errors.Is(err, io.EOF) {
			return recs, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// LooksLikeCapture reports whether head (the start of a file) is in capture
// format rather than plain NMEA text.
func LooksLikeCapture(head []byte) bool {
	for _, line := range strings.Split(string(head), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if line == "START" {
			return true
		}
		comma := strings.IndexByte(line, ',')
		if comma <= 0 {
			return false
		}
		if _, err := strconv.ParseUint(strings.TrimSpace(line[:comma]), 10, 64); err != nil {
			return false
		}
		_, err := hex.DecodeString(strings.ReplaceAll(strings.TrimSpace(line[comma+1:]), " ", ""))
		return err == nil
	}
	return false
}

type Writer struct {
	f      *os.File
	w      *bufio.Writer
	start  time.Time
	closed bool
}

func CreateWriter(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	bw := bufio.NewWriterSize(f, 64*1024)
	if _, err := bw.WriteString("START\n"); err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Writer{f: f, w: bw, start: time.Now()}, nil
}

func (ww *Writer) WriteChunk(now time.Time, data []byte) error {
	if ww.closed {
		return errors.New("capture writer is closed")
	}
	if len(data) == 0 {
		return errors.New("chunk is empty")
	}

	d := now.Sub(ww.start)
	if d < 0 {
		d = 0
	}
	_, err := fmt.Fprintf(ww.w, "%d,%s\n", d.Nanoseconds(), hex.EncodeToString(data))
	return err
}

func (ww *Writer) Flush() error {
	if ww.closed {
		return nil
	}
	return ww.w.Flush()
}

func (ww *Writer) Close() error {
	if ww.closed {
		return nil
	}
	ww.closed = true
	return multierr.Combine(ww.w.Flush(), ww.f.Close())
}

type Sleeper interface {
	Sleep(d time.Duration)
}

type realSleeper struct{}

func (realSleeper) Sleep(d time.Duration) { time.Sleep(d) }

// NoSleep plays records back to back.
type NoSleep struct{}

func (NoSleep) Sleep(time.Duration) {}

// Play replays records with their relative timing.
//
// cb is invoked for each data record. START markers reset the origin.
// speed: 1.0 = real time, 2.0 = twice as fast, 0.5 = half speed.
func Play(records []Record, speed float64, loop bool, sleeper Sleeper, cb func(data []byte) error) error {
	if !(speed > 0) {
		return fmt.Errorf("speed must be > 0")
	}
	if sleeper == nil {
		sleeper = realSleeper{}
	}
	if cb == nil {
		return errors.New("callback is nil")
	}
	if len(records) == 0 {
		return errors.New("no records")
	}
	data := false
	for _, r := range records {
		if !r.IsStart() {
			data = true
			break
		}
	}
	if !data {
		return errors.New("no data records")
	}

	for {
		var lastAt time.Duration
		var haveLast bool
		var origin time.Duration

		for _, r := range records {
			if r.IsStart() {
				origin = r.At
				haveLast = false
				continue
			}

			at := r.At - origin
			if at < 0 {
				at = 0
			}
			if haveLast {
				wait := at - lastAt
				if wait > 0 {
					sleeper.Sleep(time.Duration(float64(wait) / speed))
				}
			}

			if err := cb(r.Data); err != nil {
				return err
			}
			lastAt = at
			haveLast = true
		}

		if !loop {
			return nil
		}
	}
}
