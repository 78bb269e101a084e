// Package session runs configured field queries over the read cycles of a
// GNSS receiver, the way the board applications poll the extractor.
package session

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"

	"nmeafield/internal/nmea"
)

type Query struct {
	Name     string
	Sentence nmea.SentenceID
	Field    int
}

type Options struct {
	Queries []Query

	// Accumulate keeps read cycles so sentences split across reads can be
	// completed. Queries read the newest complete sentence, and whole
	// sentences are consumed after every cycle. Otherwise each cycle is
	// parsed on its own.
	Accumulate bool
	// MaxBuffer bounds the accumulated bytes; the oldest bytes are dropped.
	MaxBuffer int

	// VerifyChecksum rejects located sentences whose checksum does not match.
	VerifyChecksum bool
}

// ErrIncomplete reports a sentence that is still running into the end of
// the accumulated buffer.
var ErrIncomplete = errors.New("sentence incomplete")

const (
	StatusOK      = "ok"
	StatusEmpty   = "empty"
	StatusWaiting = "waiting"
	StatusError   = "error"
)

type Result struct {
	Name     string `json:"name"`
	Sentence string `json:"sentence"`
	Field    int    `json:"field"`
	Status   string `json:"status"`
	Value    string `json:"value"`
	Error    string `json:"error,omitempty"`
	AtUTC    string `json:"at_utc,omitempty"`
}

type Snapshot struct {
	Chunks   uint64 `json:"chunks"`
	OK       uint64 `json:"ok"`
	Empty    uint64 `json:"empty"`
	Waiting  uint64 `json:"waiting"`
	Errors   uint64 `json:"errors"`
	Consumed uint64 `json:"consumed_bytes"`
	Dropped  uint64 `json:"dropped_bytes"`
	Buffered int    `json:"buffered"`

	Last      map[string]Result `json:"last"`
	LastError string            `json:"last_error,omitempty"`
}

type Session struct {
	opts Options

	mu   sync.Mutex
	buf  []byte
	snap Snapshot

	now func() time.Time
}

func New(opts Options) (*Session, error) {
	if len(opts.Queries) == 0 {
		return nil, fmt.Errorf("session: no queries")
	}
	for _, q := range opts.Queries {
		max, ok := nmea.MaxField(q.Sentence)
		if !ok {
			return nil, errors.Wrapf(nmea.ErrUnsupportedSentence, "session: query %q", q.Name)
		}
		if q.Field < 0 || q.Field > max {
			return nil, errors.Wrapf(nmea.ErrUnsupportedField, "session: query %q", q.Name)
		}
	}
	if opts.MaxBuffer <= 0 {
		opts.MaxBuffer = 4096
	}
	return &Session{
		opts: opts,
		buf:  make([]byte, 0, opts.MaxBuffer),
		snap: Snapshot{Last: make(map[string]Result, len(opts.Queries))},
		now:  time.Now,
	}, nil
}

// Feed adds one read cycle and runs every query against the buffer.
func (s *Session) Feed(chunk []byte) []Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snap.Chunks++
	if !s.opts.Accumulate {
		s.buf = s.buf[:0]
	}
	s.appendLocked(chunk)

	at := s.now().UTC().Format(time.RFC3339Nano)
	out := make([]Result, 0, len(s.opts.Queries))
	for _, q := range s.opts.Queries {
		r := s.run(q)
		r.AtUTC = at
		switch r.Status {
		case StatusOK:
			s.snap.OK++
		case StatusEmpty:
			s.snap.Empty++
		case StatusWaiting:
			s.snap.Waiting++
		default:
			s.snap.Errors++
			s.snap.LastError = r.Error
		}
		if r.Status == StatusOK || r.Status == StatusEmpty {
			s.snap.Last[q.Name] = r
		}
		out = append(out, r)
	}

	if s.opts.Accumulate {
		s.consumeLocked()
	}
	s.snap.Buffered = len(s.buf)
	return out
}

func (s *Session) appendLocked(chunk []byte) {
	max := s.opts.MaxBuffer
	if len(chunk) >= max {
		s.snap.Dropped += uint64(len(s.buf) + len(chunk) - max)
		s.buf = append(s.buf[:0], chunk[len(chunk)-max:]...)
		return
	}
	if over := len(s.buf) + len(chunk) - max; over > 0 {
		s.snap.Dropped += uint64(over)
		n := copy(s.buf, s.buf[over:])
		s.buf = s.buf[:n]
	}
	s.buf = append(s.buf, chunk...)
}

// consumeLocked drops every whole sentence, keeping only a trailing sentence
// that may still be completed by the next read.
func (s *Session) consumeLocked() {
	keep := 0
	if p := bytes.LastIndexByte(s.buf, '$'); p >= 0 && !nmea.Complete(s.buf, p) {
		keep = len(s.buf) - p
	}
	drop := len(s.buf) - keep
	if drop == 0 {
		return
	}
	s.snap.Consumed += uint64(drop)
	n := copy(s.buf, s.buf[drop:])
	s.buf = s.buf[:n]
}

// newest returns the offset of the newest complete occurrence of id in buf.
func newest(buf []byte, id nmea.SentenceID) (int, error) {
	best, off := -1, 0
	for off < len(buf) {
		start, end, err := nmea.Locate(buf[off:], id)
		if err != nil {
			break
		}
		if nmea.Complete(buf, off+start) {
			best = off + start
		}
		off += end
	}
	switch {
	case best >= 0:
		return best, nil
	case off > 0:
		return -1, errors.Wrapf(ErrIncomplete, "session: %s", id)
	default:
		return -1, errors.Wrapf(nmea.ErrSentenceNotFound, "session: %s", id)
	}
}

func (s *Session) run(q Query) Result {
	r := Result{Name: q.Name, Sentence: string(q.Sentence), Field: q.Field}

	view := s.buf
	if s.opts.Accumulate {
		at, err := newest(s.buf, q.Sentence)
		if err != nil {
			return classify(r, err)
		}
		view = s.buf[at:]
	}

	if s.opts.VerifyChecksum {
		sent, err := nmea.SentenceAt(view, q.Sentence)
		if err == nil {
			err = nmea.VerifyChecksum(sent)
		}
		if err != nil {
			return classify(r, err)
		}
	}

	v, err := nmea.Field(view, q.Sentence, q.Field)
	if err != nil {
		return classify(r, err)
	}
	r.Value = string(v)
	r.Status = StatusOK
	if len(v) == 0 {
		r.Status = StatusEmpty
	}
	return r
}

// classify maps extractor errors to statuses. A sentence still missing its
// checksum is treated as a truncated read.
func classify(r Result, err error) Result {
	r.Error = err.Error()
	if nmea.Waiting(err) || errors.Is(err, ErrIncomplete) || errors.Is(err, nmea.ErrNoChecksum) {
		r.Status = StatusWaiting
	} else {
		r.Status = StatusError
	}
	return r
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.snap
	out.Last = make(map[string]Result, len(s.snap.Last))
	for k, v := range s.snap.Last {
		out.Last[k] = v
	}
	return out
}

// Reset drops any buffered bytes.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf = s.buf[:0]
	s.snap.Buffered = 0
}
