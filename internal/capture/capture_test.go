package capture

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSleeper struct {
	slept []time.Duration
}

func (fs *fakeSleeper) Sleep(d time.Duration) {
	fs.slept = append(fs.slept, d)
}

func nopCallback([]byte) error { return nil }

func TestReaderReadAll(t *testing.T) {
	in := strings.NewReader(`
# comment

START
0, 2447
10, 50 47
`)

	recs, err := NewReader(in).ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.True(t, recs[0].IsStart(), "expected START marker, got %q", recs[0].Data)
	assert.Equal(t, "$G", string(recs[1].Data))
	assert.Equal(t, 10*time.Nanosecond, recs[2].At)
	assert.Equal(t, "PG", string(recs[2].Data))
}

func TestReaderReadAll_InvalidLines(t *testing.T) {
	cases := []string{
		"not-a-valid-line\n",
		"abc,2447\n",
		"-5,2447\n",
		"5,zz\n",
		"5,\n",
	}
	for _, in := range cases {
		_, err := NewReader(strings.NewReader(in)).ReadAll()
		assert.Error(t, err, "input %q", in)
	}
}

func TestRawRecords(t *testing.T) {
	in := "$GPGGA,1*00\n\n$GPRMC,2*00\r\n$GPGLL,3"
	recs, err := RawRecords(strings.NewReader(in))
	require.NoError(t, err)

	want := []string{"$GPGGA,1*00\r\n", "$GPRMC,2*00\r\n", "$GPGLL,3"}
	require.Len(t, recs, len(want)+1)
	assert.True(t, recs[0].IsStart())
	for i, w := range want {
		assert.Equal(t, w, string(recs[i+1].Data), "record[%d]", i+1)
	}
}

func TestLooksLikeCapture(t *testing.T) {
	assert.True(t, LooksLikeCapture([]byte("# header\nSTART\n0,2447\n")))
	assert.False(t, LooksLikeCapture([]byte("$GPGGA,1,2*00\r\n")))
	assert.True(t, LooksLikeCapture([]byte("120,2447\n")), "capture without START")
	assert.False(t, LooksLikeCapture([]byte("08,0.9,545.4,M,46.9,M,,*47\r\n$GPGGA,1\r\n")),
		"leading partial sentence is raw")
	assert.False(t, LooksLikeCapture(nil))
}

func TestPlay_RespectsTimingAndStart(t *testing.T) {
	chunks := make([]string, 0, 3)
	fs := &fakeSleeper{}

	recs := []Record{
		{At: 1 * time.Second, Data: nil},
		{At: 1 * time.Second, Data: []byte("a")},
		{At: 1*time.Second + 100*time.Nanosecond, Data: []byte("b")},
		{At: 2 * time.Second, Data: nil},
		{At: 2*time.Second + 50*time.Nanosecond, Data: []byte("c")},
	}

	err := Play(recs, 1.0, false, fs, func(data []byte) error {
		chunks = append(chunks, string(data))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, chunks)
	assert.Equal(t, []time.Duration{100 * time.Nanosecond}, fs.slept)
}

func TestPlay_SpeedMultiplier(t *testing.T) {
	fs := &fakeSleeper{}
	recs := []Record{
		{At: 0, Data: []byte{0x01}},
		{At: 100 * time.Nanosecond, Data: []byte{0x02}},
	}

	require.NoError(t, Play(recs, 2.0, false, fs, nopCallback))
	assert.Equal(t, []time.Duration{50 * time.Nanosecond}, fs.slept)
}

func TestPlay_LoopStopsOnCallbackError(t *testing.T) {
	recs := []Record{{At: 0, Data: []byte{0x01}}}
	n := 0
	err := Play(recs, 1, true, NoSleep{}, func([]byte) error {
		n++
		if n == 3 {
			return os.ErrClosed
		}
		return nil
	})
	assert.Equal(t, os.ErrClosed, err)
	assert.Equal(t, 3, n)
}

func TestPlay_LoopWithoutDataReturns(t *testing.T) {
	// An empty raw input still yields its START marker.
	recs, err := RawRecords(strings.NewReader("\n\n"))
	require.NoError(t, err)
	require.Len(t, recs, 1)

	done := make(chan error, 1)
	go func() { done <- Play(recs, 1, true, NoSleep{}, nopCallback) }()
	select {
	case err := <-done:
		assert.EqualError(t, err, "no data records")
	case <-time.After(2 * time.Second):
		t.Fatal("Play did not return for a capture without data")
	}

	err = Play([]Record{{}, {At: 5}}, 1, true, NoSleep{}, nopCallback)
	assert.EqualError(t, err, "no data records")
}

func TestPlay_InvalidArgs(t *testing.T) {
	recs := []Record{{At: 0, Data: []byte{0x01}}}
	assert.Error(t, Play(recs, 0, false, nil, nopCallback), "zero speed")
	assert.Error(t, Play(recs, math.NaN(), false, nil, nopCallback), "NaN speed")
	assert.Error(t, Play(nil, 1, false, nil, nopCallback), "no records")
	assert.Error(t, Play(recs, 1, false, nil, nil), "nil callback")
}

func TestWriter_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")

	w, err := CreateWriter(path)
	require.NoError(t, err)
	w.start = time.Unix(0, 0)

	require.NoError(t, w.WriteChunk(time.Unix(0, 20), []byte("$G")))
	assert.Error(t, w.WriteChunk(time.Unix(0, 0), nil), "empty chunk")
	require.NoError(t, w.Close())
	assert.Error(t, w.WriteChunk(time.Unix(0, 30), []byte("x")), "write after close")

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "START\n20,2447\n", string(b))

	recs, err := NewReader(strings.NewReader(string(b))).ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "$G", string(recs[1].Data))
	assert.Equal(t, time.Duration(20), recs[1].At)
}
