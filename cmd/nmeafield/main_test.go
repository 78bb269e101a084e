package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nmeafield/internal/nmea"
	"nmeafield/internal/session"
)

const ggaFix = "$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47\r\n"

func writeTemp(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

// captureOf splits s into chunks of n bytes in capture log format.
func captureOf(s string, n int) string {
	var b strings.Builder
	b.WriteString("START\n")
	for i := 0; i < len(s); i += n {
		end := i + n
		if end > len(s) {
			end = len(s)
		}
		fmt.Fprintf(&b, "%d,%s\n", i*1000, hex.EncodeToString([]byte(s[i:end])))
	}
	return b.String()
}

func runTest(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := runCommand(context.Background(), args, strings.NewReader(stdin), &out, golog.NewTestLogger(t))
	return out.String(), err
}

func TestExtract_RawFile(t *testing.T) {
	path := writeTemp(t, "in.nmea", "$GPRMC,123519,A*00\r\n"+ggaFix)
	out, err := runTest(t, "", "extract", "-sentence", "$GPGGA", "-field", "2", path)
	require.NoError(t, err)
	assert.Equal(t, "4807.038\n", out)
}

func TestExtract_CaptureOnStdinJoinsChunks(t *testing.T) {
	out, err := runTest(t, captureOf(ggaFix, 7), "extract", "-sentence", "gpgga", "-field", "9", "-verify")
	require.NoError(t, err)
	assert.Equal(t, "545.4\n", out)
}

func TestExtract_EmptyFieldPrintsBlankLine(t *testing.T) {
	out, err := runTest(t, "$GPGGA,,,,,,,,,,,,,*00", "extract", "-field", "2", "-format", "raw")
	require.NoError(t, err)
	assert.Equal(t, "\n", out)
}

func TestExtract_Errors(t *testing.T) {
	_, err := runTest(t, "$GPRMC,1,A*00\r\n", "extract", "-sentence", "$GPGGA")
	assert.True(t, errors.Is(err, nmea.ErrSentenceNotFound), "err=%v", err)

	_, err = runTest(t, ggaFix, "extract", "-field", "15")
	assert.True(t, errors.Is(err, nmea.ErrUnsupportedField), "err=%v", err)

	bad := strings.Replace(ggaFix, "123519", "123518", 1)
	_, err = runTest(t, bad, "extract", "-verify")
	assert.True(t, errors.Is(err, nmea.ErrChecksumMismatch), "err=%v", err)
}

func TestRunCommand_Unknown(t *testing.T) {
	out, err := runTest(t, "", "bogus")
	assert.Error(t, err)
	assert.Contains(t, out, "usage: nmeafield")

	_, err = runTest(t, "")
	assert.Error(t, err)
}

func TestSentences_ListsTable(t *testing.T) {
	out, err := runTest(t, "", "sentences")
	require.NoError(t, err)
	assert.Contains(t, out, "$GPGGA\t14\n")
	assert.Contains(t, out, "$GIGGA\t14\n")
	assert.Equal(t, len(nmea.Supported()), strings.Count(out, "\n"))
}

func TestRun_JSONOutput(t *testing.T) {
	input := writeTemp(t, "in.log", captureOf("$GPGGA,,,,,,,,,,,,,*00\r\n"+ggaFix, 16))
	cfg := writeTemp(t, "cfg.yaml", fmt.Sprintf(`
input:
  path: %s
queries:
  - name: time
    sentence: $GPGGA
    field: 1
  - name: lat
    sentence: $GPGGA
    field: 2
output:
  format: json
`, input))

	out, err := runTest(t, "", "run", "-config", cfg)
	require.NoError(t, err)

	var results []session.Result
	dec := json.NewDecoder(strings.NewReader(out))
	for dec.More() {
		var r session.Result
		require.NoError(t, dec.Decode(&r))
		results = append(results, r)
	}
	require.NotEmpty(t, results)

	last := results[len(results)-1]
	assert.Equal(t, "lat", last.Name)
	assert.Equal(t, "4807.038", last.Value)
	assert.Equal(t, session.StatusOK, last.Status)

	sawEmpty := false
	for _, r := range results {
		if r.Status == session.StatusEmpty {
			sawEmpty = true
		}
	}
	assert.True(t, sawEmpty, "expected the no-fix sentence to yield empty results")
}

func TestRun_TextOutputFromStdin(t *testing.T) {
	cfg := writeTemp(t, "cfg.yaml", "queries:\n  - name: alt\n    sentence: $GPGGA\n    field: 9\n")
	out, err := runTest(t, ggaFix+ggaFix, "run", "-config", cfg)
	require.NoError(t, err)
	assert.Equal(t, "alt=545.4\nalt=545.4\n", out)
}

func TestRun_ConfigError(t *testing.T) {
	cfg := writeTemp(t, "cfg.yaml", "queries: []\n")
	_, err := runTest(t, "", "run", "-config", cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "queries must not be empty")
}

func TestRecord_WritesCapture(t *testing.T) {
	out := filepath.Join(t.TempDir(), "cap.log")
	_, err := runTest(t, ggaFix, "record", "-out", out, "-read-size", "16")
	require.NoError(t, err)

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	recs, err := loadRecords(b, "auto")
	require.NoError(t, err)
	require.True(t, recs[0].IsStart())
	assert.Equal(t, ggaFix, string(joinRecords(recs)))
	assert.Len(t, recs, 1+(len(ggaFix)+15)/16)
}

func TestRecord_RequiresOut(t *testing.T) {
	_, err := runTest(t, "", "record")
	assert.Error(t, err)
}

func TestFix_DecodesGGA(t *testing.T) {
	out, err := runTest(t, ggaFix, "fix", "-sentence", "GPGGA")
	require.NoError(t, err)

	var fix nmea.Fix
	require.NoError(t, json.Unmarshal([]byte(out), &fix))
	assert.True(t, fix.Valid)
	require.NotNil(t, fix.Satellites)
	assert.Equal(t, 8, *fix.Satellites)
}
