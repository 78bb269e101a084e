package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strings"

	"nmeafield/internal/nmea"
)

func extractCmd(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("extract", flag.ContinueOnError)
	fs.SetOutput(stdout)
	sentence := fs.String("sentence", string(nmea.GPGGA), "Sentence identifier, e.g. $GPGGA")
	field := fs.Int("field", 1, "Field index (0 is the identifier)")
	format := fs.String("format", "auto", "Input format: auto, capture or raw")
	verify := fs.Bool("verify", false, "Fail when the located sentence has a bad checksum")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 1 {
		return fmt.Errorf("extract takes at most one input path")
	}

	b, err := readInput(fs.Arg(0), stdin)
	if err != nil {
		return err
	}
	recs, err := loadRecords(b, *format)
	if err != nil {
		return err
	}
	buf := joinRecords(recs)

	id := nmea.SentenceID(normalizeSentence(*sentence))
	if *verify {
		sent, err := nmea.SentenceAt(buf, id)
		if err != nil {
			return err
		}
		if err := nmea.VerifyChecksum(sent); err != nil {
			return err
		}
	}
	v, err := nmea.Field(buf, id, *field)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(stdout, "%s\n", v)
	return err
}

func normalizeSentence(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s != "" && !strings.HasPrefix(s, "$") {
		s = "$" + s
	}
	return s
}

func sentencesCmd(stdout io.Writer) error {
	for _, id := range nmea.Supported() {
		max, _ := nmea.MaxField(id)
		if _, err := fmt.Fprintf(stdout, "%s\t%d\n", id, max); err != nil {
			return err
		}
	}
	return nil
}

func fixCmd(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("fix", flag.ContinueOnError)
	fs.SetOutput(stdout)
	sentence := fs.String("sentence", string(nmea.GPGGA), "GGA or RMC sentence identifier")
	format := fs.String("format", "auto", "Input format: auto, capture or raw")
	if err := fs.Parse(args); err != nil {
		return err
	}

	b, err := readInput(fs.Arg(0), stdin)
	if err != nil {
		return err
	}
	recs, err := loadRecords(b, *format)
	if err != nil {
		return err
	}
	fix, err := nmea.DecodeFix(joinRecords(recs), nmea.SentenceID(normalizeSentence(*sentence)))
	if err != nil {
		return err
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(fix)
}
