package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"nmeafield/internal/nmea"
)

type Config struct {
	Input          InputConfig   `yaml:"input"`
	VerifyChecksum bool          `yaml:"verify_checksum"`
	Queries        []QueryConfig `yaml:"queries"`
	Output         OutputConfig  `yaml:"output"`
}

type InputConfig struct {
	// Path is a capture log or plain NMEA text; empty or "-" reads stdin.
	Path     string  `yaml:"path"`
	Format   string  `yaml:"format"`
	Speed    float64 `yaml:"speed"`
	Realtime bool    `yaml:"realtime"`
	Loop     bool    `yaml:"loop"`
	// Accumulate keeps read cycles in one buffer so split sentences can be
	// completed; whole sentences are consumed after each cycle. When false
	// each read cycle is parsed on its own.
	Accumulate *bool `yaml:"accumulate"`
	// BufferBytes bounds the accumulated buffer.
	BufferBytes int `yaml:"buffer_bytes"`
}

type QueryConfig struct {
	Name     string `yaml:"name"`
	Sentence string `yaml:"sentence"`
	Field    int    `yaml:"field"`
}

// ID returns the query's sentence identifier.
func (q QueryConfig) ID() nmea.SentenceID {
	return nmea.SentenceID(q.Sentence)
}

type OutputConfig struct {
	Format  string `yaml:"format"`
	UDPDest string `yaml:"udp_dest"`
	// HTTPAddr serves /api/status and /api/extract while running.
	HTTPAddr string `yaml:"http_addr"`
}

const (
	FormatAuto    = "auto"
	FormatCapture = "capture"
	FormatRaw     = "raw"

	OutputText = "text"
	OutputJSON = "json"
)

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Parse(b)
}

func Parse(b []byte) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		if strings.Contains(err.Error(), "not found in type") {
			return Config{}, fmt.Errorf("config contains unknown fields: %s", unknownFieldDetail(err))
		}
		return Config{}, err
	}

	applyDefaults(&cfg)
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// unknownFieldDetail strips yaml.v3's "yaml: unmarshal errors:\n  line N: "
// preamble, keeping the first offending field.
func unknownFieldDetail(err error) string {
	for _, line := range strings.Split(err.Error(), "\n") {
		line = strings.TrimSpace(line)
		if i := strings.Index(line, "field "); i >= 0 && strings.Contains(line, "not found in type") {
			return line[i:]
		}
	}
	return err.Error()
}

func applyDefaults(cfg *Config) {
	if cfg.Input.Format == "" {
		cfg.Input.Format = FormatAuto
	}
	if cfg.Input.Speed == 0 {
		cfg.Input.Speed = 1
	}
	if cfg.Input.BufferBytes <= 0 {
		cfg.Input.BufferBytes = 4096
	}
	if cfg.Output.Format == "" {
		cfg.Output.Format = OutputText
	}
	if cfg.Input.Accumulate == nil {
		v := true
		cfg.Input.Accumulate = &v
	}
	for i := range cfg.Queries {
		q := &cfg.Queries[i]
		q.Sentence = strings.TrimSpace(q.Sentence)
		if q.Sentence != "" && !strings.HasPrefix(q.Sentence, "$") {
			q.Sentence = "$" + q.Sentence
		}
		q.Sentence = strings.ToUpper(q.Sentence)
		if q.Name == "" {
			q.Name = fmt.Sprintf("%s[%d]", q.Sentence, q.Field)
		}
	}
}

func validate(cfg Config) error {
	switch cfg.Input.Format {
	case FormatAuto, FormatCapture, FormatRaw:
	default:
		return fmt.Errorf("input.format must be one of auto, capture, raw")
	}
	if !(cfg.Input.Speed > 0) {
		return fmt.Errorf("input.speed must be > 0")
	}
	switch cfg.Output.Format {
	case OutputText, OutputJSON:
	default:
		return fmt.Errorf("output.format must be one of text, json")
	}

	if len(cfg.Queries) == 0 {
		return fmt.Errorf("queries must not be empty")
	}
	seen := make(map[string]bool, len(cfg.Queries))
	for i, q := range cfg.Queries {
		if q.Sentence == "" {
			return fmt.Errorf("queries[%d].sentence is required", i)
		}
		max, ok := nmea.MaxField(q.ID())
		if !ok {
			return fmt.Errorf("queries[%d].sentence %s is not supported", i, q.Sentence)
		}
		if q.Field < 0 || q.Field > max {
			return fmt.Errorf("queries[%d].field must be between 0 and %d for %s", i, max, q.Sentence)
		}
		if seen[q.Name] {
			return fmt.Errorf("queries[%d].name %q is duplicated", i, q.Name)
		}
		seen[q.Name] = true
	}
	return nil
}
