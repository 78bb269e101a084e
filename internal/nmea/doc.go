// Package nmea extracts comma-delimited fields from raw NMEA 0183 text.
//
// The input is whatever a GNSS receiver produced during one or more read
// cycles: it may start mid-sentence, hold several sentences and end on a
// truncated one. Lookups are bounded to the located sentence:
//
//   - Field and CopyField return one field of one sentence
//   - SentenceAt returns the located sentence for checksum verification
//   - Sentences walks every sentence in a buffer for summaries
//
// Nothing in this package retains or mutates the caller's buffer.
package nmea
