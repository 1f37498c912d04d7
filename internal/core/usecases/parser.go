package usecases

import (
	"bufio"
	"io"
	"iter"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/samirrijal/dropmap/internal/core/domain"
)

const (
	recordFields = 5 // name,latitude,longitude,country,rate
	maxLineBytes = 1 << 20
)

// ParseStats counts what a parse pass has seen so far.
type ParseStats struct {
	Lines        int // non-empty data lines (header excluded)
	Records      int
	Skipped      int
	InvalidRates int
}

// Parse parses raw delimited text into point records.
func Parse(raw string) iter.Seq[domain.PointRecord] {
	return ParseRecords(strings.NewReader(raw))
}

// ParseRecords parses delimited records from r. The first line is a header
// and is always discarded. Malformed lines are skipped; the sequence never
// fails. It can be ranged over once.
func ParseRecords(r io.Reader) iter.Seq[domain.PointRecord] {
	seq, _ := ParseWithStats(r)
	return seq
}

// ParseWithStats is ParseRecords plus counters that fill in as the sequence
// is consumed.
func ParseWithStats(r io.Reader) (iter.Seq[domain.PointRecord], *ParseStats) {
	stats := &ParseStats{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	consumed := false
	seq := func(yield func(domain.PointRecord) bool) {
		if consumed {
			return
		}
		consumed = true

		header := true
		for scanner.Scan() {
			if header {
				header = false
				continue
			}

			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			stats.Lines++

			rec, ok := parseLine(line)
			if !ok {
				stats.Skipped++
				continue
			}
			stats.Records++
			if !rec.Rate.Valid {
				stats.InvalidRates++
			}
			if !yield(rec) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			slog.Warn("record parsing stopped early", "error", err, "records", stats.Records)
		}
	}
	return seq, stats
}

func parseLine(line string) (domain.PointRecord, bool) {
	fields := strings.Split(line, ",")
	if len(fields) != recordFields {
		return domain.PointRecord{}, false
	}

	lat, ok := parseCoordinate(fields[1])
	if !ok {
		return domain.PointRecord{}, false
	}
	lon, ok := parseCoordinate(fields[2])
	if !ok {
		return domain.PointRecord{}, false
	}

	return domain.PointRecord{
		Name:     strings.TrimSpace(fields[0]),
		Location: domain.GeoPoint{Lat: lat, Lon: lon},
		Country:  strings.TrimSpace(fields[3]),
		Rate:     parseRate(fields[4]),
	}, true
}

func parseCoordinate(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// parseRate reads the leading integer of s ("12", "-3", "7.5" -> 7).
// No leading digits means the rate is invalid.
func parseRate(s string) domain.Rate {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return domain.InvalidRate()
	}
	v, err := strconv.Atoi(s[:end])
	if err != nil {
		return domain.InvalidRate()
	}
	return domain.RateOf(v)
}
