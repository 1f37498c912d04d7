package usecases_test

import (
	"slices"
	"strings"
	"testing"

	"github.com/samirrijal/dropmap/internal/core/domain"
	"github.com/samirrijal/dropmap/internal/core/usecases"
)

func TestParse_SkipsHeader(t *testing.T) {
	raw := "name,lat,lon,country,rate\nSchool A,10.5,20.25,KE,12\n"

	got := slices.Collect(usecases.Parse(raw))
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	want := domain.PointRecord{
		Name:     "School A",
		Location: domain.GeoPoint{Lat: 10.5, Lon: 20.25},
		Country:  "KE",
		Rate:     domain.RateOf(12),
	}
	if got[0] != want {
		t.Errorf("expected %+v, got %+v", want, got[0])
	}
}

func TestParse_HeaderOnly(t *testing.T) {
	for _, raw := range []string{"", "name,lat,lon,country,rate", "name,lat,lon,country,rate\n\n\n"} {
		if n := len(slices.Collect(usecases.Parse(raw))); n != 0 {
			t.Errorf("%q: expected no records, got %d", raw, n)
		}
	}
}

func TestParse_FirstLineAlwaysDiscarded(t *testing.T) {
	// a data-looking first line is still the header
	raw := "A,1,2,KE,3\nB,4,5,UG,6"
	got := slices.Collect(usecases.Parse(raw))
	if len(got) != 1 || got[0].Name != "B" {
		t.Fatalf("expected only B, got %+v", got)
	}
}

func TestParse_SkipsMalformedLines(t *testing.T) {
	raw := strings.Join([]string{
		"name,lat,lon,country,rate",
		"too,few,fields",
		"A,1,2,KE,3",
		"bad,lat,2,KE,3",
		"B,4,nope,KE,3",
		"C,1,2,KE,3,extra",
		"D,NaN,2,KE,3",
		"E,1,Inf,KE,3",
		"F,7,8,TZ,9",
	}, "\n")

	records, stats := usecases.ParseWithStats(strings.NewReader(raw))
	got := slices.Collect(records)

	var names []string
	for _, r := range got {
		names = append(names, r.Name)
	}
	if !slices.Equal(names, []string{"A", "F"}) {
		t.Errorf("expected [A F], got %v", names)
	}
	if stats.Lines != 8 || stats.Records != 2 || stats.Skipped != 6 {
		t.Errorf("unexpected stats %+v", *stats)
	}
}

func TestParse_RateLeadingInteger(t *testing.T) {
	tests := []struct {
		in   string
		want domain.Rate
	}{
		{"12", domain.RateOf(12)},
		{" 7 ", domain.RateOf(7)},
		{"7.9", domain.RateOf(7)},
		{"15%", domain.RateOf(15)},
		{"-3", domain.RateOf(-3)},
		{"+4", domain.RateOf(4)},
		{"", domain.InvalidRate()},
		{"n/a", domain.InvalidRate()},
		{"-", domain.InvalidRate()},
		{".5", domain.InvalidRate()},
	}

	for _, tt := range tests {
		raw := "h\nX,1,2,KE," + tt.in
		got := slices.Collect(usecases.Parse(raw))
		if len(got) != 1 {
			t.Fatalf("rate %q: expected record to be kept, got %d records", tt.in, len(got))
		}
		if got[0].Rate != tt.want {
			t.Errorf("rate %q: expected %v, got %v", tt.in, tt.want, got[0].Rate)
		}
	}
}

func TestParse_InvalidRateKeepsRecord(t *testing.T) {
	records, stats := usecases.ParseWithStats(strings.NewReader("h\nX,1,2,KE,\nY,1,2,KE,5"))
	got := slices.Collect(records)
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].Rate.Valid {
		t.Error("expected first rate to be invalid")
	}
	if stats.InvalidRates != 1 {
		t.Errorf("expected 1 invalid rate, got %d", stats.InvalidRates)
	}
}

func TestParse_CRLFAndWhitespace(t *testing.T) {
	raw := "name,lat,lon,country,rate\r\n  A , 1.5 , -2.5 , KE , 30 \r\n\r\n"
	got := slices.Collect(usecases.Parse(raw))
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	r := got[0]
	if r.Name != "A" || r.Country != "KE" || r.Location.Lat != 1.5 || r.Location.Lon != -2.5 || r.Rate != domain.RateOf(30) {
		t.Errorf("unexpected record %+v", r)
	}
}

func TestParse_PreservesOrder(t *testing.T) {
	raw := "h\nC,1,1,X,1\nA,2,2,X,2\nB,3,3,X,3"
	var names []string
	for r := range usecases.Parse(raw) {
		names = append(names, r.Name)
	}
	if !slices.Equal(names, []string{"C", "A", "B"}) {
		t.Errorf("expected input order, got %v", names)
	}
}

func TestParse_EarlyStop(t *testing.T) {
	raw := "h\nA,1,1,X,1\nB,2,2,X,2\nC,3,3,X,3"
	records, stats := usecases.ParseWithStats(strings.NewReader(raw))
	for r := range records {
		if r.Name == "A" {
			break
		}
	}
	if stats.Records != 1 {
		t.Errorf("expected parsing to stop after 1 record, got %d", stats.Records)
	}
}

func TestParse_SingleRecord(t *testing.T) {
	got := slices.Collect(usecases.Parse("h\na,1.0,2.0,US,5\n"))
	want := []domain.PointRecord{{
		Name:     "a",
		Location: domain.GeoPoint{Lat: 1, Lon: 2},
		Country:  "US",
		Rate:     domain.RateOf(5),
	}}
	if !slices.Equal(got, want) {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}
