package query

import (
	"testing"

	"github.com/gyaneshwarpardhi/netbench/internal/record"
)

func rec(region, src, dst string, latency, bandwidth float64) record.Record {
	return record.Record{
		Region:        region,
		Source:        src,
		Destination:   dst,
		LatencyMicros: latency,
		BandwidthGbps: bandwidth,
	}
}

func TestMatch(t *testing.T) {
	west := rec("westeurope", "az1", "az2", 1500, 12)
	same := rec("eastasia", "az3", "az3", 8, 25)

	cases := []struct {
		name string
		expr string
		r    record.Record
		want bool
	}{
		{"gt true", "latency_us > 1000", west, true},
		{"gt false", "latency_us > 1000", same, false},
		{"gte boundary", "latency_us >= 1500", west, true},
		{"lte", "bandwidth_gbps <= 12", west, true},
		{"string eq", `region == "westeurope"`, west, true},
		{"string neq", `region != "westeurope"`, same, true},
		{"single quotes", `source == 'az1'`, west, true},
		{"contains", `region contains "europe"`, west, true},
		{"matches", `region matches "^east"`, same, true},
		{"matches escaped dot", `region matches "west\.europe"`, west, false},
		{"bare bool", "intra_zone", same, true},
		{"not bool", "NOT intra_zone", west, true},
		{"bool literal", "intra_zone == false", west, true},
		{"and", `latency_us > 1000 AND destination == "az2"`, west, true},
		{"and short", `latency_us > 1000 AND destination == "az3"`, west, false},
		{"or", `intra_zone OR latency_us > 1000`, west, true},
		{"lower case keywords", `intra_zone or latency_us > 1000`, west, true},
		{"parens", `NOT (intra_zone OR region == "eastasia")`, same, false},
		{"precedence", `intra_zone OR latency_us > 1000 AND bandwidth_gbps > 100`, same, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e, err := Parse(tc.expr)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tc.expr, err)
			}
			if got := e.Match(tc.r); got != tc.want {
				t.Errorf("Match(%q) = %v, want %v", tc.expr, got, tc.want)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	cases := []string{
		"",
		"unknown_field > 3",
		"latency_us > \"fast\"",
		`region > "a"`,
		`region matches "("`,
		"latency_us contains 3",
		"intra_zone > true",
		"(latency_us > 3",
		`region == "unterminated`,
		"latency_us = 3",
		"latency_us > 3 extra",
	}
	for _, src := range cases {
		if _, err := Parse(src); err == nil {
			t.Errorf("Parse(%q) expected error", src)
		}
	}
}

func TestTextRoundTrip(t *testing.T) {
	var e Expr
	if err := e.UnmarshalText([]byte(" latency_us > 10 ")); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	out, _ := e.MarshalText()
	if string(out) != "latency_us > 10" {
		t.Errorf("MarshalText = %q", out)
	}
	if !e.Match(rec("r", "a", "b", 11, 0)) {
		t.Error("expected match after UnmarshalText")
	}
}
