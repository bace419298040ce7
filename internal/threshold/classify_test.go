package threshold

import (
	"math"
	"testing"
)

func TestClassifyLowerIsBetter(t *testing.T) {
	cases := []struct {
		value float64
		want  Status
	}{
		{10, Good},
		{30, Good},
		{30.01, Warning},
		{45, Warning},
		{45.5, Poor},
		{-5, Good},
	}
	for _, tc := range cases {
		if got := Classify(tc.value, 30, 45, LowerIsBetter); got != tc.want {
			t.Fatalf("Classify(%v) = %s, want %s", tc.value, got, tc.want)
		}
	}
}

func TestClassifyHigherIsBetter(t *testing.T) {
	cases := []struct {
		value float64
		want  Status
	}{
		{45, Good},
		{30, Good},
		{29.9, Warning},
		{20, Warning},
		{19.99, Poor},
	}
	for _, tc := range cases {
		if got := Classify(tc.value, 30, 20, HigherIsBetter); got != tc.want {
			t.Fatalf("Classify(%v) = %s, want %s", tc.value, got, tc.want)
		}
	}
}

func TestClassifyMonotonic(t *testing.T) {
	for metric, band := range DefaultTable() {
		prev := band.Classify(-100)
		for v := -100.0; v <= 300; v += 0.5 {
			got := band.Classify(v)
			switch band.Direction {
			case LowerIsBetter:
				if got.Rank() < prev.Rank() {
					t.Fatalf("%s: status improved from %s to %s at %v", metric, prev, got, v)
				}
			case HigherIsBetter:
				if got.Rank() > prev.Rank() {
					t.Fatalf("%s: status worsened from %s to %s at %v", metric, prev, got, v)
				}
			}
			prev = got
		}
	}
}

func TestClassifyValueUndefined(t *testing.T) {
	band := DefaultTable()[MetricDSO]
	nan := math.NaN()
	inf := math.Inf(1)
	for _, v := range []*float64{nil, &nan, &inf} {
		if got := band.ClassifyValue(v); got != Unknown {
			t.Fatalf("expected unknown, got %s", got)
		}
	}
	v := 12.0
	if got := band.ClassifyValue(&v); got != Good {
		t.Fatalf("expected good, got %s", got)
	}
}

func TestTableMergeAndValidate(t *testing.T) {
	green := 40.0
	table := DefaultTable().Merge(Overrides{MetricDSO: {Green: &green}})
	band, err := table.Band(MetricDSO)
	if err != nil {
		t.Fatalf("band: %v", err)
	}
	if band.Direction != LowerIsBetter || band.Green != 40 || band.Yellow != 45 {
		t.Fatalf("unexpected merged band %+v", band)
	}
	if err := table.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if DefaultTable()[MetricDSO].Green != 30 {
		t.Fatalf("merge mutated the base table")
	}

	bad := Table{MetricDPO: {Green: 10, Yellow: 20, Direction: HigherIsBetter}}
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected validation error for inverted higher-is-better band")
	}
	if _, err := bad.Band(MetricCCC); err == nil {
		t.Fatalf("expected unknown metric error")
	}
	if got := bad.Classify(MetricCCC, nil); got != Unknown {
		t.Fatalf("expected unknown status for missing metric, got %s", got)
	}
}
