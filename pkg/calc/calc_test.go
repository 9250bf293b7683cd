package calc

import (
	"testing"
	"time"
)

func TestProgress(t *testing.T) {
	tests := []struct {
		name              string
		downloaded, total int
		want              int
	}{
		{"total_zero", 10, 0, 0},
		{"zero_downloaded", 0, 100, 0},
		{"half", 50, 100, 50},
		{"one_third", 1, 3, 33},
		{"two_thirds", 2, 3, 67},
		{"exact_100", 100, 100, 100},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := Progress(tc.downloaded, tc.total); got != tc.want {
				t.Fatalf("Progress(%d, %d) = %d; want %d", tc.downloaded, tc.total, got, tc.want)
			}
		})
	}
}

func TestFraction(t *testing.T) {
	tests := []struct {
		name        string
		done, total int
		want        float64
	}{
		{"total_zero", 3, 0, 0},
		{"start", 0, 4, 0},
		{"quarter", 1, 4, 0.25},
		{"complete", 4, 4, 1},
		{"over", 5, 4, 1},
		{"negative", -1, 4, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := Fraction(tc.done, tc.total); got != tc.want {
				t.Fatalf("Fraction(%d, %d) = %v; want %v", tc.done, tc.total, got, tc.want)
			}
		})
	}
}

func TestETA(t *testing.T) {
	const tolerance = 50 * time.Millisecond

	tests := []struct {
		name              string
		downloaded, total int
		elapsed           time.Duration
		want              time.Duration
	}{
		{"total_zero", 10, 0, time.Second, 0},
		{"nothing_downloaded", 0, 100, time.Second, 0},
		{"half", 50, 100, 2 * time.Second, 2 * time.Second},
		{"quarter", 25, 100, 4 * time.Second, 12 * time.Second},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ETA(tc.downloaded, tc.total, time.Now().Add(-tc.elapsed))

			diff := got - tc.want
			if diff < 0 {
				diff = -diff
			}

			if diff > tolerance {
				t.Fatalf("ETA(%d, %d) = %v; want approx %v", tc.downloaded, tc.total, got, tc.want)
			}
		})
	}
}
