package core

import (
	"testing"
)

func TestParseDecimalToPaise(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{"whole rupees", "150", 15000, false},
		{"two decimals", "150.75", 15075, false},
		{"comma separator", "150,75", 15075, false},
		{"one decimal", "150.5", 15050, false},
		{"three decimals rounds up", "10.555", 1056, false},
		{"three decimals rounds down", "10.554", 1055, false},
		{"leading dot", ".50", 50, false},
		{"whitespace trimmed", "  42.00  ", 4200, false},
		{"empty", "", 0, true},
		{"zero rejected", "0", 0, true},
		{"zero decimal rejected", "0.00", 0, true},
		{"negative rejected", "-5", 0, true},
		{"plus sign rejected", "+5", 0, true},
		{"letters rejected", "12a", 0, true},
		{"two dots rejected", "1.2.3", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDecimalToPaise(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseDecimalToPaise(%q) expected error, got %d", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDecimalToPaise(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseDecimalToPaise(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestSplitEven(t *testing.T) {
	tests := []struct {
		name  string
		total Money
		n     int
		want  []int64
	}{
		{"exact division", Money{Paise: 30000}, 3, []int64{10000, 10000, 10000}},
		{"remainder to first shares", Money{Paise: 10000}, 3, []int64{3334, 3333, 3333}},
		{"two remainder paise", Money{Paise: 11}, 3, []int64{4, 4, 3}},
		{"single worker", Money{Paise: 777}, 1, []int64{777}},
		{"zero workers", Money{Paise: 100}, 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares := SplitEven(tt.total, tt.n)
			if len(shares) != len(tt.want) {
				t.Fatalf("SplitEven returned %d shares, want %d", len(shares), len(tt.want))
			}
			var sum int64
			for i, s := range shares {
				if s.Paise != tt.want[i] {
					t.Errorf("share[%d] = %d, want %d", i, s.Paise, tt.want[i])
				}
				sum += s.Paise
			}
			if tt.n > 0 && sum != tt.total.Paise {
				t.Errorf("shares sum to %d, want %d", sum, tt.total.Paise)
			}
		})
	}
}

func TestSplitHalf(t *testing.T) {
	tests := []struct {
		name        string
		total       Money
		wantA, wantB int64
	}{
		{"even split", Money{Paise: 80000}, 40000, 40000},
		{"odd paisa to first", Money{Paise: 101}, 51, 50},
		{"zero", Money{}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := SplitHalf(tt.total)
			if a.Paise != tt.wantA || b.Paise != tt.wantB {
				t.Errorf("SplitHalf(%d) = (%d, %d), want (%d, %d)",
					tt.total.Paise, a.Paise, b.Paise, tt.wantA, tt.wantB)
			}
			if a.Add(b) != tt.total {
				t.Errorf("halves do not reassemble: %d + %d != %d", a.Paise, b.Paise, tt.total.Paise)
			}
		})
	}
}

func TestPerThousand(t *testing.T) {
	tests := []struct {
		name  string
		units int64
		rate  Money
		want  int64
	}{
		{"exact thousand", 1000, Rupees(650), 65000},
		{"half run", 500, Rupees(650), 32500},
		{"rounds half up", 3, Money{Paise: 500}, 2},   // 1500/1000 = 1.5 -> 2
		{"rounds down", 3, Money{Paise: 400}, 1},      // 1200/1000 = 1.2 -> 1
		{"zero units", 0, Rupees(650), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PerThousand(tt.units, tt.rate)
			if got.Paise != tt.want {
				t.Errorf("PerThousand(%d, %d) = %d, want %d", tt.units, tt.rate.Paise, got.Paise, tt.want)
			}
		})
	}
}

func TestMoneyString(t *testing.T) {
	tests := []struct {
		m    Money
		want string
	}{
		{Money{Paise: 15075}, "150.75"},
		{Money{Paise: -5000}, "-50.00"},
		{Money{Paise: 5}, "0.05"},
		{Money{}, "0.00"},
	}
	for _, tt := range tests {
		if got := tt.m.String(); got != tt.want {
			t.Errorf("Money{%d}.String() = %q, want %q", tt.m.Paise, got, tt.want)
		}
	}
}
