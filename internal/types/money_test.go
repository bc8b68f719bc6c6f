package types

import "testing"

func TestMoneyFromMajor(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want int64
	}{
		{"whole", 170, 17000},
		{"half paise rounds up", 102.505, 10251},
		{"exact", 102.5, 10250},
		{"float noise", 0.1 + 0.2, 30},
		{"zero", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MoneyFromMajor(tt.in, "")
			if got.Amount != tt.want {
				t.Fatalf("amount = %d, want %d", got.Amount, tt.want)
			}
			if got.Currency != DefaultCurrency {
				t.Fatalf("currency = %q", got.Currency)
			}
		})
	}
}

func TestRound2(t *testing.T) {
	if got := Round2(1.005); got != 1.01 {
		t.Fatalf("Round2(1.005) = %v", got)
	}
	if got := Round2(3.14159); got != 3.14 {
		t.Fatalf("Round2(3.14159) = %v", got)
	}
}

func TestPointValid(t *testing.T) {
	if !(Point{Lat: 28.61, Lng: 77.2}).Valid() {
		t.Fatal("delhi should be valid")
	}
	if (Point{Lat: 91, Lng: 0}).Valid() {
		t.Fatal("lat 91 should be invalid")
	}
	if (Point{Lat: 0, Lng: -181}).Valid() {
		t.Fatal("lng -181 should be invalid")
	}
}

func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()
	if len(a) != 32 || a == b {
		t.Fatalf("unexpected ids %q %q", a, b)
	}
}
