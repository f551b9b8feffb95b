package core

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half away from zero
		{"1.004", 100, true},
		{" 2.50 ", 250, true},
		{"0", 0, true},
		{"-1", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"1e3", 0, false},
		{"1E3", 0, false},
		{"10000000000000", MaxAmountPaise, true},
		{"10000000000000.01", 0, false},
		{"9223372036854775807", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyFormat(t *testing.T) {
	cases := []struct {
		in   Money
		want string
	}{
		{Money{Paise: 0}, "₹0.00"},
		{Money{Paise: 5}, "₹0.05"},
		{Money{Paise: 99900}, "₹999.00"},
		{Money{Paise: 100000}, "₹1,000.00"},
		{Money{Paise: 12345650}, "₹1,23,456.50"},
		{Money{Paise: 1234567800}, "₹1,23,45,678.00"},
		{Money{Paise: -250000}, "-₹2,500.00"},
	}
	for _, tc := range cases {
		if got := tc.in.Format(); got != tc.want {
			t.Errorf("Format(%d) = %q, want %q", tc.in.Paise, got, tc.want)
		}
	}
}

func TestMoneyString(t *testing.T) {
	if got := (Money{Paise: 123450}).String(); got != "1234.50" {
		t.Fatalf("got %q", got)
	}
}
