package parser

import (
	"errors"
	"testing"
)

func TestParseID(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected int64
		wantErr  bool
	}{
		{name: "Simple", input: "1", expected: 1},
		{name: "Leading zeros", input: "007", expected: 7},
		{name: "Large", input: "9223372036854775807", expected: 9223372036854775807},
		{name: "Empty", input: "", wantErr: true},
		{name: "Negative", input: "-1", wantErr: true},
		{name: "Plus sign", input: "+1", wantErr: true},
		{name: "Surrounding spaces", input: " 1 ", wantErr: true},
		{name: "Decimal", input: "1.5", wantErr: true},
		{name: "Letters", input: "abc", wantErr: true},
		{name: "Overflow", input: "9223372036854775808", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			id, err := ParseID(tc.input)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidID) {
					t.Fatalf("Expected ErrInvalidID for %q, but got %v", tc.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseID(%q) returned an unexpected error: %v", tc.input, err)
			}
			if id != tc.expected {
				t.Errorf("Expected ID %d, but got %d", tc.expected, id)
			}
		})
	}
}

func TestParseGrade(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected float64
		wantErr  bool
	}{
		{name: "Integer", input: "90", expected: 90},
		{name: "Decimal", input: "85.5", expected: 85.5},
		{name: "Negative", input: "-3", expected: -3},
		{name: "Exponent", input: "1e2", expected: 100},
		{name: "Whitespace", input: "  72.25\t", expected: 72.25},
		{name: "Empty", input: "", wantErr: true},
		{name: "Text", input: "A+", wantErr: true},
		{name: "Comma decimal", input: "85,5", wantErr: true},
		{name: "Digit separator", input: "1_0", expected: 10},
		{name: "Separators in fraction", input: "1_000.2_5", expected: 1000.25},
		{name: "Leading underscore", input: "_10", wantErr: true},
		{name: "Trailing underscore", input: "10_", wantErr: true},
		{name: "Double underscore", input: "1__0", wantErr: true},
		{name: "Underscore beside point", input: "1_.5", wantErr: true},
		{name: "Hex float", input: "0x1p3", wantErr: true},
		{name: "Hex integer", input: "0X10", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := ParseGrade(tc.input)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidGrade) {
					t.Fatalf("Expected ErrInvalidGrade for %q, but got %v", tc.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseGrade(%q) returned an unexpected error: %v", tc.input, err)
			}
			if v != tc.expected {
				t.Errorf("Expected grade %v, but got %v", tc.expected, v)
			}
		})
	}
}

func TestParseChoice(t *testing.T) {
	for raw, want := range map[string]Choice{
		"1":   CreateStudent,
		" 6 ": CalculateAverage,
		"7\r": Exit,
		"4":   UpdateName,
	} {
		got, err := ParseChoice(raw)
		if err != nil {
			t.Fatalf("ParseChoice(%q) returned an unexpected error: %v", raw, err)
		}
		if got != want {
			t.Errorf("ParseChoice(%q) = %d, expected %d", raw, got, want)
		}
	}

	for _, raw := range []string{"", "0", "8", "one", "1.0", "+1", "01", "007", "1 2"} {
		if _, err := ParseChoice(raw); !errors.Is(err, ErrInvalidChoice) {
			t.Errorf("Expected ErrInvalidChoice for %q, but got %v", raw, err)
		}
	}
}
