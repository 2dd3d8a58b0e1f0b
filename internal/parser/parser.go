package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Choice is a menu selection.
type Choice int

// Menu selections, numbered as they appear on screen.
const (
	CreateStudent    Choice = iota + 1 // 1. Create Student
	ReadStudent                        // 2. Read Student (by ID)
	AddGrade                           // 3. Add Grade to Student
	UpdateName                         // 4. Update Student Name
	DeleteStudent                      // 5. Delete Student
	CalculateAverage                   // 6. Calculate Average
	Exit                               // 7. Exit
)

var (
	// ErrInvalidID is returned when an ID is not a plain digit string.
	ErrInvalidID = errors.New("invalid ID")
	// ErrInvalidGrade is returned when a grade is not a decimal number.
	ErrInvalidGrade = errors.New("invalid grade")
	// ErrInvalidChoice is returned for anything other than the digits 1 to 7.
	ErrInvalidChoice = errors.New("invalid choice")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ParseChoice reads a menu selection. Surrounding whitespace is ignored,
// but the rest must be exactly one digit from 1 to 7: "01" and "+1" are
// rejected.
func ParseChoice(raw string) (Choice, error) {
	s := strings.TrimSpace(raw)
	if len(s) != 1 || s[0] < '1' || s[0] > '7' {
		return 0, fmt.Errorf("%w: %q", ErrInvalidChoice, raw)
	}
	return Choice(s[0] - '0'), nil
}

// ParseID accepts only a plain string of ASCII digits. Signs, spaces and
// values that overflow int64 are rejected.
func ParseID(raw string) (int64, error) {
	if err := validate.Var(raw, "required,number"); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, raw)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, raw)
	}
	return id, nil
}

// ParseGrade reads a decimal floating point grade, ignoring surrounding
// whitespace. Single underscores between digits are allowed as separators
// ("1_000.5"); hexadecimal forms are rejected.
func ParseGrade(raw string) (float64, error) {
	s, ok := stripDigitSeparators(strings.TrimSpace(raw))
	if !ok || strings.ContainsAny(s, "xX") {
		return 0, fmt.Errorf("%w: %q", ErrInvalidGrade, raw)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidGrade, raw)
	}
	return v, nil
}

// stripDigitSeparators removes underscores that sit between two digits.
// Any other underscore makes the input invalid.
func stripDigitSeparators(s string) (string, bool) {
	if !strings.Contains(s, "_") {
		return s, true
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '_' {
			b.WriteByte(s[i])
			continue
		}
		if i == 0 || i == len(s)-1 || !isDigit(s[i-1]) || !isDigit(s[i+1]) {
			return "", false
		}
	}
	return b.String(), true
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
