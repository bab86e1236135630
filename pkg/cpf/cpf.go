// Package cpf validates and formats Brazilian individual taxpayer numbers as
// they are typed digit by digit on the kiosk keypad.
package cpf

import "strings"

// Length is the number of digits in a complete CPF.
const Length = 11

const maskTemplate = "___.___.___-__"

// Clean strips every non-digit rune. Longer inputs are not truncated.
func Clean(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Format progressively punctuates a partial CPF: a dot after the 3rd and 6th
// digit and a dash after the 9th. Callers clamp to Length before formatting.
func Format(input string) string {
	digits := Clean(input)
	var b strings.Builder
	b.Grow(len(digits) + 3)
	for i, r := range digits {
		switch i {
		case 3, 6:
			b.WriteByte('.')
		case 9:
			b.WriteByte('-')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// IsComplete reports whether input carries exactly Length digits.
func IsComplete(input string) bool {
	return len(Clean(input)) == Length
}

// Validate runs the two check digit algorithm and rejects repeated digits.
func Validate(input string) bool {
	digits := Clean(input)
	if len(digits) != Length {
		return false
	}
	if strings.Count(digits, digits[:1]) == Length {
		return false
	}

	nums := make([]int, Length)
	for i := range digits {
		nums[i] = int(digits[i] - '0')
	}
	return checkDigit(nums[:9]) == nums[9] && checkDigit(nums[:10]) == nums[10]
}

// checkDigit weights the prefix from len+1 down to 2.
func checkDigit(prefix []int) int {
	sum := 0
	weight := len(prefix) + 1
	for _, d := range prefix {
		sum += d * weight
		weight--
	}
	rem := (sum * 10) % 11
	if rem >= 10 {
		return 0
	}
	return rem
}

// Mask renders the typed digits into the ___.___.___-__ template, leaving
// underscores for the positions not yet typed.
func Mask(input string) string {
	digits := Clean(input)
	out := []byte(maskTemplate)
	next := 0
	for i := range out {
		if out[i] != '_' {
			continue
		}
		if next >= len(digits) {
			break
		}
		out[i] = digits[next]
		next++
	}
	return string(out)
}

// AppendDigit appends d to a partial CPF while fewer than Length digits are
// present and returns the reformatted value. Non-digit input is ignored.
func AppendDigit(current, d string) string {
	digits := Clean(current)
	add := Clean(d)
	for _, r := range add {
		if len(digits) >= Length {
			break
		}
		digits += string(r)
	}
	return Format(digits)
}

// Backspace drops the last typed digit and returns the reformatted value.
func Backspace(current string) string {
	digits := Clean(current)
	if digits == "" {
		return ""
	}
	return Format(digits[:len(digits)-1])
}

// Status summarizes inline feedback for the keypad display.
type Status string

const (
	StatusEmpty      Status = "empty"
	StatusIncomplete Status = "incomplete"
	StatusValid      Status = "valid"
	StatusInvalid    Status = "invalid"
)

// Check returns the feedback state for input.
func Check(input string) Status {
	switch n := len(Clean(input)); {
	case n == 0:
		return StatusEmpty
	case n < Length:
		return StatusIncomplete
	case Validate(input):
		return StatusValid
	}
	return StatusInvalid
}
