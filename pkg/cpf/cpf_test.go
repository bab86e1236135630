package cpf

import "testing"

func TestValidateGoldenVectors(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"12345678909", true},
		{"123.456.789-09", true},
		{"529.982.247-25", true},
		{"12345678900", false},
		{"11111111111", false},
		{"00000000000", false},
		{"1234567890", false},
		{"123456789091", false},
		{"", false},
		{"abc", false},
	}
	for _, tt := range tests {
		if got := Validate(tt.input); got != tt.want {
			t.Fatalf("Validate(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestValidateRejectsEveryRepeatedDigit(t *testing.T) {
	for d := '0'; d <= '9'; d++ {
		s := ""
		for i := 0; i < Length; i++ {
			s += string(d)
		}
		if Validate(s) {
			t.Fatalf("repeated digits %q should be invalid", s)
		}
	}
}

func TestFormatProgressive(t *testing.T) {
	tests := map[string]string{
		"":            "",
		"1":           "1",
		"123":         "123",
		"1234":        "123.4",
		"123456":      "123.456",
		"1234567":     "123.456.7",
		"123456789":   "123.456.789",
		"1234567890":  "123.456.789-0",
		"12345678909": "123.456.789-09",
		"123.4":       "123.4",
	}
	for in, want := range tests {
		if got := Format(in); got != want {
			t.Fatalf("Format(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCleanFormatIdempotent(t *testing.T) {
	for _, s := range []string{"1", "12a3", "123.456.789-09", "98-7", "4 5 6 7 8"} {
		once := Clean(Format(Clean(s)))
		if once != Clean(s) {
			t.Fatalf("clean(format(clean(%q))) = %q, want %q", s, once, Clean(s))
		}
	}
}

func TestIsComplete(t *testing.T) {
	for _, s := range []string{"", "123", "123.456.789-0", "123.456.789-09", "123456789012"} {
		want := len(Clean(s)) == Length
		if IsComplete(s) != want {
			t.Fatalf("IsComplete(%q) = %v, want %v", s, !want, want)
		}
	}
}

func TestMask(t *testing.T) {
	tests := map[string]string{
		"":                "___.___.___-__",
		"1":               "1__.___.___-__",
		"1234":            "123.4__.___-__",
		"123.456.789-0":   "123.456.789-0_",
		"12345678909":     "123.456.789-09",
		"123456789091234": "123.456.789-09",
	}
	for in, want := range tests {
		if got := Mask(in); got != want {
			t.Fatalf("Mask(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestAppendDigitClampsToLength(t *testing.T) {
	value := ""
	for _, d := range "123456789099" {
		value = AppendDigit(value, string(d))
	}
	if value != "123.456.789-09" {
		t.Fatalf("expected clamp at 11 digits, got %q", value)
	}
	if got := AppendDigit("123", "x"); got != "123" {
		t.Fatalf("non digits must be ignored, got %q", got)
	}
}

func TestBackspace(t *testing.T) {
	if got := Backspace("123.4"); got != "123" {
		t.Fatalf("expected 123, got %q", got)
	}
	if got := Backspace(""); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}

func TestCheck(t *testing.T) {
	tests := map[string]Status{
		"":               StatusEmpty,
		"123.4":          StatusIncomplete,
		"123.456.789-09": StatusValid,
		"123.456.789-00": StatusInvalid,
	}
	for in, want := range tests {
		if got := Check(in); got != want {
			t.Fatalf("Check(%q) = %s, want %s", in, got, want)
		}
	}
}
