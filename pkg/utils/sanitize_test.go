package utils

import "testing"

func TestSanitizeUTF8(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "valid string untouched",
			input: "привет, world",
			want:  "привет, world",
		},
		{
			name:  "invalid byte replaced",
			input: "ab\xffcd",
			want:  "ab�cd",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeUTF8(tt.input); got != tt.want {
				t.Errorf("SanitizeUTF8(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDedent(t *testing.T) {
	input := "    line one\n      line two\n    line three"
	want := "line one\n  line two\nline three"
	if got := Dedent(input); got != want {
		t.Errorf("Dedent() = %q, want %q", got, want)
	}
}

func TestDedent_NoIndent(t *testing.T) {
	input := "a\n  b"
	if got := Dedent(input); got != input {
		t.Errorf("Dedent() = %q, want unchanged %q", got, input)
	}
}

func TestCollapseBlankLines(t *testing.T) {
	input := "a\n\n\n\nb\n\n"
	want := "a\n\nb"
	if got := CollapseBlankLines(input); got != want {
		t.Errorf("CollapseBlankLines() = %q, want %q", got, want)
	}
}
