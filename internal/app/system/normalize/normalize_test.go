package normalize

import "testing"

func TestEmail(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"user@example.com", "user@example.com"},
		{"USER@EXAMPLE.COM", "user@example.com"},
		{"  User@Example.Com  ", "user@example.com"},
		{"", ""},
		{"   ", ""},
		{"Mixed.Case@Domain.ORG", "mixed.case@domain.org"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Email(tt.input)
			if got != tt.want {
				t.Errorf("Email(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"John Doe", "John Doe"},
		{"  John Doe  ", "John Doe"},
		{"", ""},
		{"   ", ""},
		{"UPPERCASE NAME", "UPPERCASE NAME"}, // Name preserves case
		{"lowercase name", "lowercase name"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Name(tt.input)
			if got != tt.want {
				t.Errorf("Name(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestLinkblue(t *testing.T) {
	tests := []struct {
		upn    string
		suffix string
		want   string
	}{
		{"jdoe123@uky.edu", "@uky.edu", "jdoe123"},
		{"JDoe123@UKY.EDU", "@uky.edu", "jdoe123"},
		{"  jdoe123@uky.edu  ", "@uky.edu", "jdoe123"},
		{"jdoe123", "@uky.edu", ""},
		{"jdoe123@gmail.com", "@uky.edu", ""},
		{"mallory@evil.com", "@uky.edu", ""},
		{"jdoe123@uky.edu", "", ""},
		{"", "@uky.edu", ""},
		{"   ", "@uky.edu", ""},
	}

	for _, tt := range tests {
		t.Run(tt.upn, func(t *testing.T) {
			got := Linkblue(tt.upn, tt.suffix)
			if got != tt.want {
				t.Errorf("Linkblue(%q, %q) = %q, want %q", tt.upn, tt.suffix, got, tt.want)
			}
		})
	}
}
