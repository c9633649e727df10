package phone

import "testing"

func TestNormalizeE164(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"+91 98765 43210", "+919876543210"},
		{"09876543210", "+919876543210"},
		{"  +14155552671 ", "+14155552671"},
		{"not-a-number", "not-a-number"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeE164(tt.in); got != tt.want {
			t.Errorf("NormalizeE164(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsValid(t *testing.T) {
	if !IsValid("+919876543210") {
		t.Error("valid international number rejected")
	}
	if !IsValid("9876543210") {
		t.Error("valid regional number rejected")
	}
	if IsValid("12") {
		t.Error("junk accepted")
	}
	if IsValid("") {
		t.Error("empty accepted")
	}
}
