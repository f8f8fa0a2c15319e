package validate_test

import (
	"strings"
	"testing"

	"github.com/carebridge/userhub/internal/validate"
)

func TestCheckPasswordStrength(t *testing.T) {
	tests := []struct {
		name      string
		password  string
		wantValid bool
	}{
		{"strong", "Str0ng!Pass", true},
		{"too short", "S1!a", false},
		{"no uppercase", "weak1pass!", false},
		{"no digit", "Weakpass!!", false},
		{"no special", "Weakpass11", false},
		{"common password", "password", false},
		{"long and varied", "C0rrect-Horse-Battery!", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			report := validate.CheckPasswordStrength(tc.password)
			if report.Valid != tc.wantValid {
				t.Fatalf("password %q: valid=%v want %v (issues: %v)", tc.password, report.Valid, tc.wantValid, report.Issues)
			}
			if !report.Valid && len(report.Issues) == 0 {
				t.Fatalf("invalid verdict must carry issues")
			}
		})
	}
}

func TestSequentialRunLowersScore(t *testing.T) {
	with := validate.CheckPasswordStrength("Xk9!mQabc7tt")
	without := validate.CheckPasswordStrength("Xk9!mQqrm7tt")

	if with.Score >= without.Score {
		t.Fatalf("sequential run should lower score: %d vs %d", with.Score, without.Score)
	}
}

func TestValidPhone(t *testing.T) {
	valid := []string{"(555) 123-4567", "5551234567", "15551234567", "+1 555 123 4567"}
	for _, p := range valid {
		if !validate.ValidPhone(p) {
			t.Fatalf("%q should be a valid phone", p)
		}
	}

	invalid := []string{"", "12345", "555-12", strings.Repeat("9", 16)}
	for _, p := range invalid {
		if validate.ValidPhone(p) {
			t.Fatalf("%q should be rejected", p)
		}
	}
}

func TestFormatPhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"5551234567", "(555) 123-4567"},
		{"15551234567", "+1 (555) 123-4567"},
		{"not-a-phone", "not-a-phone"}, // unknown shape passes through
	}

	for _, tc := range tests {
		if got := validate.FormatPhone(tc.in); got != tc.want {
			t.Fatalf("FormatPhone(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSanitizeString(t *testing.T) {
	if got := validate.SanitizeString("  Ann\x00\x1f Smith  "); got != "Ann Smith" {
		t.Fatalf("sanitize failed: %q", got)
	}

	long := strings.Repeat("a", 1500)
	if got := validate.SanitizeString(long); len(got) != 1000 {
		t.Fatalf("length cap failed: %d", len(got))
	}
}
