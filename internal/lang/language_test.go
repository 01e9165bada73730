package lang_test

// Notes:
// - Black-box testing: all tests use the public API only (lang_test package)
// - Empty string behavior is intentionally tested: "" means "auto-detect" for Validate,
//   and "not specified" for BaseCode (returns empty)
// - validLanguages map coverage: we test a representative sample (common + uncommon + invalid)
//   rather than exhaustive 55+ codes, since the logic is a simple map lookup

import (
	"errors"
	"strings"
	"testing"

	"callscribe/internal/lang"
)

// ---------------------------------------------------------------------------
// TestNormalize - Normalizes language codes to lowercase with hyphen separator
// ---------------------------------------------------------------------------

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		// Standard cases
		{name: "lowercase code", input: "en", want: "en"},
		{name: "uppercase code", input: "EN", want: "en"},
		{name: "mixed case code", input: "En", want: "en"},

		// Locale with hyphen
		{name: "locale with hyphen lowercase", input: "pt-br", want: "pt-br"},
		{name: "locale with hyphen uppercase", input: "PT-BR", want: "pt-br"},
		{name: "locale with hyphen mixed", input: "pt-BR", want: "pt-br"},

		// Locale with underscore (converted to hyphen)
		{name: "locale with underscore", input: "pt_BR", want: "pt-br"},
		{name: "locale with underscore uppercase", input: "PT_BR", want: "pt-br"},

		// Edge cases
		{name: "empty string", input: "", want: ""},
		{name: "multiple hyphens", input: "zh-hans-cn", want: "zh-hans-cn"},
		{name: "multiple underscores", input: "zh_hans_cn", want: "zh-hans-cn"},
		{name: "mixed separators", input: "zh_hans-CN", want: "zh-hans-cn"},

		// Idempotence: normalizing twice gives same result
		{name: "already normalized", input: "pt-br", want: "pt-br"},

		// Characters not handled (documented behavior)
		{name: "double underscore preserved as double hyphen", input: "pt__BR", want: "pt--br"},
		{name: "spaces not trimmed", input: " en ", want: " en "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := lang.Normalize(tt.input)
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{"EN", "pt_BR", "zh-Hans-CN", "fr-CA", ""}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			t.Parallel()

			once := lang.Normalize(input)
			twice := lang.Normalize(once)
			if once != twice {
				t.Errorf("Normalize is not idempotent: Normalize(%q) = %q, Normalize(%q) = %q",
					input, once, once, twice)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestValidate - Validates language codes against supported ISO 639-1 codes
// ---------------------------------------------------------------------------

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		// Empty string = auto-detect (valid)
		{name: "empty string auto-detect", input: "", wantErr: false},

		// Valid common languages
		{name: "english", input: "en", wantErr: false},
		{name: "french", input: "fr", wantErr: false},
		{name: "spanish", input: "es", wantErr: false},
		{name: "chinese", input: "zh", wantErr: false},
		{name: "japanese", input: "ja", wantErr: false},

		// Valid less common languages (sample from validLanguages)
		{name: "swahili", input: "sw", wantErr: false},
		{name: "tagalog", input: "tl", wantErr: false},
		{name: "macedonian", input: "mk", wantErr: false},
		{name: "afrikaans", input: "af", wantErr: false},

		// Valid locales (base language is valid)
		{name: "brazilian portuguese", input: "pt-BR", wantErr: false},
		{name: "canadian french", input: "fr-CA", wantErr: false},
		{name: "simplified chinese", input: "zh-CN", wantErr: false},
		{name: "british english", input: "en-GB", wantErr: false},

		// Case variations (should be normalized internally)
		{name: "uppercase", input: "EN", wantErr: false},
		{name: "mixed case locale", input: "Pt-Br", wantErr: false},
		{name: "underscore locale", input: "pt_BR", wantErr: false},

		// Unknown locale suffix with valid base (still valid)
		{name: "unknown locale suffix", input: "en-XXXXX", wantErr: false},
		{name: "french belgium", input: "fr-BE", wantErr: false},

		// Invalid codes
		{name: "invalid two letter", input: "xx", wantErr: true},
		{name: "invalid three letter", input: "xyz", wantErr: true},
		{name: "invalid numeric", input: "123", wantErr: true},
		{name: "invalid single letter", input: "e", wantErr: true},
		{name: "invalid locale with invalid base", input: "xx-YY", wantErr: true},

		// ISO 639-2/3 codes (not supported - we only support ISO 639-1)
		{name: "ISO 639-2 english", input: "eng", wantErr: true},
		{name: "ISO 639-2 french", input: "fra", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := lang.Validate(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidate_ErrorWrapsErrInvalid(t *testing.T) {
	t.Parallel()

	err := lang.Validate("xyz")
	if err == nil {
		t.Fatal("Validate(\"xyz\") should return an error")
	}

	if !errors.Is(err, lang.ErrInvalid) {
		t.Errorf("Validate(\"xyz\") error should wrap ErrInvalid, got: %v", err)
	}
}

func TestValidate_ErrorContainsOriginalCode(t *testing.T) {
	t.Parallel()

	err := lang.Validate("XYZ")
	if err == nil {
		t.Fatal("Validate(\"XYZ\") should return an error")
	}

	errMsg := err.Error()
	if !strings.Contains(errMsg, "XYZ") {
		t.Errorf("error message should contain original code \"XYZ\", got: %q", errMsg)
	}
}

// ---------------------------------------------------------------------------
// TestBaseCode - Extracts ISO 639-1 base code from locale
// ---------------------------------------------------------------------------

func TestBaseCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		// Simple codes (no change)
		{name: "english", input: "en", want: "en"},
		{name: "french", input: "fr", want: "fr"},

		// Locales (extract base)
		{name: "brazilian portuguese", input: "pt-BR", want: "pt"},
		{name: "canadian french", input: "fr-CA", want: "fr"},
		{name: "british english", input: "en-GB", want: "en"},
		{name: "simplified chinese", input: "zh-CN", want: "zh"},

		// Normalization applied
		{name: "uppercase", input: "EN", want: "en"},
		{name: "uppercase locale", input: "PT-BR", want: "pt"},
		{name: "underscore locale", input: "pt_BR", want: "pt"},
		{name: "mixed case", input: "Pt-Br", want: "pt"},

		// Edge cases
		{name: "empty string", input: "", want: ""},
		{name: "multiple hyphens takes first part", input: "zh-hans-cn", want: "zh"},
		{name: "multiple underscores takes first part", input: "zh_hans_cn", want: "zh"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := lang.BaseCode(tt.input)
			if got != tt.want {
				t.Errorf("BaseCode(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
