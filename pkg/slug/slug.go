package slug

import (
	"fmt"
	"regexp"
	"strings"
)

// stripRegexp deletes characters that carry no slug meaning (punctuation,
// symbols); hyphenRegexp then collapses the remaining separator runs.
// Stripping first keeps "Joe's Cafe" as "joes-cafe" rather than "joe-s-cafe".
var (
	stripRegexp  = regexp.MustCompile(`[^a-z0-9\s-]+`)
	hyphenRegexp = regexp.MustCompile(`[\s-]+`)
)

// validPattern matches a well-formed slug: lowercase alphanumerics and hyphens only.
var validPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// transliterations maps common non-ASCII letters to ASCII equivalents so
// that names like "Café Ömür" produce readable slugs.
var transliterations = strings.NewReplacer(
	"ç", "c", "ğ", "g", "ı", "i", "ö", "o", "ş", "s", "ü", "u",
	"á", "a", "à", "a", "â", "a", "ä", "a",
	"é", "e", "è", "e", "ê", "e", "ë", "e",
	"í", "i", "î", "i", "ï", "i",
	"ó", "o", "ô", "o",
	"ú", "u", "û", "u",
	"ñ", "n",
	"̇", "", // combining dot above, left over from lowercasing İ
)

// Generate creates a URL-friendly slug from the given name: lowercase,
// transliterate to ASCII, strip everything that is not alphanumeric,
// whitespace or a hyphen, collapse runs of whitespace and hyphens into a
// single hyphen, and trim edge hyphens.
//
// Examples:
//   - "Joe's Cafe"      → "joes-cafe"
//   - "Kadın Giyim"     → "kadin-giyim"
//   - "Hello   World!"  → "hello-world"
func Generate(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = transliterations.Replace(s)
	s = stripRegexp.ReplaceAllString(s, "")
	s = hyphenRegexp.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// IsValid reports whether s is a well-formed slug.
func IsValid(s string) bool {
	return validPattern.MatchString(s)
}

// Unique derives a slug from name that is free according to the exists
// oracle. When the base slug is taken it probes base-1, base-2, ...
// until a free candidate is found. The oracle performs one lookup per probe;
// collision chains are short in practice.
func Unique(name string, exists func(slug string) (bool, error)) (string, error) {
	base := Generate(name)

	taken, err := exists(base)
	if err != nil {
		return "", fmt.Errorf("check slug %q: %w", base, err)
	}
	if !taken {
		return base, nil
	}

	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s-%d", base, i)
		taken, err := exists(candidate)
		if err != nil {
			return "", fmt.Errorf("check slug %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
	}
}
