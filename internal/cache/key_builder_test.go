package cache

import "testing"

func TestDerivePhraseIDDeterministic(t *testing.T) {
	phrases := []string{"Hello world", "olá, mundo", "  padded  ", "日本語のテキスト", "a"}
	for _, p := range phrases {
		first := DerivePhraseID(p)
		second := DerivePhraseID(p)
		if first != second {
			t.Fatalf("DerivePhraseID(%q) not stable: %s vs %s", p, first, second)
		}
		if !ValidPhraseID(first) {
			t.Fatalf("DerivePhraseID(%q) produced malformed id %q", p, first)
		}
	}
}

func TestDerivePhraseIDKnownValue(t *testing.T) {
	// sha256("Hello world")
	const want = "64ec88ca00b268e5ba1a35678a1b5316d212f4f366b2477232534a8aeca37f3c"
	if got := DerivePhraseID("Hello world"); got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestDerivePhraseIDDistinct(t *testing.T) {
	// Byte-exact equivalence: case, surrounding space and composition all matter.
	pairs := [][2]string{
		{"Hello world", "hello world"},
		{"Hello world", "Hello world "},
		{"\u00e9", "e\u0301"},
		{"abc", "abd"},
	}
	for _, p := range pairs {
		if DerivePhraseID(p[0]) == DerivePhraseID(p[1]) {
			t.Fatalf("expected distinct ids for %q and %q", p[0], p[1])
		}
	}

	seen := make(map[string]string)
	for i := 0; i < 5000; i++ {
		phrase := "phrase-" + string(rune('a'+i%26)) + "-" + itoa(i)
		id := DerivePhraseID(phrase)
		if prev, ok := seen[id]; ok {
			t.Fatalf("collision between %q and %q", prev, phrase)
		}
		seen[id] = phrase
	}
}

func TestValidPhraseID(t *testing.T) {
	cases := map[string]bool{
		DerivePhraseID("x"): true,
		"":                  false,
		"abc":               false,
		"64EC88CA00B268E5BA1A35678A1B5316D212F4F366B2477232534A8AECA37F3C": false,
		"64ec88ca00b268e5ba1a35678a1b5316d212f4f366b2477232534a8aeca37f3g": false,
	}
	for id, want := range cases {
		if got := ValidPhraseID(id); got != want {
			t.Errorf("ValidPhraseID(%q) = %v, want %v", id, got, want)
		}
	}
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var b []byte
	for i > 0 {
		b = append([]byte{byte('0' + i%10)}, b...)
		i /= 10
	}
	return string(b)
}
