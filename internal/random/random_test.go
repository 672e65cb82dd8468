package random

import "testing"

func TestRandom_GeneratesUniqueTokens(t *testing.T) {
	seen := map[string]bool{}

	for i := 0; i < 100; i++ {
		token, err := Token(32)
		if err != nil {
			t.Fatal("failed to generate token:", err)
		}
		if token == "" {
			t.Fatal("generated an empty token")
		}
		if seen[token] {
			t.Fatal("generated a duplicate token:", token)
		}
		seen[token] = true
	}
}

func TestRandom_BytesMatchesRequestedLength(t *testing.T) {
	b, err := Bytes(32)
	if err != nil {
		t.Fatal("failed to generate bytes:", err)
	}
	if len(b) != 32 {
		t.Errorf("incorrect number of bytes: want %v got %v", 32, len(b))
	}
}
