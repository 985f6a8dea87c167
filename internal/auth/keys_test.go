package auth

import "testing"

func TestHashKey(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "empty string",
			input: "",
			want:  "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		},
		{
			name:  "whitespace only is empty",
			input: "   ",
			want:  "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HashKey(tt.input); got != tt.want {
				t.Errorf("HashKey() = %v, want %v", got, tt.want)
			}
		})
	}

	if HashKey("  api-token  ") != HashKey("api-token") {
		t.Error("HashKey does not trim whitespace")
	}
	if len(HashKey("api-token")) != 64 {
		t.Error("HashKey did not return 64 hex chars")
	}
	if HashKey("key1") == HashKey("key2") {
		t.Error("Different keys produced same hash")
	}
}

func TestTokenMatches(t *testing.T) {
	expected := HashKey("s3cret")

	tests := []struct {
		name     string
		token    string
		expected string
		want     bool
	}{
		{"match", "s3cret", expected, true},
		{"match with padding", " s3cret\n", expected, true},
		{"mismatch", "nope", expected, false},
		{"empty expected", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TokenMatches(tt.token, tt.expected); got != tt.want {
				t.Errorf("TokenMatches(%q) = %v, want %v", tt.token, got, tt.want)
			}
		})
	}
}
