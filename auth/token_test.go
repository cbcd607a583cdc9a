package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenMatches(t *testing.T) {
	tests := []struct {
		name      string
		presented string
		expected  string
		want      bool
	}{
		{"exact match", "s3cret", "s3cret", true},
		{"mismatch", "wrong", "s3cret", false},
		{"empty presented", "", "s3cret", false},
		{"case sensitive", "S3CRET", "s3cret", false},
		{"no trimming", " s3cret", "s3cret", false},
		{"prefix is not a match", "s3cret-more", "s3cret", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TokenMatches(tt.presented, tt.expected))
		})
	}
}
