package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsStrongPassword(t *testing.T) {
	tests := []struct {
		password string
		want     bool
	}{
		{"Password1!", true},
		{"Aa1!aaaa", true},
		{"password1!", false}, // no uppercase
		{"PASSWORD!!", false}, // no digit
		{"Password11", false}, // no special character
		{"Pa1!", false},       // too short
		{"", false},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, IsStrongPassword(tc.password), "password %q", tc.password)
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("Password1!")
	require.NoError(t, err)
	assert.NotEqual(t, "Password1!", hash)

	assert.True(t, CheckPasswordHash("Password1!", hash))
	assert.False(t, CheckPasswordHash("Password2!", hash))
}
