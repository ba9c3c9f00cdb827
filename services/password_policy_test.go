package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
		errMsg   string
	}{
		{
			name:     "Valid passphrase",
			password: "correct-horse-battery",
			wantErr:  false,
		},
		{
			name:     "Valid with digits",
			password: "agencija2026",
			wantErr:  false,
		},
		{
			name:     "Too short",
			password: "Short1!",
			wantErr:  true,
			errMsg:   "password must be at least 10 characters",
		},
		{
			name:     "Letters only",
			password: "onlyletterspassword",
			wantErr:  true,
			errMsg:   "password must contain a number, space or symbol",
		},
		{
			name:     "No letters",
			password: "1234567890!",
			wantErr:  true,
			errMsg:   "password must contain at least one letter",
		},
		{
			name:     "Multibyte counted as runes",
			password: "šđčćž-1",
			wantErr:  true,
			errMsg:   "at least 10 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIsWeakPassword(t *testing.T) {
	assert.True(t, IsWeakPassword("weak"))
	assert.False(t, IsWeakPassword("long-enough-pass"))
}
