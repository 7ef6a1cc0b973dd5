package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignedURLSignerRoundTrip(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, expiresAt, err := signer.Generate("job-1", "reports/semester.xlsx")
	require.NoError(t, err)

	parsed, err := signer.Parse(token, false)
	require.NoError(t, err)
	assert.Equal(t, "job-1", parsed.ResourceID)
	assert.Equal(t, "reports/semester.xlsx", parsed.Path)
	assert.WithinDuration(t, expiresAt, parsed.ExpiresAt, time.Second)
}

func TestSignedURLSignerExpiry(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)
	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	signer.now = func() time.Time { return base }

	token, _, err := signer.Generate("job-1", "reports/file.csv")
	require.NoError(t, err)

	signer.now = func() time.Time { return base.Add(2 * time.Minute) }
	_, err = signer.Parse(token, false)
	assert.ErrorIs(t, err, ErrTokenExpired)

	parsed, err := signer.Parse(token, true)
	require.NoError(t, err)
	assert.Equal(t, "reports/file.csv", parsed.Path)
}

func TestSignedURLSignerRejectsTampering(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, _, err := signer.Generate("job-1", "reports/file.csv")
	require.NoError(t, err)

	other := NewSignedURLSigner("other", time.Hour)
	_, err = other.Parse(token, false)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = signer.Parse("job-2"+token[len("job-1"):], false)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
