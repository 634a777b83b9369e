package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignedURLSignerRoundTrip(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, expiresAt, err := signer.Generate("exp-1", "timetable/exp-1.pdf")
	require.NoError(t, err)

	ref, path, parsedExpiry, err := signer.Parse(token, false)
	require.NoError(t, err)
	assert.Equal(t, "exp-1", ref)
	assert.Equal(t, "timetable/exp-1.pdf", path)
	assert.True(t, expiresAt.Equal(parsedExpiry))
}

func TestSignedURLSignerRejectsTamperingAndExpiry(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)
	token, _, err := signer.Generate("exp-1", "timetable/exp-1.csv")
	require.NoError(t, err)

	other := NewSignedURLSigner("other", time.Minute)
	_, _, _, err = other.Parse(token, false)
	assert.ErrorIs(t, err, ErrTokenSignature)

	_, _, _, err = signer.Parse("not-a-token", false)
	assert.ErrorIs(t, err, ErrTokenMalformed)

	signer.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, _, _, err = signer.Parse(token, false)
	assert.ErrorIs(t, err, ErrTokenExpired)

	ref, _, _, err := signer.Parse(token, true)
	require.NoError(t, err)
	assert.Equal(t, "exp-1", ref)
}
