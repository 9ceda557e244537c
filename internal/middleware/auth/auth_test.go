package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "b4952c3809196592c026529df00774e46bfb5be0"

func TestBuildAndParseToken(t *testing.T) {
	token, err := BuildJWTString(testSecret)
	require.NoError(t, err)

	sessionID, err := GetSessionID(token, testSecret)
	require.NoError(t, err)
	assert.NotEmpty(t, sessionID)
}

func TestGetSessionID_WrongSecret(t *testing.T) {
	token, err := BuildJWTString(testSecret)
	require.NoError(t, err)

	_, err = GetSessionID(token, "another-secret")
	assert.ErrorIs(t, err, ErrTokenNotValid)
}

func TestGetSessionID_Garbage(t *testing.T) {
	_, err := GetSessionID("not-a-token", testSecret)
	assert.ErrorIs(t, err, ErrTokenNotValid)
}

func TestTokensCarryDistinctSessions(t *testing.T) {
	first, err := BuildJWTString(testSecret)
	require.NoError(t, err)
	second, err := BuildJWTString(testSecret)
	require.NoError(t, err)

	firstID, err := GetSessionID(first, testSecret)
	require.NoError(t, err)
	secondID, err := GetSessionID(second, testSecret)
	require.NoError(t, err)

	assert.NotEqual(t, firstID, secondID)
}
