package service

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenService_RoundTrip(t *testing.T) {
	tokens := NewTokenService("test-access-secret")

	td, err := tokens.CreateToken(42)
	require.NoError(t, err)
	require.NotEmpty(t, td.AccessToken)
	require.NotEmpty(t, td.AccessUUID)

	req, err := http.NewRequest(http.MethodPost, "/v1/chat", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+td.AccessToken)

	details, err := tokens.ExtractTokenMetadata(req)
	require.NoError(t, err)
	require.Equal(t, uint(42), details.UserID)
	require.Equal(t, td.AccessUUID, details.AccessUUID)
}

func TestTokenService_RejectsMissingToken(t *testing.T) {
	tokens := NewTokenService("test-access-secret")

	req, err := http.NewRequest(http.MethodPost, "/v1/chat", nil)
	require.NoError(t, err)

	_, err = tokens.ExtractTokenMetadata(req)
	require.Error(t, err)
}

func TestTokenService_RejectsForeignSecret(t *testing.T) {
	minting := NewTokenService("secret-a")
	verifying := NewTokenService("secret-b")

	td, err := minting.CreateToken(1)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, "/v1/chat", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+td.AccessToken)

	_, err = verifying.ExtractTokenMetadata(req)
	require.Error(t, err)
}
