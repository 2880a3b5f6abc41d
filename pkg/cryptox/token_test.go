package cryptox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	for _, size := range []int{TokenSize128, TokenSize256, 24} {
		token, err := GenerateToken(size)
		require.NoError(t, err)
		require.NotEmpty(t, token)

		other, err := GenerateToken(size)
		require.NoError(t, err)
		require.NotEqual(t, token, other, "tokens should be unique")
	}
}

func TestGenerateToken_InvalidSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		_, err := GenerateToken(size)
		require.Error(t, err)
	}
}

func TestFingerprintToken(t *testing.T) {
	fp := FingerprintToken("AIzaSyExampleExampleExampleExample")

	require.NotEmpty(t, fp)
	require.Equal(t, fp, FingerprintToken("AIzaSyExampleExampleExampleExample"),
		"fingerprint should be deterministic")
	require.NotEqual(t, fp, FingerprintToken("different"),
		"different secrets should have different fingerprints")
	require.NotContains(t, fp, "AIzaSy", "fingerprint must not leak the secret")
}
