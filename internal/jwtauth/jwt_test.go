package jwtauth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	dErrors "grantgate/pkg/domain-errors"
)

func TestValidateToken(t *testing.T) {
	svc := New("test-signing-key", "grantgate-test")

	t.Run("round trip", func(t *testing.T) {
		token, err := svc.Generate("user-1", "admin", time.Hour)
		require.NoError(t, err)

		claims, err := svc.ValidateToken(token)
		require.NoError(t, err)
		require.Equal(t, "user-1", claims.UserID)
		require.Equal(t, "admin", claims.Role)
	})

	t.Run("expired token rejected", func(t *testing.T) {
		token, err := svc.Generate("user-1", "applicant", -time.Minute)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		require.Error(t, err)
		require.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
	})

	t.Run("wrong key rejected", func(t *testing.T) {
		other := New("different-key", "grantgate-test")
		token, err := other.Generate("user-1", "applicant", time.Hour)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		require.Error(t, err)
	})

	t.Run("garbage rejected", func(t *testing.T) {
		_, err := svc.ValidateToken("not-a-token")
		require.Error(t, err)
		require.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
	})
}
