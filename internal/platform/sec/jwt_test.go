// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/libris/internal/platform/sec"
)

func newKeyPair(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

/*
TestTokenService_RoundTrip signs a staff token and verifies it back.
*/
func TestTokenService_RoundTrip(t *testing.T) {
	key := newKeyPair(t)
	service := sec.NewTokenServiceFromKeys(key, &key.PublicKey, "libris.app")

	token, err := service.GenerateAccessToken("staff-1", "maryam", sec.RoleLibrarian, time.Hour)
	require.NoError(t, err)

	claims, err := service.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "staff-1", claims.UserID)
	assert.Equal(t, "librarian", claims.Role)
}

/*
TestTokenService_RejectsForeignIssuer ensures tokens from another issuer fail.
*/
func TestTokenService_RejectsForeignIssuer(t *testing.T) {
	key := newKeyPair(t)
	signer := sec.NewTokenServiceFromKeys(key, &key.PublicKey, "elsewhere")
	verifier := sec.NewTokenServiceFromKeys(nil, &key.PublicKey, "libris.app")

	token, err := signer.GenerateAccessToken("staff-1", "maryam", sec.RoleAdmin, time.Hour)
	require.NoError(t, err)

	_, err = verifier.VerifyToken(token)
	assert.Error(t, err)
}

/*
TestTokenService_VerifyOnly ensures a service without a private key cannot sign.
*/
func TestTokenService_VerifyOnly(t *testing.T) {
	key := newKeyPair(t)
	verifier := sec.NewTokenServiceFromKeys(nil, &key.PublicKey, "libris.app")

	_, err := verifier.GenerateAccessToken("staff-1", "maryam", sec.RoleAdmin, time.Hour)
	assert.ErrorIs(t, err, sec.ErrNoPrivateKey)
}

/*
TestRole_AtLeast checks the staff hierarchy.
*/
func TestRole_AtLeast(t *testing.T) {
	tests := []struct {
		name   string
		role   sec.Role
		target sec.Role
		want   bool
	}{
		{"admin_over_librarian", sec.RoleAdmin, sec.RoleLibrarian, true},
		{"librarian_equal", sec.RoleLibrarian, sec.RoleLibrarian, true},
		{"volunteer_under_librarian", sec.RoleVolunteer, sec.RoleLibrarian, false},
		{"unknown_under_member", sec.Role("guest"), sec.RoleMember, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.role.AtLeast(tt.target))
		})
	}
}
