// Package security provides off-ledger credentials: signed viewer access
// tokens for encrypted posts, and random invite code generation. Transaction
// signing and key management stay with the ledger gateway.
package security

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/golang-jwt/jwt/v5"
)

// ViewerClaims prove to an off-chain content server that a viewer was
// authorized on the ledger to access an encrypted post.
type ViewerClaims struct {
	PostID uint64 `json:"post_id"`
	Viewer string `json:"viewer"`
	jwt.RegisteredClaims
}

// GenerateViewerToken creates a signed access token for a viewer of an
// encrypted post.
func GenerateViewerToken(postID uint64, viewer common.Address, secret string, ttl time.Duration) (string, error) {
	claims := &ViewerClaims{
		PostID: postID,
		Viewer: strings.ToLower(viewer.Hex()),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateViewerToken validates and parses a viewer access token.
func ValidateViewerToken(tokenString, secret string) (*ViewerClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ViewerClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*ViewerClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

// GenerateInviteCode generates a cryptographically secure random invite
// code. Only the keccak hash of the code is ever written to the ledger.
func GenerateInviteCode(length int) string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)
	rand.Read(b)
	for i := range b {
		b[i] = charset[int(b[i])%len(charset)]
	}
	return string(b)
}
