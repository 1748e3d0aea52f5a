package security

import (
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

func TestViewerTokenRoundTrip(t *testing.T) {
	viewer := common.HexToAddress("0x00000000000000000000000000000000000000Aa")

	token, err := GenerateViewerToken(42, viewer, "secret", time.Hour)
	if err != nil {
		t.Fatalf("GenerateViewerToken() error = %v", err)
	}

	claims, err := ValidateViewerToken(token, "secret")
	if err != nil {
		t.Fatalf("ValidateViewerToken() error = %v", err)
	}
	if claims.PostID != 42 {
		t.Errorf("PostID = %d, want 42", claims.PostID)
	}
	if claims.Viewer != strings.ToLower(viewer.Hex()) {
		t.Errorf("Viewer = %q, want %q", claims.Viewer, strings.ToLower(viewer.Hex()))
	}
}

func TestValidateViewerToken_WrongSecret(t *testing.T) {
	token, err := GenerateViewerToken(42, common.Address{}, "secret", time.Hour)
	if err != nil {
		t.Fatalf("GenerateViewerToken() error = %v", err)
	}
	if _, err := ValidateViewerToken(token, "other-secret"); err == nil {
		t.Error("token signed with a different secret must be rejected")
	}
}

func TestValidateViewerToken_Expired(t *testing.T) {
	token, err := GenerateViewerToken(42, common.Address{}, "secret", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateViewerToken() error = %v", err)
	}
	if _, err := ValidateViewerToken(token, "secret"); err == nil {
		t.Error("expired token must be rejected")
	}
}

func TestGenerateInviteCode(t *testing.T) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := GenerateInviteCode(12)
	if len(code) != 12 {
		t.Fatalf("len = %d, want 12", len(code))
	}
	for _, r := range code {
		if !strings.ContainsRune(charset, r) {
			t.Errorf("code contains %q outside the charset", r)
		}
	}

	if GenerateInviteCode(12) == code && GenerateInviteCode(12) == code {
		t.Error("repeated generations should not all collide")
	}
}
