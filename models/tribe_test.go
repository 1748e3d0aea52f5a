package models

import "testing"

func TestJoinTypeString(t *testing.T) {
	tests := []struct {
		joinType JoinType
		want     string
	}{
		{JoinTypePublic, "PUBLIC"},
		{JoinTypePrivate, "PRIVATE"},
		{JoinTypeInviteOnly, "INVITE_ONLY"},
		{JoinTypeInviteCode, "INVITE_CODE"},
		{JoinType(42), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.joinType.String(); got != tt.want {
			t.Errorf("JoinType(%d).String() = %q, want %q", tt.joinType, got, tt.want)
		}
	}
}

func TestMemberStatusString(t *testing.T) {
	tests := []struct {
		status MemberStatus
		want   string
	}{
		{MemberNone, "NONE"},
		{MemberPending, "PENDING"},
		{MemberActive, "ACTIVE"},
		{MemberBanned, "BANNED"},
		{MemberStatus(42), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("MemberStatus(%d).String() = %q, want %q", tt.status, got, tt.want)
		}
	}
}
