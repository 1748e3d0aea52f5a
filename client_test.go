package tribes

import (
	"context"
	"testing"

	"github.com/tribeshq/tribes-go/content"
	"github.com/tribeshq/tribes-go/gateway/gatewaytest"
	"github.com/tribeshq/tribes-go/membership"
	"github.com/tribeshq/tribes-go/models"
)

func TestNewClient_RequiresGateway(t *testing.T) {
	if _, err := NewClient(nil, nil); err == nil {
		t.Fatal("expected error for nil gateway")
	}
}

func TestClientsDoNotShareCache(t *testing.T) {
	ledger := gatewaytest.New()

	first, err := NewClient(nil, ledger)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	second, err := NewClient(nil, ledger)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	if _, err := first.Membership.CreateTribe(context.Background(), membership.CreateTribeParams{
		Name:     "builders",
		Metadata: "{}",
		JoinType: models.JoinTypePublic,
	}); err != nil {
		t.Fatalf("CreateTribe() error = %v", err)
	}
	if _, err := first.Membership.GetTribeDetails(context.Background(), 1); err != nil {
		t.Fatalf("GetTribeDetails() error = %v", err)
	}

	if first.Cache().Len() == 0 {
		t.Error("first client should have cached the read")
	}
	if second.Cache().Len() != 0 {
		t.Error("second client must not see the first client's entries")
	}
}

// TestJourney walks the primary flow end to end: create a tribe, join it,
// post, list, interact, and read the updated counters back.
func TestJourney(t *testing.T) {
	ledger := gatewaytest.New()
	client, err := NewClient(nil, ledger)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	defer client.Close()
	ctx := context.Background()

	user := gatewaytest.Account(2)

	tribeID, err := client.Membership.CreateTribe(ctx, membership.CreateTribeParams{
		Name:     "builders",
		Metadata: `{"description":"a public tribe"}`,
		JoinType: models.JoinTypePublic,
	})
	if err != nil {
		t.Fatalf("CreateTribe() error = %v", err)
	}

	ledger.SetCaller(user)
	if _, err := client.Membership.JoinTribe(ctx, tribeID, user); err != nil {
		t.Fatalf("JoinTribe() error = %v", err)
	}
	status, err := client.Membership.GetMemberStatus(ctx, tribeID, user)
	if err != nil {
		t.Fatalf("GetMemberStatus() error = %v", err)
	}
	if status != models.MemberActive {
		t.Fatalf("status = %v, want ACTIVE", status)
	}

	postID, err := client.Content.CreatePost(ctx, content.CreatePostParams{
		TribeID:  tribeID,
		Metadata: `{"type":"TEXT","content":"first post"}`,
	})
	if err != nil {
		t.Fatalf("CreatePost() error = %v", err)
	}

	page, err := client.Content.GetPostsByTribe(ctx, tribeID, content.PostQuery{Offset: 0, Limit: 10})
	if err != nil {
		t.Fatalf("GetPostsByTribe() error = %v", err)
	}
	if page.Total != 1 {
		t.Fatalf("Total = %d, want 1", page.Total)
	}
	found := false
	for _, id := range page.PostIDs {
		if id == postID {
			found = true
		}
	}
	if !found {
		t.Fatalf("PostIDs = %v, want to include %d", page.PostIDs, postID)
	}

	before, err := client.Content.GetPost(ctx, postID)
	if err != nil {
		t.Fatalf("GetPost() error = %v", err)
	}
	if _, err := client.Content.InteractWithPost(ctx, postID, models.InteractionLike); err != nil {
		t.Fatalf("InteractWithPost() error = %v", err)
	}
	after, err := client.Content.GetPost(ctx, postID)
	if err != nil {
		t.Fatalf("GetPost() error = %v", err)
	}
	if after.InteractionCounts.Likes != before.InteractionCounts.Likes+1 {
		t.Errorf("likes = %d, want %d", after.InteractionCounts.Likes, before.InteractionCounts.Likes+1)
	}

	tribes, err := client.Membership.GetUserTribes(ctx, user)
	if err != nil {
		t.Fatalf("GetUserTribes() error = %v", err)
	}
	if len(tribes) != 1 || tribes[0] != tribeID {
		t.Errorf("GetUserTribes() = %v, want [%d]", tribes, tribeID)
	}
}

func TestClose_DropsCachedState(t *testing.T) {
	ledger := gatewaytest.New()
	client, err := NewClient(nil, ledger)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	if _, err := client.Membership.CreateTribe(context.Background(), membership.CreateTribeParams{
		Name:     "builders",
		Metadata: "{}",
		JoinType: models.JoinTypePublic,
	}); err != nil {
		t.Fatalf("CreateTribe() error = %v", err)
	}
	if _, err := client.Membership.GetTribeDetails(context.Background(), 1); err != nil {
		t.Fatalf("GetTribeDetails() error = %v", err)
	}
	if client.Cache().Len() == 0 {
		t.Fatal("expected cached entries before Close")
	}

	client.Close()
	if client.Cache().Len() != 0 {
		t.Errorf("Len() after Close = %d, want 0", client.Cache().Len())
	}
}
