package models

import "testing"

func TestPostTypeCodeRoundTrip(t *testing.T) {
	types := []PostType{
		PostTypeText,
		PostTypeRichMedia,
		PostTypeEvent,
		PostTypePoll,
		PostTypeProjectUpdate,
		PostTypeCommunityUpdate,
		PostTypeEncrypted,
	}
	for _, pt := range types {
		if got := PostTypeFromCode(pt.Code()); got != pt {
			t.Errorf("PostTypeFromCode(%s.Code()) = %s", pt, got)
		}
	}
}

func TestPostTypeFallbacks(t *testing.T) {
	// Unknown symbolic types and out-of-range codes both collapse to TEXT,
	// mirroring the contract's behavior.
	if got := PostType("MYSTERY").Code(); got != 0 {
		t.Errorf("unknown type Code() = %d, want 0", got)
	}
	if got := PostTypeFromCode(99); got != PostTypeText {
		t.Errorf("PostTypeFromCode(99) = %s, want TEXT", got)
	}
}

func TestInteractionCodeRoundTrip(t *testing.T) {
	kinds := []InteractionType{
		InteractionLike,
		InteractionComment,
		InteractionShare,
		InteractionBookmark,
		InteractionReport,
		InteractionReply,
		InteractionMention,
		InteractionRepost,
		InteractionTip,
	}
	for _, kind := range kinds {
		if got := InteractionFromCode(kind.Code()); got != kind {
			t.Errorf("InteractionFromCode(%s.Code()) = %s", kind, got)
		}
	}
}

func TestInteractionFallbacks(t *testing.T) {
	if got := InteractionType("WAVE").Code(); got != 0 {
		t.Errorf("unknown kind Code() = %d, want 0", got)
	}
	if got := InteractionFromCode(200); got != InteractionLike {
		t.Errorf("InteractionFromCode(200) = %s, want LIKE", got)
	}
}
