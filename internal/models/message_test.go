package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusValid(t *testing.T) {
	assert.True(t, StatusSent.Valid())
	assert.True(t, StatusDelivered.Valid())
	assert.True(t, StatusRead.Valid())
	assert.False(t, Status("archived").Valid())
	assert.False(t, Status("").Valid())
}

func TestStatusRankOrdering(t *testing.T) {
	assert.Less(t, StatusSent.Rank(), StatusDelivered.Rank())
	assert.Less(t, StatusDelivered.Rank(), StatusRead.Rank())
	assert.Zero(t, Status("archived").Rank())
}

func TestReactionTypesCatalogIsStable(t *testing.T) {
	types := ReactionTypes()
	assert.Len(t, types, 6)

	// callers get a copy, not the backing array
	types[0] = "mutated"
	assert.Equal(t, ReactionLike, ReactionTypes()[0])
}

func TestReactionTypeValid(t *testing.T) {
	for _, rt := range []ReactionType{ReactionLike, ReactionLove, ReactionHaha, ReactionWow, ReactionSad, ReactionAngry} {
		assert.True(t, rt.Valid(), string(rt))
	}
	assert.False(t, ReactionType("meh").Valid())
}
