package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParticipant_ArcadeGames(t *testing.T) {
	unknown := Participant{Name: "Bob"}
	assert.Equal(t, 0, unknown.ArcadeGamesOrZero())
	assert.Equal(t, "-", unknown.ArcadeGamesLabel())

	zero := Participant{Name: "Carol", ArcadeGames: IntPtr(0)}
	assert.Equal(t, 0, zero.ArcadeGamesOrZero())
	assert.Equal(t, "0", zero.ArcadeGamesLabel())

	two := Participant{Name: "Alice", ArcadeGames: IntPtr(2)}
	assert.Equal(t, 2, two.ArcadeGamesOrZero())
	assert.Equal(t, "2", two.ArcadeGamesLabel())
}

func TestRankedEntry_JSON(t *testing.T) {
	entry := RankedEntry{
		Participant: Participant{ID: "bob-1", Name: "Bob", SkillBadgeNames: []string{}},
		Rank:        2,
		Score:       12,
		Tier:        TierGold,
	}

	data, err := json.Marshal(entry)
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "bob-1", got["id"])
	assert.Equal(t, "gold", got["tier"])
	assert.Nil(t, got["arcade_games"], "неизвестное значение сериализуется как null")
	assert.Contains(t, got, "arcade_games")
	assert.NotContains(t, got, "email")

	entry.Tier = TierNone
	data, err = json.Marshal(entry)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"tier"`)
}

func TestParseTier(t *testing.T) {
	for _, s := range []string{"gold", "silver", "bronze"} {
		tier, ok := ParseTier(s)
		assert.True(t, ok)
		assert.Equal(t, Tier(s), tier)
	}

	_, ok := ParseTier("Gold")
	assert.False(t, ok)
	_, ok = ParseTier("")
	assert.False(t, ok)
}
