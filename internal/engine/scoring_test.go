package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreUpperSection(t *testing.T) {
	dice := Dice{3, 3, 3, 5, 6}
	assert.Equal(t, 0, Score(dice, Ones))
	assert.Equal(t, 9, Score(dice, Threes))
	assert.Equal(t, 5, Score(dice, Fives))
	assert.Equal(t, 6, Score(dice, Sixes))
}

func TestScoreOfAKind(t *testing.T) {
	assert.Equal(t, 15, Score(Dice{3, 3, 3, 2, 4}, ThreeOfKind))
	assert.Equal(t, 0, Score(Dice{3, 3, 2, 2, 4}, ThreeOfKind))
	assert.Equal(t, 22, Score(Dice{5, 5, 5, 5, 2}, FourOfKind))
	assert.Equal(t, 0, Score(Dice{5, 5, 5, 2, 2}, FourOfKind))
}

func TestScoreFullHouse(t *testing.T) {
	assert.Equal(t, 25, Score(Dice{3, 3, 3, 5, 5}, FullHouse))
	assert.Equal(t, 0, Score(Dice{3, 3, 3, 3, 5}, FullHouse))
	// strict three-plus-two: five of a kind is not a full house
	assert.Equal(t, 0, Score(Dice{4, 4, 4, 4, 4}, FullHouse))
}

func TestScoreStraights(t *testing.T) {
	assert.Equal(t, 30, Score(Dice{1, 2, 3, 4, 6}, SmallStraight))
	assert.Equal(t, 30, Score(Dice{3, 4, 5, 6, 6}, SmallStraight))
	assert.Equal(t, 0, Score(Dice{1, 2, 3, 5, 6}, SmallStraight))
	assert.Equal(t, 40, Score(Dice{1, 2, 3, 4, 5}, LargeStraight))
	assert.Equal(t, 40, Score(Dice{2, 3, 4, 5, 6}, LargeStraight))
	assert.Equal(t, 0, Score(Dice{1, 2, 3, 4, 6}, LargeStraight))
}

func TestScoreDiceeAndChance(t *testing.T) {
	assert.Equal(t, 50, Score(Dice{6, 6, 6, 6, 6}, Dicee))
	assert.Equal(t, 0, Score(Dice{6, 6, 6, 6, 5}, Dicee))
	assert.Equal(t, 19, Score(Dice{3, 3, 3, 5, 5}, Chance))
}

func TestScoreAllCoversEveryCategory(t *testing.T) {
	scores := ScoreAll(Dice{2, 3, 4, 5, 6})
	assert.Len(t, scores, 13)
	assert.Equal(t, 40, scores[LargeStraight])
	assert.Equal(t, 30, scores[SmallStraight])
	assert.Equal(t, 20, scores[Chance])
}

func TestCategoryValidity(t *testing.T) {
	for _, cat := range Categories {
		assert.True(t, cat.Valid(), "category %s", cat)
	}
	assert.False(t, Category("yahtzee").Valid())
	assert.True(t, Sixes.IsUpper())
	assert.False(t, Chance.IsUpper())
}
