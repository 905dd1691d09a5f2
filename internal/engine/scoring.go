// Package engine implements the Dicee scoring rules and expected-value
// analysis as pure functions. It performs no I/O and keeps no state, so it
// is safe to call from any number of rooms concurrently.
package engine

// Dice is one hand of five dice, each face 1-6.
type Dice [5]int

// KeepMask marks which dice are held between rolls.
type KeepMask [5]bool

// faceCounts tallies how many dice show each face. Index 0 is unused.
func faceCounts(dice Dice) [7]int {
	var counts [7]int
	for _, d := range dice {
		if d >= 1 && d <= 6 {
			counts[d]++
		}
	}
	return counts
}

func sum(dice Dice) int {
	total := 0
	for _, d := range dice {
		total += d
	}
	return total
}

func maxCount(counts [7]int) int {
	max := 0
	for face := 1; face <= 6; face++ {
		if counts[face] > max {
			max = counts[face]
		}
	}
	return max
}

// Score returns the score the dice earn in the given category. Categories
// whose pattern is not met score zero; Score never fails for a valid
// category name.
func Score(dice Dice, category Category) int {
	counts := faceCounts(dice)
	switch category {
	case Ones, Twos, Threes, Fours, Fives, Sixes:
		face := category.upperFace()
		return face * counts[face]
	case ThreeOfKind:
		if maxCount(counts) >= 3 {
			return sum(dice)
		}
	case FourOfKind:
		if maxCount(counts) >= 4 {
			return sum(dice)
		}
	case FullHouse:
		if isFullHouse(counts) {
			return 25
		}
	case SmallStraight:
		if hasRun(counts, 4) {
			return 30
		}
	case LargeStraight:
		if hasRun(counts, 5) {
			return 40
		}
	case Dicee:
		if maxCount(counts) == 5 {
			return 50
		}
	case Chance:
		return sum(dice)
	}
	return 0
}

// ScoreAll scores the dice in every category, in scorecard order.
func ScoreAll(dice Dice) map[Category]int {
	scores := make(map[Category]int, len(Categories))
	for _, cat := range Categories {
		scores[cat] = Score(dice, cat)
	}
	return scores
}

func isFullHouse(counts [7]int) bool {
	hasThree, hasTwo := false, false
	for face := 1; face <= 6; face++ {
		switch counts[face] {
		case 3:
			hasThree = true
		case 2:
			hasTwo = true
		}
	}
	return hasThree && hasTwo
}

func hasRun(counts [7]int, length int) bool {
	run := 0
	for face := 1; face <= 6; face++ {
		if counts[face] > 0 {
			run++
			if run >= length {
				return true
			}
		} else {
			run = 0
		}
	}
	return false
}
