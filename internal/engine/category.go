package engine

// Category is one of the 13 fixed scorecard slots.
type Category string

const (
	Ones          Category = "ones"
	Twos          Category = "twos"
	Threes        Category = "threes"
	Fours         Category = "fours"
	Fives         Category = "fives"
	Sixes         Category = "sixes"
	ThreeOfKind   Category = "threeOfKind"
	FourOfKind    Category = "fourOfKind"
	FullHouse     Category = "fullHouse"
	SmallStraight Category = "smallStraight"
	LargeStraight Category = "largeStraight"
	Dicee         Category = "dicee"
	Chance        Category = "chance"
)

// Categories lists all 13 categories in scorecard order.
var Categories = [13]Category{
	Ones, Twos, Threes, Fours, Fives, Sixes,
	ThreeOfKind, FourOfKind, FullHouse,
	SmallStraight, LargeStraight, Dicee, Chance,
}

// UpperCategories are the six face-count categories that feed the bonus.
var UpperCategories = [6]Category{Ones, Twos, Threes, Fours, Fives, Sixes}

const (
	// UpperBonusThreshold is the upper-section total needed for the bonus.
	UpperBonusThreshold = 63
	// UpperBonus is awarded when the upper section reaches the threshold.
	UpperBonus = 35
)

// Valid reports whether c names one of the 13 categories.
func (c Category) Valid() bool {
	for _, cat := range Categories {
		if cat == c {
			return true
		}
	}
	return false
}

// IsUpper reports whether c belongs to the upper section.
func (c Category) IsUpper() bool {
	for _, cat := range UpperCategories {
		if cat == c {
			return true
		}
	}
	return false
}

// upperFace returns the die face an upper category counts, or 0.
func (c Category) upperFace() int {
	for i, cat := range UpperCategories {
		if cat == c {
			return i + 1
		}
	}
	return 0
}
