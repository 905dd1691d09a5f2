package engine

// ExpectedValue returns the expected score in category after rerolling every
// die not covered by kept, enumerating all 6^n outcomes of the next roll.
// With no rolls remaining (or nothing to reroll) it returns the current score.
//
// Multi-roll lookahead is approximated by the single-roll expectation, which
// matches the behavior of the original solver's shipped configuration.
func ExpectedValue(dice Dice, kept KeepMask, rollsRemaining int, category Category) float64 {
	if rollsRemaining <= 0 {
		return float64(Score(dice, category))
	}
	rerollCount := 0
	for _, k := range kept {
		if !k {
			rerollCount++
		}
	}
	if rerollCount == 0 {
		return float64(Score(dice, category))
	}

	totalOutcomes := 1
	for i := 0; i < rerollCount; i++ {
		totalOutcomes *= 6
	}
	scoreSum := 0
	for outcome := 0; outcome < totalOutcomes; outcome++ {
		scoreSum += Score(applyOutcome(dice, kept, outcome), category)
	}
	return float64(scoreSum) / float64(totalOutcomes)
}

// OptimalKeepMask returns the keep mask that maximizes the expected score in
// category over one more roll. With no rolls remaining it keeps everything.
func OptimalKeepMask(dice Dice, rollsRemaining int, category Category) KeepMask {
	keepAll := KeepMask{true, true, true, true, true}
	if rollsRemaining <= 0 {
		return keepAll
	}
	best := keepAll
	bestEV := float64(Score(dice, category))
	for bits := 0; bits < 31; bits++ {
		var mask KeepMask
		for i := 0; i < 5; i++ {
			mask[i] = bits&(1<<i) != 0
		}
		ev := ExpectedValue(dice, mask, rollsRemaining, category)
		if ev > bestEV {
			bestEV = ev
			best = mask
		}
	}
	return best
}

// BestCategory returns the unscored category with the highest immediate
// score for the dice, preferring earlier scorecard order on ties. The second
// return is false when every category in available is already scored.
func BestCategory(dice Dice, available map[Category]bool) (Category, bool) {
	best := Category("")
	bestScore := -1
	for _, cat := range Categories {
		if !available[cat] {
			continue
		}
		if s := Score(dice, cat); s > bestScore {
			best = cat
			bestScore = s
		}
	}
	return best, bestScore >= 0
}

// applyOutcome rewrites the non-kept dice according to an outcome index
// interpreted as base-6 digits.
func applyOutcome(dice Dice, kept KeepMask, outcome int) Dice {
	result := dice
	for i := 0; i < 5; i++ {
		if kept[i] {
			continue
		}
		result[i] = outcome%6 + 1
		outcome /= 6
	}
	return result
}
