package game

// Vote is one actor's chosen target, in whatever sense the current phase
// gives it (lynch vote by day, role power by night).
type Vote struct {
	Voter  string
	Target string
}

// PluralityWinner returns the target with strictly more votes than every
// other target. A tie for first place elects nobody.
func PluralityWinner(votes []Vote) (string, bool) {
	counts := make(map[string]int, len(votes))
	for _, v := range votes {
		if v.Target == "" {
			continue
		}
		counts[v.Target]++
	}

	winner := ""
	max := 0
	for target, count := range counts {
		switch {
		case count > max:
			winner, max = target, count
		case count == max:
			winner = ""
		}
	}
	return winner, winner != ""
}

// ConsensusTarget picks the most frequent non-empty target, breaking ties
// by first occurrence in input order. Unlike the day vote, a split mafia
// still kills someone.
func ConsensusTarget(targets []string) (string, bool) {
	counts := make(map[string]int, len(targets))
	order := make([]string, 0, len(targets))
	for _, t := range targets {
		if t == "" {
			continue
		}
		if counts[t] == 0 {
			order = append(order, t)
		}
		counts[t]++
	}

	winner := ""
	max := 0
	for _, t := range order {
		if counts[t] > max {
			winner, max = t, counts[t]
		}
	}
	return winner, winner != ""
}
