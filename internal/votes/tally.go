package votes

// zeroFillTally produces one count per declared option, in declaration order,
// so options nobody picked still show up with zero.
func zeroFillTally(options OptionSet, counts map[string]int) ([]OptionCount, int) {
	tally := make([]OptionCount, 0, len(options))
	total := 0
	for _, o := range options {
		n := counts[o]
		tally = append(tally, OptionCount{Option: o, Count: n})
		total += n
	}
	return tally, total
}
