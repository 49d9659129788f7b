package potfit

// TruncateAfterNthSignChange returns a copy of T where every bin from the n-th change of
// sign onwards is zero. Bins are scanned from the left, expecting a positive value at first:
// a negative value while expecting positive values (or a positive one while expecting negative
// values) is a sign change, and flips the expected sign. Zero and undefined values never
// change the sign. n < 1 returns an unmodified copy.
// It is used to remove the long-range noise of non-bonded tables after their n-th oscillation.
func TruncateAfterNthSignChange(T *Table, n int) *Table {
	ret := T.Copy()
	if n < 1 {
		return ret
	}
	changes := 0
	positive := true
	for i, v := range ret.E {
		if changes < n {
			if (positive && v < 0) || (!positive && v > 0) {
				changes++
				positive = !positive
			}
		}
		if changes >= n {
			ret.E[i] = 0
		}
	}
	return ret
}
