package strain

// EstimateSamplingInterval returns how often (in steps) a run of totalSteps steps should
// be sampled: target, unless that would give fewer than 10 samples, in which case
// totalSteps/10 is used. The result is never smaller than 1.
func EstimateSamplingInterval(target, totalSteps int) int {
	ret := target
	if tenth := totalSteps / 10; tenth < ret {
		ret = tenth
	}
	if ret < 1 {
		ret = 1
	}
	return ret
}
