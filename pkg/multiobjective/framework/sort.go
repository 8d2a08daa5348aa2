package framework

// NonDominatedSort partitions points in objective space into fronts of
// mutually non-dominated indices, ordered by dominance depth. The returned
// rank slice holds the front index of every point, or -1 for points left
// unranked because of the early-stop threshold.
//
// nStopIfRanked stops peeling new fronts once at least that many points have
// been ranked; the front in progress is always completed. A value <= 0 ranks
// the whole input.
func NonDominatedSort(points []ObjectiveSpacePoint, nStopIfRanked int) ([][]int, []int) {
	n := len(points)
	if nStopIfRanked <= 0 {
		nStopIfRanked = n
	}

	dominated := make([][]int, n)
	domCount := make([]int, n)
	rank := make([]int, n)
	for i := range rank {
		rank[i] = -1
	}

	// Calculate domination for each point
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if Dominates(points[i], points[j]) {
				dominated[i] = append(dominated[i], j)
				domCount[j]++
			} else if Dominates(points[j], points[i]) {
				dominated[j] = append(dominated[j], i)
				domCount[i]++
			}
		}
	}

	// First front
	var fronts [][]int
	currentFront := []int{}
	for i := 0; i < n; i++ {
		if domCount[i] == 0 {
			rank[i] = 0
			currentFront = append(currentFront, i)
		}
	}
	fronts = append(fronts, currentFront)
	ranked := len(currentFront)

	// Subsequent fronts
	frontIndex := 0
	for len(currentFront) > 0 && ranked < nStopIfRanked {
		nextFront := []int{}
		for _, idx := range currentFront {
			for _, dominatedIdx := range dominated[idx] {
				domCount[dominatedIdx]--
				if domCount[dominatedIdx] == 0 {
					rank[dominatedIdx] = frontIndex + 1
					nextFront = append(nextFront, dominatedIdx)
				}
			}
		}
		frontIndex++
		if len(nextFront) > 0 {
			fronts = append(fronts, nextFront)
		}
		ranked += len(nextFront)
		currentFront = nextFront
	}

	return fronts, rank
}

// Dominates checks if point a dominates point b
func Dominates(a, b ObjectiveSpacePoint) bool {
	better := false
	for i := 0; i < len(a); i++ {
		if a[i] > b[i] {
			return false
		}
		if a[i] < b[i] {
			better = true
		}
	}
	return better
}
