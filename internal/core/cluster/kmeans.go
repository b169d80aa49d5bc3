package cluster

import (
	"fmt"
	"math"
	"math/rand/v2"

	"nutrition-insights/internal/pkg/common"

	"gonum.org/v1/gonum/floats"
)

// KMeans 以 k-means++ 初始化加上 Lloyd 迭代分群
// 相同輸入、k 與 seed 一定得到相同的結果
func KMeans(points [][]float64, k int, seed uint64, maxIter int) ([]int, [][]float64, error) {
	n := len(points)
	if k <= 0 {
		return nil, nil, common.NewValidationError(fmt.Sprintf("k must be positive, got %d", k))
	}
	if k > n {
		return nil, nil, common.NewValidationError(fmt.Sprintf("k=%d exceeds number of rows (%d)", k, n))
	}
	if maxIter <= 0 {
		maxIter = 300
	}

	rng := rand.New(rand.NewPCG(seed, seed))
	centers := initCenters(points, k, rng)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = -1
	}

	for iter := 0; iter < maxIter; iter++ {
		changed := assign(points, centers, labels)
		if !changed && iter > 0 {
			break
		}
		recompute(points, centers, labels)
	}
	return labels, centers, nil
}

// initCenters k-means++：後續中心依與最近中心距離平方的機率抽取
func initCenters(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(points)
	centers := make([][]float64, 0, k)
	centers = append(centers, clone(points[rng.IntN(n)]))

	dist := make([]float64, n)
	for i, p := range points {
		dist[i] = sqDist(p, centers[0])
	}

	for len(centers) < k {
		total := floats.Sum(dist)
		next := 0
		if total == 0 {
			// 所有點都與現有中心重疊
			next = rng.IntN(n)
		} else {
			target := rng.Float64() * total
			acc := 0.0
			next = n - 1
			for i, d := range dist {
				acc += d
				if acc >= target && d > 0 {
					next = i
					break
				}
			}
		}
		center := clone(points[next])
		centers = append(centers, center)
		for i, p := range points {
			if d := sqDist(p, center); d < dist[i] {
				dist[i] = d
			}
		}
	}
	return centers
}

// assign 將每個點分到最近的中心（距離相同時取較小編號），回傳是否有變動
func assign(points, centers [][]float64, labels []int) bool {
	changed := false
	for i, p := range points {
		best, bestDist := 0, math.Inf(1)
		for c, center := range centers {
			if d := sqDist(p, center); d < bestDist {
				best, bestDist = c, d
			}
		}
		if labels[i] != best {
			labels[i] = best
			changed = true
		}
	}
	return changed
}

// recompute 以成員平均更新中心；空群移到離自身中心最遠的點
func recompute(points, centers [][]float64, labels []int) {
	dim := len(centers[0])
	sums := make([][]float64, len(centers))
	counts := make([]int, len(centers))
	for c := range sums {
		sums[c] = make([]float64, dim)
	}
	for i, p := range points {
		floats.Add(sums[labels[i]], p)
		counts[labels[i]]++
	}

	for c := range centers {
		if counts[c] == 0 {
			far := farthestPoint(points, centers, labels)
			centers[c] = clone(points[far])
			continue
		}
		floats.Scale(1/float64(counts[c]), sums[c])
		centers[c] = sums[c]
	}
}

func farthestPoint(points, centers [][]float64, labels []int) int {
	far, farDist := 0, -1.0
	for i, p := range points {
		if d := sqDist(p, centers[labels[i]]); d > farDist {
			far, farDist = i, d
		}
	}
	return far
}

func sqDist(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

func clone(p []float64) []float64 {
	out := make([]float64, len(p))
	copy(out, p)
	return out
}
