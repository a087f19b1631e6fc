package steps

import (
	"sort"

	"github.com/google/uuid"
)

type docVec struct {
	DocID uuid.UUID
	Vec   []float32
}

type kCluster struct {
	Slot     int
	Centroid []float32
	Members  []docVec
}

// chooseK picks roughly one cluster per three documents, clamped to [2,10].
// Below two documents clustering is not meaningful; everything lands in one
// cluster instead of erroring.
func chooseK(n int) int {
	if n < 2 {
		return 1
	}
	k := n / 3
	if k < 2 {
		k = 2
	}
	if k > 10 {
		k = 10
	}
	if k > n {
		k = n
	}
	return k
}

// kmeans partitions vecs into k clusters by cosine distance. Seeding is
// deterministic (first vector, then farthest-from-chosen each time), so the
// same input always yields the same labeling. Clusters keep their positional
// slot even when empty; callers skip empties at materialization.
func kmeans(vecs []docVec, k int) []kCluster {
	if len(vecs) == 0 {
		return nil
	}
	if k < 1 {
		k = 1
	}
	if k > len(vecs) {
		k = len(vecs)
	}

	centroids := make([][]float32, 0, k)
	centroids = append(centroids, vecs[0].Vec)
	for len(centroids) < k {
		bestIdx := 0
		bestDist := -1.0
		for i := range vecs {
			d := 1.0
			for _, c := range centroids {
				dist := 1.0 - cosineSimilarity(vecs[i].Vec, c)
				if dist < d {
					d = dist
				}
			}
			if d > bestDist {
				bestDist = d
				bestIdx = i
			}
		}
		centroids = append(centroids, vecs[bestIdx].Vec)
	}

	assign := make([]int, len(vecs))
	for i := range assign {
		assign[i] = -1
	}

	for iter := 0; iter < 10; iter++ {
		changed := false
		clusters := makeClusters(centroids)

		for i, dv := range vecs {
			best := 0
			bestScore := -1.0
			for c := 0; c < k; c++ {
				s := cosineSimilarity(dv.Vec, centroids[c])
				if s > bestScore {
					bestScore = s
					best = c
				}
			}
			if assign[i] != best {
				assign[i] = best
				changed = true
			}
			clusters[best].Members = append(clusters[best].Members, dv)
		}

		for i := 0; i < k; i++ {
			if len(clusters[i].Members) == 0 {
				continue
			}
			tmp := make([][]float32, 0, len(clusters[i].Members))
			for _, m := range clusters[i].Members {
				tmp = append(tmp, m.Vec)
			}
			if mean, ok := meanVector(tmp); ok && len(mean) > 0 {
				centroids[i] = normalizeUnit(mean)
				clusters[i].Centroid = centroids[i]
			}
		}

		if !changed {
			return clusters
		}
	}

	final := makeClusters(centroids)
	for i, dv := range vecs {
		if assign[i] < 0 || assign[i] >= k {
			assign[i] = 0
		}
		final[assign[i]].Members = append(final[assign[i]].Members, dv)
	}
	return final
}

func makeClusters(centroids [][]float32) []kCluster {
	out := make([]kCluster, len(centroids))
	for i := range out {
		out[i].Slot = i
		out[i].Centroid = centroids[i]
	}
	return out
}

// sampleClusterDocs returns up to n members closest to the cluster centroid.
func sampleClusterDocs(cl kCluster, n int) []docVec {
	if n <= 0 || len(cl.Members) <= n {
		return cl.Members
	}
	type scored struct {
		d docVec
		s float64
	}
	sc := make([]scored, 0, len(cl.Members))
	for _, m := range cl.Members {
		sc = append(sc, scored{d: m, s: cosineSimilarity(m.Vec, cl.Centroid)})
	}
	sort.Slice(sc, func(i, j int) bool { return sc[i].s > sc[j].s })
	out := make([]docVec, 0, n)
	for i := 0; i < len(sc) && len(out) < n; i++ {
		out = append(out, sc[i].d)
	}
	return out
}
