package steps

import (
	"reflect"
	"testing"

	"github.com/google/uuid"
)

func TestChooseK(t *testing.T) {
	cases := []struct {
		n, want int
	}{
		{0, 1},
		{1, 1},
		{2, 2},
		{3, 2},
		{5, 2},
		{6, 2},
		{9, 3},
		{12, 4},
		{29, 9},
		{30, 10},
		{100, 10},
	}
	for _, tc := range cases {
		if got := chooseK(tc.n); got != tc.want {
			t.Errorf("chooseK(%d) = %d, want %d", tc.n, got, tc.want)
		}
	}
}

func clusterVecs(t *testing.T) []docVec {
	t.Helper()
	// Two well-separated groups on orthogonal axes.
	groupA := [][]float32{{1, 0, 0}, {0.9, 0.1, 0}, {0.95, 0, 0.05}}
	groupB := [][]float32{{0, 1, 0}, {0, 0.9, 0.1}, {0.05, 0.95, 0}}
	vecs := make([]docVec, 0, len(groupA)+len(groupB))
	for i, v := range append(groupA, groupB...) {
		vecs = append(vecs, docVec{
			DocID: uuid.NewSHA1(uuid.NameSpaceOID, []byte{byte(i)}),
			Vec:   v,
		})
	}
	return vecs
}

func labeling(clusters []kCluster) map[uuid.UUID]int {
	out := make(map[uuid.UUID]int)
	for _, cl := range clusters {
		for _, m := range cl.Members {
			out[m.DocID] = cl.Slot
		}
	}
	return out
}

func TestKmeansDeterministic(t *testing.T) {
	vecs := clusterVecs(t)
	first := labeling(kmeans(vecs, 2))
	second := labeling(kmeans(vecs, 2))
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("labelings differ across runs: %v vs %v", first, second)
	}
}

func TestKmeansAssignsEveryVector(t *testing.T) {
	vecs := clusterVecs(t)
	clusters := kmeans(vecs, 2)
	total := 0
	for _, cl := range clusters {
		total += len(cl.Members)
	}
	if total != len(vecs) {
		t.Fatalf("assigned %d of %d vectors", total, len(vecs))
	}
}

func TestKmeansSeparatesGroups(t *testing.T) {
	vecs := clusterVecs(t)
	labels := labeling(kmeans(vecs, 2))

	// The first three vectors are one group, the last three the other; each
	// group must land entirely in one cluster.
	groupSlot := func(ids []uuid.UUID) (int, bool) {
		slot := labels[ids[0]]
		for _, id := range ids[1:] {
			if labels[id] != slot {
				return 0, false
			}
		}
		return slot, true
	}
	var a, b []uuid.UUID
	for i, dv := range vecs {
		if i < 3 {
			a = append(a, dv.DocID)
		} else {
			b = append(b, dv.DocID)
		}
	}
	slotA, okA := groupSlot(a)
	slotB, okB := groupSlot(b)
	if !okA || !okB {
		t.Fatalf("groups split across clusters: %v", labels)
	}
	if slotA == slotB {
		t.Fatalf("both groups in slot %d", slotA)
	}
}

func TestKmeansSlotsArePositional(t *testing.T) {
	vecs := clusterVecs(t)
	clusters := kmeans(vecs, 2)
	if len(clusters) != 2 {
		t.Fatalf("got %d clusters, want 2", len(clusters))
	}
	for i, cl := range clusters {
		if cl.Slot != i {
			t.Fatalf("cluster %d has slot %d", i, cl.Slot)
		}
	}
}

func TestKmeansClampsKToInputSize(t *testing.T) {
	vecs := clusterVecs(t)[:2]
	clusters := kmeans(vecs, 10)
	if len(clusters) != 2 {
		t.Fatalf("got %d clusters, want 2", len(clusters))
	}
}

func TestSampleClusterDocsCapsAndRanks(t *testing.T) {
	near := docVec{DocID: uuid.New(), Vec: []float32{1, 0}}
	mid := docVec{DocID: uuid.New(), Vec: []float32{0.7, 0.7}}
	far := docVec{DocID: uuid.New(), Vec: []float32{0, 1}}
	cl := kCluster{Slot: 0, Centroid: []float32{1, 0}, Members: []docVec{far, mid, near}}

	got := sampleClusterDocs(cl, 2)
	if len(got) != 2 {
		t.Fatalf("sample size = %d, want 2", len(got))
	}
	if got[0].DocID != near.DocID {
		t.Fatalf("closest member not first")
	}

	all := sampleClusterDocs(cl, 10)
	if len(all) != 3 {
		t.Fatalf("oversized n should return all members, got %d", len(all))
	}
}
