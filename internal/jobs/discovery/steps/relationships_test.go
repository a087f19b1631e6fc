package steps

import (
	"testing"

	"github.com/google/uuid"

	"github.com/topiclens/topiclens-backend/internal/domain"
)

func TestClassifyRelationship(t *testing.T) {
	cases := []struct {
		similarity float64
		common     int
		want       string
	}{
		{0.71, 0, domain.RelationshipStronglyRelated},
		{0.9, 5, domain.RelationshipStronglyRelated},
		{0.7, 0, domain.RelationshipRelated},
		{0.55, 0, domain.RelationshipRelated},
		{0.51, 3, domain.RelationshipRelated},
		{0.5, 2, domain.RelationshipSharedDocuments},
		{0.4, 1, domain.RelationshipSharedDocuments},
		{0.4, 0, domain.RelationshipSimilar},
		{0.31, 0, domain.RelationshipSimilar},
	}
	for _, tc := range cases {
		if got := classifyRelationship(tc.similarity, tc.common); got != tc.want {
			t.Errorf("classify(%v, %d) = %q, want %q", tc.similarity, tc.common, got, tc.want)
		}
	}
}

func TestCanonicalPairIsOrderInsensitive(t *testing.T) {
	a := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	b := uuid.MustParse("00000000-0000-0000-0000-000000000002")

	s1, t1 := canonicalPair(a, b)
	s2, t2 := canonicalPair(b, a)
	if s1 != s2 || t1 != t2 {
		t.Fatalf("orientations differ: (%v,%v) vs (%v,%v)", s1, t1, s2, t2)
	}
	if s1 != a || t1 != b {
		t.Fatalf("canonical order = (%v,%v), want source to sort first", s1, t1)
	}
}

func TestCanonicalPairSelf(t *testing.T) {
	a := uuid.New()
	s, tt := canonicalPair(a, a)
	if s != a || tt != a {
		t.Fatalf("self pair changed: (%v,%v)", s, tt)
	}
}
