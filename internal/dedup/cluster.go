package dedup

import (
	"sort"

	"github.com/arjunxplorer/Research-Paper-finder/internal/domain"
)

// unionFind is a standard disjoint-set with path compression and union by
// rank.
type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{
		parent: make([]int, n),
		rank:   make([]int, n),
	}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if u.rank[ra] < u.rank[rb] {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
	if u.rank[ra] == u.rank[rb] {
		u.rank[ra]++
	}
}

// identityKey returns the strongest exact identity available for a record.
// Records sharing this key always belong to the same cluster. The native
// source ID fallback still collapses a provider's own repeats.
func identityKey(rec *domain.RawRecord) string {
	if rec.DOI != "" {
		return "doi:" + rec.DOI
	}
	if rec.ArXivID != "" {
		return "arxiv:" + rec.ArXivID
	}
	if rec.PubMedID != "" {
		return "pubmed:" + rec.PubMedID
	}
	return rec.SourceName + ":" + rec.SourceID
}

// Cluster groups normalized records into clusters of indices, one cluster
// per distinct work.
//
// Records sharing an exact identifier merge unconditionally. The DOI-less
// remainder goes through the conjunctive fuzzy test with transitive
// closure: chained similarity is accepted, then each grown cluster is
// re-validated against its centroid title so drift cannot glue distinct
// works together.
//
// Clustering never fails; worst case every record stays its own cluster.
func Cluster(records []domain.RawRecord) [][]int {
	n := len(records)
	uf := newUnionFind(n)

	// Exact identity pass.
	byKey := make(map[string]int, n)
	for i := range records {
		key := identityKey(&records[i])
		if first, ok := byKey[key]; ok {
			uf.union(first, i)
		} else {
			byKey[key] = i
		}
	}

	// Fuzzy pass over the DOI-less remainder.
	var fuzzy []int
	for i := range records {
		if records[i].DOI == "" {
			fuzzy = append(fuzzy, i)
		}
	}
	for x := 0; x < len(fuzzy); x++ {
		for y := x + 1; y < len(fuzzy); y++ {
			i, j := fuzzy[x], fuzzy[y]
			if uf.find(i) == uf.find(j) {
				continue
			}
			if SameWork(&records[i], &records[j]) {
				uf.union(i, j)
			}
		}
	}

	clusters := collect(uf, n)

	// Centroid re-validation: eject chained members that drifted too far
	// from the cluster's central title.
	var out [][]int
	for _, members := range clusters {
		kept, ejected := revalidate(records, members)
		out = append(out, kept)
		out = append(out, regroup(records, ejected)...)
	}

	sort.Slice(out, func(a, b int) bool { return out[a][0] < out[b][0] })
	return out
}

// collect materializes union-find roots into index clusters, ordered by
// first appearance.
func collect(uf *unionFind, n int) [][]int {
	byRoot := make(map[int][]int)
	var order []int
	for i := 0; i < n; i++ {
		root := uf.find(i)
		if _, seen := byRoot[root]; !seen {
			order = append(order, root)
		}
		byRoot[root] = append(byRoot[root], i)
	}
	clusters := make([][]int, 0, len(order))
	for _, root := range order {
		clusters = append(clusters, byRoot[root])
	}
	return clusters
}

// revalidate checks every member of a grown cluster against the centroid
// title. Members that no longer resemble the centroid and whose author
// lists do not agree are ejected. Exact-DOI members are never ejected.
func revalidate(records []domain.RawRecord, members []int) (kept, ejected []int) {
	if len(members) <= 2 {
		return members, nil
	}

	centroid := medoid(records, members)
	centroidTitle := NormalizeTitle(records[centroid].Title)
	centroidDOI := records[centroid].DOI

	for _, idx := range members {
		if idx == centroid {
			kept = append(kept, idx)
			continue
		}
		rec := &records[idx]
		if rec.DOI != "" && rec.DOI == centroidDOI {
			kept = append(kept, idx)
			continue
		}
		if titleNear(centroidTitle, NormalizeTitle(rec.Title)) ||
			AuthorOverlap(records[centroid].Authors, rec.Authors) >= revalidateAuthorOverlap {
			kept = append(kept, idx)
			continue
		}
		ejected = append(ejected, idx)
	}
	return kept, ejected
}

// medoid picks the member whose normalized title is most similar on
// average to the rest of the cluster.
func medoid(records []domain.RawRecord, members []int) int {
	titles := make([]map[string]struct{}, len(members))
	for i, idx := range members {
		titles[i] = TitleTokens(NormalizeTitle(records[idx].Title))
	}

	best, bestScore := members[0], -1.0
	for i := range members {
		total := 0.0
		for j := range members {
			if i == j {
				continue
			}
			total += jaccard(titles[i], titles[j])
		}
		if total > bestScore {
			best, bestScore = members[i], total
		}
	}
	return best
}

// regroup clusters ejected members among themselves by exact identity, so
// two ejected copies of the same work still end up together.
func regroup(records []domain.RawRecord, ejected []int) [][]int {
	if len(ejected) == 0 {
		return nil
	}
	byKey := make(map[string][]int)
	var order []string
	for _, idx := range ejected {
		key := identityKey(&records[idx])
		if _, seen := byKey[key]; !seen {
			order = append(order, key)
		}
		byKey[key] = append(byKey[key], idx)
	}
	groups := make([][]int, 0, len(order))
	for _, key := range order {
		groups = append(groups, byKey[key])
	}
	return groups
}
