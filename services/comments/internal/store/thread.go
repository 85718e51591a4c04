package store

import (
	"sort"
)

// BuildThread turns one movie's flat comment list into its reply tree.
//
// Every comment either attaches to its parent's reply list (insertion
// order preserved) or, when the parent id does not resolve in this list,
// is treated as a root. The orphan rule keeps partially damaged documents
// readable instead of dropping subtrees. Roots come back newest-first.
//
// The returned ledger is the subset of the global one keyed by ids that
// exist in comments: entries left behind for deleted or foreign comments
// are filtered here on every read, not only at delete time.
func BuildThread(comments []Comment, ledger map[string][]string) Thread {
	nodes := make(map[string]*ThreadNode, len(comments))
	for i := range comments {
		nodes[comments[i].ID] = &ThreadNode{Comment: comments[i], Replies: []*ThreadNode{}}
	}

	roots := make([]*ThreadNode, 0, len(comments))
	for i := range comments {
		n := nodes[comments[i].ID]
		if pid := comments[i].ParentID; pid != nil {
			if parent, ok := nodes[*pid]; ok && parent != n {
				parent.Replies = append(parent.Replies, n)
				continue
			}
		}
		roots = append(roots, n)
	}

	sort.SliceStable(roots, func(i, j int) bool {
		if !roots[i].CreatedAt.Equal(roots[j].CreatedAt) {
			return roots[i].CreatedAt.After(roots[j].CreatedAt)
		}
		return roots[i].ID > roots[j].ID
	})

	upvotes := make(map[string][]string)
	for id := range nodes {
		if voters, ok := ledger[id]; ok && len(voters) > 0 {
			upvotes[id] = voters
		}
	}

	return Thread{Comments: roots, Upvotes: upvotes}
}
