package fs

import (
	"fmt"
	"strings"
)

// This file is the snapshot resolver: given an owning reference and the
// rest of the path, walk the commit's tree graph to the terminal entry.
// Every resolution failure is a not-found; the backing store is external
// and re-read per call, so there is nothing to recover locally.

// commitFor re-qualifies a namespace-stripped reference name and
// dereferences it to its commit.
func commitFor(repo Repository, ref string) (Commit, error) {
	commit, err := repo.Commit(refNamespace + ref)
	if err != nil {
		return nil, fmt.Errorf("reference %s: %w", ref, ErrNotFound)
	}
	return commit, nil
}

// rootTreeFor resolves a reference straight to its commit's root tree.
func rootTreeFor(repo Repository, ref string) (Tree, error) {
	commit, err := commitFor(repo, ref)
	if err != nil {
		return nil, err
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("root tree of %s: %w", ref, ErrNotFound)
	}
	return tree, nil
}

// findEntry walks tree along the slash-separated relPath and returns the
// terminal entry. Each intermediate segment must name a subtree; the walk
// stops at the first segment that is missing or tries to descend through a
// file. The empty relative path denotes the tree itself, not an entry, and
// must be handled by the caller.
func findEntry(tree Tree, relPath string) (Entry, error) {
	segments := strings.Split(relPath, "/")

	for _, segment := range segments[:len(segments)-1] {
		entry, err := tree.Entry(segment)
		if err != nil {
			return nil, err
		}
		if !entry.IsDir() {
			return nil, fmt.Errorf("%s is not a tree: %w", segment, ErrNotFound)
		}
		tree, err = entry.Tree()
		if err != nil {
			return nil, fmt.Errorf("subtree %s: %w", segment, ErrNotFound)
		}
	}

	return tree.Entry(segments[len(segments)-1])
}
