package fs

import (
	"fmt"
	"os"
	"reflect"
	"sort"
	"testing"
	"time"
)

// fakeStorageInfo stands in for the repository storage directory's stat.
type fakeStorageInfo struct {
	mode    os.FileMode
	size    int64
	modTime time.Time
}

func (f fakeStorageInfo) Name() string       { return ".git" }
func (f fakeStorageInfo) Size() int64        { return f.size }
func (f fakeStorageInfo) Mode() os.FileMode  { return f.mode }
func (f fakeStorageInfo) ModTime() time.Time { return f.modTime }
func (f fakeStorageInfo) IsDir() bool        { return f.mode.IsDir() }
func (f fakeStorageInfo) Sys() interface{}   { return nil }

// fakeRepo is an in-memory object store implementing Repository.
type fakeRepo struct {
	refs    []string               // fully qualified names
	commits map[string]*fakeCommit // qualified name -> commit
	info    os.FileInfo
}

func (r *fakeRepo) References() ([]string, error) {
	return r.refs, nil
}

func (r *fakeRepo) Commit(name string) (Commit, error) {
	commit, ok := r.commits[name]
	if !ok {
		return nil, fmt.Errorf("reference %s: %w", name, ErrNotFound)
	}
	return commit, nil
}

func (r *fakeRepo) StorageInfo() (os.FileInfo, error) {
	return r.info, nil
}

type fakeCommit struct {
	root *fakeTree
}

func (c *fakeCommit) Tree() (Tree, error) {
	return c.root, nil
}

type fakeTree struct {
	entries []*fakeEntry
}

func (t *fakeTree) Entries() ([]Entry, error) {
	entries := make([]Entry, len(t.entries))
	for i, entry := range t.entries {
		entries[i] = entry
	}
	return entries, nil
}

func (t *fakeTree) Entry(name string) (Entry, error) {
	for _, entry := range t.entries {
		if entry.name == name {
			return entry, nil
		}
	}
	return nil, fmt.Errorf("entry %s: %w", name, ErrNotFound)
}

type fakeEntry struct {
	name    string
	mode    os.FileMode
	tree    *fakeTree
	content []byte
}

func (e *fakeEntry) Name() string      { return e.name }
func (e *fakeEntry) Mode() os.FileMode { return e.mode }
func (e *fakeEntry) IsDir() bool       { return e.tree != nil }

func (e *fakeEntry) Tree() (Tree, error) {
	if e.tree == nil {
		return nil, fmt.Errorf("%s is not a tree: %w", e.name, ErrNotFound)
	}
	return e.tree, nil
}

func (e *fakeEntry) Size() (int64, error) {
	if e.tree != nil {
		return 0, fmt.Errorf("%s is not a blob: %w", e.name, ErrNotFound)
	}
	return int64(len(e.content)), nil
}

func (e *fakeEntry) Content() ([]byte, error) {
	if e.tree != nil {
		return nil, fmt.Errorf("%s is not a blob: %w", e.name, ErrNotFound)
	}
	return e.content, nil
}

func fakeFile(name string, mode os.FileMode, content string) *fakeEntry {
	return &fakeEntry{name: name, mode: mode, content: []byte(content)}
}

func fakeDir(name string, entries ...*fakeEntry) *fakeEntry {
	return &fakeEntry{name: name, mode: os.ModeDir | 0755, tree: &fakeTree{entries: entries}}
}

func indexFor(t *testing.T, refs ...string) *RefIndex {
	t.Helper()
	ix, err := NewRefIndex(&fakeRepo{refs: refs})
	if err != nil {
		t.Fatalf("Failed to build index: %v", err)
	}
	return ix
}

func TestNewRefIndex(t *testing.T) {
	ix := indexFor(t, "HEAD", "refs/heads/main", "refs/tags/v1", "ORIG_HEAD")

	expected := []string{"/heads/main", "/tags/v1"}
	if !reflect.DeepEqual(ix.Refs(), expected) {
		t.Errorf("Expected refs %v, got %v", expected, ix.Refs())
	}
}

func TestContains(t *testing.T) {
	ix := indexFor(t, "refs/heads/main", "refs/tags/v1")

	if !ix.Contains("/heads/main") {
		t.Error("Expected /heads/main to be a reference")
	}
	if ix.Contains("/heads") {
		t.Error("/heads is an ancestor, not a reference")
	}
	if ix.Contains("/heads/main/README.md") {
		t.Error("/heads/main/README.md is not a reference")
	}
}

func TestChildrenUnder(t *testing.T) {
	ix := indexFor(t, "refs/heads/main", "refs/tags/v1", "refs/remotes/origin/main")

	tests := []struct {
		name     string
		path     string
		expected []string
	}{
		{
			name:     "root matches all",
			path:     "/",
			expected: []string{"/heads/main", "/remotes/origin/main", "/tags/v1"},
		},
		{
			name:     "ancestor directory",
			path:     "/heads",
			expected: []string{"/heads/main"},
		},
		{
			name:     "exact reference matches itself",
			path:     "/heads/main",
			expected: []string{"/heads/main"},
		},
		{
			name:     "raw prefix ending mid-segment",
			path:     "/head",
			expected: []string{"/heads/main"},
		},
		{
			name:     "no matches",
			path:     "/branches",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ix.ChildrenUnder(tt.path)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestDirectChildren(t *testing.T) {
	ix := indexFor(t,
		"refs/heads/main",
		"refs/tags/v1",
		"refs/remotes/origin/main",
		"refs/remotes/origin/develop",
	)

	tests := []struct {
		name     string
		path     string
		expected []string
	}{
		{
			name:     "root lists first segments",
			path:     "/",
			expected: []string{"heads", "remotes", "tags"},
		},
		{
			name:     "single child",
			path:     "/heads",
			expected: []string{"main"},
		},
		{
			name:     "deduplicated intermediate segment",
			path:     "/remotes",
			expected: []string{"origin"},
		},
		{
			name:     "leaf segments under remote",
			path:     "/remotes/origin",
			expected: []string{"develop", "main"},
		},
		{
			name:     "exact reference has no children",
			path:     "/heads/main",
			expected: nil,
		},
		{
			name:     "no matches",
			path:     "/branches",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ix.DirectChildren(tt.path)
			sort.Strings(got)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestDirectChildrenMidSegmentGuard(t *testing.T) {
	// A prefix ending inside the final segment leaves no separator in the
	// remainder; such matches contribute nothing.
	ix := indexFor(t, "refs/heads")

	if got := ix.DirectChildren("/head"); got != nil {
		t.Errorf("Expected no children for mid-segment prefix, got %v", got)
	}
}

func TestOwner(t *testing.T) {
	ix := indexFor(t, "refs/heads/main", "refs/tags/v1")

	t.Run("UniqueOwner", func(t *testing.T) {
		owner := ix.Owner("/heads/main/src/main.go")
		if owner.Kind != OwnerUnique {
			t.Fatalf("Expected unique owner, got kind %v", owner.Kind)
		}
		if owner.Ref != "/heads/main" {
			t.Errorf("Expected owner /heads/main, got %q", owner.Ref)
		}
	})

	t.Run("ReferenceOwnsItsWholeSubtree", func(t *testing.T) {
		for _, ref := range ix.Refs() {
			owner := ix.Owner(ref + "/some/nested/file.txt")
			if owner.Kind != OwnerUnique || owner.Ref != ref {
				t.Errorf("Expected %q to own its subtree, got %+v", ref, owner)
			}
		}
	})

	t.Run("NoOwner", func(t *testing.T) {
		if owner := ix.Owner("/branches/x/file"); owner.Kind != OwnerNone {
			t.Errorf("Expected no owner, got %+v", owner)
		}
	})

	t.Run("ReferenceItselfIsNotOwned", func(t *testing.T) {
		// Ownership requires a separator after the reference name.
		if owner := ix.Owner("/heads/main"); owner.Kind != OwnerNone {
			t.Errorf("Expected no owner for the reference itself, got %+v", owner)
		}
	})

	t.Run("AmbiguousOwners", func(t *testing.T) {
		overlapping := indexFor(t, "refs/heads/a", "refs/heads/a/b")
		owner := overlapping.Owner("/heads/a/b/file.txt")
		if owner.Kind != OwnerAmbiguous {
			t.Fatalf("Expected ambiguous ownership, got kind %v", owner.Kind)
		}
		expected := []string{"/heads/a", "/heads/a/b"}
		if !reflect.DeepEqual(owner.Matches, expected) {
			t.Errorf("Expected matches %v, got %v", expected, owner.Matches)
		}
	})
}
