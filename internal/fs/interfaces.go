package fs

import (
	"os"

	fusefs "bazil.org/fuse/fs"
)

// Repository is the read-only boundary to the backing object store. The
// engine never mutates it and never caches anything derived from it; every
// filesystem operation re-reads whatever it needs.
type Repository interface {
	// References returns the fully qualified reference names known to the
	// repository, e.g. "refs/heads/main".
	References() ([]string, error)

	// Commit resolves a fully qualified reference name to the commit it
	// points at.
	Commit(name string) (Commit, error)

	// StorageInfo stats the repository's own storage location. Synthesized
	// node attributes use this as their template.
	StorageInfo() (os.FileInfo, error)
}

// Commit is an immutable snapshot record owning one root tree.
type Commit interface {
	Tree() (Tree, error)
}

// Tree is a directory-like node of the object graph.
type Tree interface {
	// Entries lists the tree's entries in stored order.
	Entries() ([]Entry, error)

	// Entry resolves a single named entry, or ErrNotFound.
	Entry(name string) (Entry, error)
}

// Entry is a named member of a tree: either a nested tree or a blob.
type Entry interface {
	Name() string

	// Mode is the entry's stored filemode mapped to an os.FileMode.
	Mode() os.FileMode

	// IsDir reports whether the entry references a nested tree.
	IsDir() bool

	// Tree dereferences a directory entry to its subtree.
	Tree() (Tree, error)

	// Size returns a blob entry's byte length without reading its content.
	Size() (int64, error)

	// Content returns a blob entry's full byte content.
	Content() ([]byte, error)
}

// Directory is the node contract for directories served over FUSE.
type Directory interface {
	fusefs.Node
	fusefs.NodeStringLookuper
	fusefs.HandleReadDirAller
}

// FileInterface is the node contract for files served over FUSE.
type FileInterface interface {
	fusefs.Node
	fusefs.NodeOpener
}

// FileHandleInterface is the handle contract for open files.
type FileHandleInterface interface {
	fusefs.Handle
	fusefs.HandleReader
}
