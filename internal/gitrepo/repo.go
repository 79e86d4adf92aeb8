// Package gitrepo adapts an on-disk git repository, read through go-git,
// to the object-store boundary consumed by the filesystem engine.
package gitrepo

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gitfs/internal/fs"
	"gitfs/internal/logging"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
)

var (
	logger = logging.GetLogger().WithPrefix("gitrepo")
)

// Repository wraps an open go-git repository together with the storage
// directory whose metadata templates every synthesized attribute record.
type Repository struct {
	repo        *git.Repository
	storagePath string
}

var _ fs.Repository = (*Repository)(nil)

// Open opens the repository at location. It tries <location>/.git first,
// then the location itself, so both checkouts and bare repositories work.
// Failure to find a repository at either is ErrNotARepository; the caller
// is expected to treat that as fatal at startup.
func Open(location string) (*Repository, error) {
	abs, err := filepath.Abs(location)
	if err != nil {
		return nil, err
	}

	candidates := []string{filepath.Join(abs, git.GitDirName), abs}
	for _, dir := range candidates {
		if _, statErr := os.Stat(dir); statErr != nil {
			continue
		}
		repo, openErr := git.PlainOpen(dir)
		if openErr != nil {
			logger.Debug("No repository at %s: %v", dir, openErr)
			continue
		}
		logger.Info("Opened repository at %s", dir)
		return &Repository{repo: repo, storagePath: dir}, nil
	}

	return nil, fmt.Errorf("%s: %w", location, fs.ErrNotARepository)
}

// References returns the fully qualified names of all references.
func (r *Repository) References() ([]string, error) {
	iter, err := r.repo.References()
	if err != nil {
		return nil, err
	}

	var names []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		names = append(names, ref.Name().String())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}

// Commit resolves a fully qualified reference name to its commit,
// following symbolic references and peeling annotated tags.
func (r *Repository) Commit(name string) (fs.Commit, error) {
	ref, err := r.repo.Reference(plumbing.ReferenceName(name), true)
	if err != nil {
		return nil, fmt.Errorf("reference %s: %w", name, fs.ErrNotFound)
	}

	commit, err := r.repo.CommitObject(ref.Hash())
	if err != nil {
		// Annotated tags point at a tag object, not the commit
		tag, tagErr := r.repo.TagObject(ref.Hash())
		if tagErr != nil {
			return nil, fmt.Errorf("commit for %s: %w", name, fs.ErrNotFound)
		}
		commit, err = tag.Commit()
		if err != nil {
			return nil, fmt.Errorf("tag target for %s: %w", name, fs.ErrNotFound)
		}
	}

	return &Commit{repo: r.repo, commit: commit}, nil
}

// StorageInfo stats the repository storage directory.
func (r *Repository) StorageInfo() (os.FileInfo, error) {
	return os.Lstat(r.storagePath)
}

// StoragePath returns the directory the repository was opened from.
func (r *Repository) StoragePath() string {
	return r.storagePath
}

// Commit adapts *object.Commit.
type Commit struct {
	repo   *git.Repository
	commit *object.Commit
}

// Tree returns the commit's root tree.
func (c *Commit) Tree() (fs.Tree, error) {
	tree, err := c.commit.Tree()
	if err != nil {
		return nil, err
	}
	return &Tree{repo: c.repo, tree: tree}, nil
}

// Tree adapts *object.Tree.
type Tree struct {
	repo *git.Repository
	tree *object.Tree
}

// Entries lists the tree's entries in stored order.
func (t *Tree) Entries() ([]fs.Entry, error) {
	entries := make([]fs.Entry, 0, len(t.tree.Entries))
	for i := range t.tree.Entries {
		entries = append(entries, &Entry{repo: t.repo, entry: &t.tree.Entries[i]})
	}
	return entries, nil
}

// Entry resolves a single named entry.
func (t *Tree) Entry(name string) (fs.Entry, error) {
	for i := range t.tree.Entries {
		if t.tree.Entries[i].Name == name {
			return &Entry{repo: t.repo, entry: &t.tree.Entries[i]}, nil
		}
	}
	return nil, fmt.Errorf("entry %s: %w", name, fs.ErrNotFound)
}

// Entry adapts *object.TreeEntry.
type Entry struct {
	repo  *git.Repository
	entry *object.TreeEntry
}

// Name returns the entry's name within its tree.
func (e *Entry) Name() string {
	return e.entry.Name
}

// Mode maps the entry's stored git filemode to an os.FileMode.
func (e *Entry) Mode() os.FileMode {
	mode, err := e.entry.Mode.ToOSFileMode()
	if err != nil {
		logger.Warn("Unmappable filemode %v for %s", e.entry.Mode, e.entry.Name)
		return 0
	}
	return mode
}

// IsDir reports whether the entry references a nested tree.
func (e *Entry) IsDir() bool {
	return e.entry.Mode == filemode.Dir
}

// Tree dereferences a directory entry to its subtree.
func (e *Entry) Tree() (fs.Tree, error) {
	tree, err := e.repo.TreeObject(e.entry.Hash)
	if err != nil {
		return nil, fmt.Errorf("subtree %s: %w", e.entry.Name, fs.ErrNotFound)
	}
	return &Tree{repo: e.repo, tree: tree}, nil
}

// Size returns the blob's length without reading its content.
func (e *Entry) Size() (int64, error) {
	blob, err := e.repo.BlobObject(e.entry.Hash)
	if err != nil {
		return 0, fmt.Errorf("blob %s: %w", e.entry.Name, fs.ErrNotFound)
	}
	return blob.Size, nil
}

// Content reads the blob's full content.
func (e *Entry) Content() ([]byte, error) {
	blob, err := e.repo.BlobObject(e.entry.Hash)
	if err != nil {
		return nil, fmt.Errorf("blob %s: %w", e.entry.Name, fs.ErrNotFound)
	}
	reader, err := blob.Reader()
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}
