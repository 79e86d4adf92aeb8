package fs

import (
	"context"

	"gitfs/internal/logging"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"
)

var (
	dirLogger = logging.GetLogger().WithPrefix("dir")
)

// Dir is a directory node: the mount root, a reference-namespace
// directory, a reference itself, or a tree inside a snapshot. The node
// only carries its absolute path; every operation re-resolves it through
// the engine.
type Dir struct {
	engine *Engine
	path   string
}

var _ Directory = (*Dir)(nil)

// joinChild extends an absolute directory path with one child name.
func joinChild(dir, name string) string {
	if dir == "/" {
		return "/" + name
	}
	return dir + "/" + name
}

// fillAttr copies a synthesized attribute record into a fuse.Attr. The
// inode is left at zero: there is no identity tracking across queries.
func fillAttr(rec AttrRecord, a *fuse.Attr) {
	a.Inode = 0
	a.Mode = rec.Mode
	a.Size = rec.Size
	a.Mtime = rec.ModTime
	a.Atime = rec.ModTime
	a.Ctime = rec.ModTime
	a.Uid = rec.Uid
	a.Gid = rec.Gid
	a.BlockSize = 4096
	a.Blocks = (rec.Size + 511) / 512
}

// Attr implements the Node interface, returning directory attributes.
func (d *Dir) Attr(_ context.Context, a *fuse.Attr) error {
	dirLogger.Trace("Getting attributes for directory: %q", d.path)

	rec, err := d.engine.Attr(d.path)
	if err != nil {
		dirLogger.Debug("Attr failed for %q: %v", d.path, err)
		return ToFuseError(err)
	}
	fillAttr(rec, a)
	return nil
}

// Lookup implements the NodeStringLookuper interface, finding a child node.
func (d *Dir) Lookup(_ context.Context, name string) (fusefs.Node, error) {
	childPath := joinChild(d.path, name)
	dirLogger.Debug("Looking up %q in directory %q", name, d.path)

	rec, err := d.engine.Attr(childPath)
	if err != nil {
		dirLogger.Debug("Path not found: %q", childPath)
		return nil, ToFuseError(err)
	}

	if rec.Mode.IsDir() {
		return &Dir{engine: d.engine, path: childPath}, nil
	}
	return &File{engine: d.engine, path: childPath}, nil
}

// ReadDirAll implements the HandleReadDirAller interface, listing directory contents.
func (d *Dir) ReadDirAll(_ context.Context) ([]fuse.Dirent, error) {
	dirLogger.Debug("Reading directory contents: %q", d.path)

	children, err := d.engine.ReadDir(d.path)
	if err != nil {
		dirLogger.Debug("ReadDir failed for %q: %v", d.path, err)
		return nil, ToFuseError(err)
	}

	entries := make([]fuse.Dirent, 0, len(children)+2)
	entries = append(entries, fuse.Dirent{Name: ".", Type: fuse.DT_Dir})
	entries = append(entries, fuse.Dirent{Name: "..", Type: fuse.DT_Dir})
	for _, child := range children {
		entryType := fuse.DT_File
		if child.Dir {
			entryType = fuse.DT_Dir
		}
		entries = append(entries, fuse.Dirent{Name: child.Name, Type: entryType})
	}

	dirLogger.Debug("Directory %q contains %d entries", d.path, len(entries))
	return entries, nil
}
