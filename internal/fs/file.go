package fs

import (
	"context"

	"gitfs/internal/logging"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"
)

var (
	fileLogger = logging.GetLogger().WithPrefix("file")
)

// File is a file node inside a snapshot. Like Dir it carries only its
// absolute path; content and attributes are re-derived from the object
// graph on every call.
type File struct {
	engine *Engine
	path   string
}

var _ FileInterface = (*File)(nil)

// Attr implements the Node interface, returning the file's attributes.
func (f *File) Attr(_ context.Context, a *fuse.Attr) error {
	fileLogger.Trace("Getting attributes for file: %q", f.path)

	rec, err := f.engine.Attr(f.path)
	if err != nil {
		fileLogger.Debug("Attr failed for %q: %v", f.path, err)
		return ToFuseError(err)
	}
	fillAttr(rec, a)

	fileLogger.Trace("File attributes: mode=%v, size=%d", a.Mode, a.Size)
	return nil
}

// Open implements the NodeOpener interface. Only read-only access is
// allowed; the returned handle holds no descriptor.
func (f *File) Open(_ context.Context, req *fuse.OpenRequest, resp *fuse.OpenResponse) (fusefs.Handle, error) {
	flags := int(req.Flags)
	fileLogger.Debug("Opening file %q with flags %#o", f.path, flags)

	if err := f.engine.Open(f.path, flags); err != nil {
		return nil, ToFuseError(err)
	}

	// No kernel page cache: content comes from the object store per read
	resp.Flags |= fuse.OpenDirectIO

	fileLogger.Debug("Successfully opened file %q", f.path)
	return &FileHandle{engine: f.engine, path: f.path}, nil
}

// FileHandle is a stateless open-file handle. There is no descriptor to
// track: each read resolves the path to its blob again.
type FileHandle struct {
	engine *Engine
	path   string
}

var _ FileHandleInterface = (*FileHandle)(nil)

// Read implements the HandleReader interface, reading data from the blob.
func (fh *FileHandle) Read(_ context.Context, req *fuse.ReadRequest, resp *fuse.ReadResponse) error {
	fileLogger.Trace("Reading %d bytes from file %q at offset %d",
		req.Size, fh.path, req.Offset)

	data, err := fh.engine.Read(fh.path, req.Size, req.Offset)
	if err != nil {
		fileLogger.Error("Failed to read from file %q: %v", fh.path, err)
		return ToFuseError(err)
	}

	resp.Data = data
	fileLogger.Trace("Successfully read %d bytes", len(data))
	return nil
}
