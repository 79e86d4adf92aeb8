package fs

import (
	"os"
	"strings"
	"syscall"
	"time"

	"gitfs/internal/logging"
)

var (
	engineLogger = logging.GetLogger().WithPrefix("engine")
)

// hiddenPrefix marks the reserved leading-dot namespace at the mount root.
// Editors and tools probe it for metadata files; it is never populated.
const hiddenPrefix = "/."

// AttrRecord is a synthesized attribute record. Attributes are derived
// fresh on every query: the repository storage directory's own metadata is
// the template, with size and mode overridden for snapshot files.
type AttrRecord struct {
	Mode    os.FileMode
	Size    uint64
	ModTime time.Time
	Uid     uint32
	Gid     uint32
}

// DirEntry is one name in a directory listing.
type DirEntry struct {
	Name string
	Dir  bool
}

// Engine resolves filesystem paths against the repository's reference
// list and object graph. It holds no mutable state: every operation
// re-derives the reference index and re-walks the trees, so concurrent
// invocations need no locking.
type Engine struct {
	repo Repository
	uid  uint32 // fallback owner when the storage stat carries none
	gid  uint32
}

// NewEngine creates an engine over the given repository.
func NewEngine(repo Repository, uid, gid uint32) *Engine {
	return &Engine{repo: repo, uid: uid, gid: gid}
}

func isHidden(path string) bool {
	return strings.HasPrefix(path, hiddenPrefix)
}

// index rebuilds the reference namespace index for one operation.
func (e *Engine) index(op, path string) (*RefIndex, error) {
	ix, err := NewRefIndex(e.repo)
	if err != nil {
		return nil, NewError(op, path, err)
	}
	return ix, nil
}

// ownerRef unpacks an ownership result, turning the non-unique cases into
// errors. Ambiguity is a distinct kind internally but surfaces as ENOENT.
func ownerRef(owner Owner, op, path string) (string, error) {
	switch owner.Kind {
	case OwnerUnique:
		return owner.Ref, nil
	case OwnerAmbiguous:
		return "", NewError(op, path, ErrAmbiguousRef)
	default:
		return "", NewError(op, path, ErrNotFound)
	}
}

// template synthesizes the directory attribute record from the repository
// storage location: write bits cleared, no inode identity.
func (e *Engine) template(op, path string) (AttrRecord, error) {
	info, err := e.repo.StorageInfo()
	if err != nil {
		return AttrRecord{}, NewError(op, path, err)
	}

	rec := AttrRecord{
		Mode:    info.Mode() &^ 0222,
		Size:    safeInt64ToUint64(info.Size()),
		ModTime: info.ModTime(),
		Uid:     e.uid,
		Gid:     e.gid,
	}
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		rec.Uid = st.Uid
		rec.Gid = st.Gid
	}
	return rec, nil
}

// Attr resolves path to a synthesized attribute record. Namespace nodes
// and snapshot trees report the directory template; snapshot files
// override size with the blob length and mode with the entry's stored
// filemode, taken verbatim.
func (e *Engine) Attr(path string) (AttrRecord, error) {
	engineLogger.Trace("Attr %q", path)

	if isHidden(path) {
		return AttrRecord{}, NewError(OpGetattr, path, ErrNotFound)
	}

	ix, err := e.index(OpGetattr, path)
	if err != nil {
		return AttrRecord{}, err
	}
	tmpl, err := e.template(OpGetattr, path)
	if err != nil {
		return AttrRecord{}, err
	}

	// Path is a reference or an ancestor of one
	if len(ix.ChildrenUnder(path)) > 0 {
		return tmpl, nil
	}

	ref, err := ownerRef(ix.Owner(path), OpGetattr, path)
	if err != nil {
		return AttrRecord{}, err
	}
	root, err := rootTreeFor(e.repo, ref)
	if err != nil {
		return AttrRecord{}, NewError(OpGetattr, path, err)
	}
	entry, err := findEntry(root, strings.TrimPrefix(path, ref+"/"))
	if err != nil {
		return AttrRecord{}, NewError(OpGetattr, path, err)
	}

	if entry.IsDir() {
		return tmpl, nil
	}

	size, err := entry.Size()
	if err != nil {
		return AttrRecord{}, NewError(OpGetattr, path, err)
	}
	tmpl.Mode = entry.Mode()
	tmpl.Size = safeInt64ToUint64(size)
	return tmpl, nil
}

// ReadDir lists path: the next reference namespace segments if any, else
// the entries of the owning snapshot directory. Listing a resolvable file
// path yields an empty listing rather than an error.
func (e *Engine) ReadDir(path string) ([]DirEntry, error) {
	engineLogger.Trace("ReadDir %q", path)

	ix, err := e.index(OpReadDir, path)
	if err != nil {
		return nil, err
	}

	// Path is an ancestor directory of one or more references
	if children := ix.DirectChildren(path); len(children) > 0 {
		entries := make([]DirEntry, 0, len(children))
		for _, name := range children {
			entries = append(entries, DirEntry{Name: name, Dir: true})
		}
		return entries, nil
	}

	// Path is a reference: list its root tree
	if ix.Contains(path) {
		root, treeErr := rootTreeFor(e.repo, path)
		if treeErr != nil {
			return nil, NewError(OpReadDir, path, treeErr)
		}
		return treeEntries(root, OpReadDir, path)
	}

	ref, err := ownerRef(ix.Owner(path), OpReadDir, path)
	if err != nil {
		return nil, err
	}
	root, err := rootTreeFor(e.repo, ref)
	if err != nil {
		return nil, NewError(OpReadDir, path, err)
	}
	entry, err := findEntry(root, strings.TrimPrefix(path, ref+"/"))
	if err != nil {
		return nil, NewError(OpReadDir, path, err)
	}

	if entry.IsDir() {
		subtree, subErr := entry.Tree()
		if subErr != nil {
			return nil, NewError(OpReadDir, path, subErr)
		}
		return treeEntries(subtree, OpReadDir, path)
	}

	// Listing a file path: empty, not an error
	engineLogger.Debug("ReadDir on file path %q, returning empty listing", path)
	return nil, nil
}

func treeEntries(tree Tree, op, path string) ([]DirEntry, error) {
	entries, err := tree.Entries()
	if err != nil {
		return nil, NewError(op, path, err)
	}
	out := make([]DirEntry, 0, len(entries))
	for _, entry := range entries {
		out = append(out, DirEntry{Name: entry.Name(), Dir: entry.IsDir()})
	}
	return out, nil
}

// Open validates an open request. Only read-only access is allowed; no
// descriptor is created because content is re-derived on every read.
func (e *Engine) Open(path string, flags int) error {
	engineLogger.Debug("Open %q flags %#o", path, flags)

	if isHidden(path) {
		return NewError(OpOpen, path, ErrNotFound)
	}
	if flags&(os.O_WRONLY|os.O_RDWR) != 0 {
		engineLogger.Warn("Write access attempted on read-only path %q", path)
		return NewError(OpOpen, path, ErrAccessDenied)
	}
	return nil
}

// Read resolves path to a blob and returns [offset, offset+size) clipped
// to the blob's length. Offsets at or past the end yield an empty result.
func (e *Engine) Read(path string, size int, offset int64) ([]byte, error) {
	engineLogger.Trace("Read %q size=%d offset=%d", path, size, offset)

	if isHidden(path) {
		return nil, NewError(OpRead, path, ErrNotFound)
	}

	ix, err := e.index(OpRead, path)
	if err != nil {
		return nil, err
	}
	ref, err := ownerRef(ix.Owner(path), OpRead, path)
	if err != nil {
		return nil, err
	}
	root, err := rootTreeFor(e.repo, ref)
	if err != nil {
		return nil, NewError(OpRead, path, err)
	}
	entry, err := findEntry(root, strings.TrimPrefix(path, ref+"/"))
	if err != nil {
		return nil, NewError(OpRead, path, err)
	}

	content, err := entry.Content()
	if err != nil {
		return nil, NewError(OpRead, path, err)
	}

	if offset >= int64(len(content)) {
		return nil, nil
	}
	if offset == 0 && size >= len(content) {
		return content, nil
	}
	end := offset + int64(size)
	if end > int64(len(content)) {
		end = int64(len(content))
	}
	return content[offset:end], nil
}
