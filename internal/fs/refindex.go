package fs

import (
	"sort"
	"strings"

	"gitfs/internal/logging"
)

var (
	refLogger = logging.GetLogger().WithPrefix("refindex")
)

// refNamespace is the stored prefix stripped from exposed reference names:
// "refs/heads/main" is exposed as "/heads/main".
const refNamespace = "refs"

// RefIndex answers namespace-shaped questions about a repository's flat
// reference list without touching the object graph. It is rebuilt from the
// reference list on every filesystem operation, so it carries no state
// across queries; the sort only pins iteration order within one query.
type RefIndex struct {
	refs []string // namespace-stripped, e.g. "/heads/main"
}

// NewRefIndex collects the repository's references, keeps those under the
// refs/ namespace, and strips the namespace prefix.
func NewRefIndex(repo Repository) (*RefIndex, error) {
	names, err := repo.References()
	if err != nil {
		return nil, err
	}

	refs := make([]string, 0, len(names))
	for _, name := range names {
		if strings.HasPrefix(name, refNamespace+"/") {
			refs = append(refs, strings.TrimPrefix(name, refNamespace))
		}
	}
	sort.Strings(refs)

	refLogger.Trace("Indexed %d references", len(refs))
	return &RefIndex{refs: refs}, nil
}

// Refs returns all indexed reference names.
func (ix *RefIndex) Refs() []string {
	return ix.refs
}

// Contains reports whether path exactly names a reference.
func (ix *RefIndex) Contains(path string) bool {
	i := sort.SearchStrings(ix.refs, path)
	return i < len(ix.refs) && ix.refs[i] == path
}

// ChildrenUnder returns the references whose name starts with path. The
// match is a raw string prefix: a path equal to a full reference name also
// matches, and so does a prefix ending mid-segment.
func (ix *RefIndex) ChildrenUnder(path string) []string {
	var children []string
	for _, ref := range ix.refs {
		if strings.HasPrefix(ref, path) {
			children = append(children, ref)
		}
	}
	refLogger.Trace("ChildrenUnder(%q): %d matches", path, len(children))
	return children
}

// DirectChildren returns the deduplicated next path segments under path,
// derived from the references that extend it. Matches whose remainder
// holds no separator (the prefix ends inside a segment) contribute
// nothing.
func (ix *RefIndex) DirectChildren(path string) []string {
	prefixLen := len(path)
	if path == "/" {
		prefixLen = 0
	}

	seen := make(map[string]bool)
	var children []string
	for _, ref := range ix.ChildrenUnder(path) {
		if len(ref) <= prefixLen {
			continue
		}
		parts := strings.SplitN(ref[prefixLen:], "/", 3)
		if len(parts) < 2 {
			continue
		}
		if name := parts[1]; !seen[name] {
			seen[name] = true
			children = append(children, name)
		}
	}

	refLogger.Trace("DirectChildren(%q): %v", path, children)
	return children
}

// OwnerKind tags the result of an ownership query.
type OwnerKind int

const (
	// OwnerNone means no reference is a strict ancestor of the path
	OwnerNone OwnerKind = iota
	// OwnerUnique means exactly one reference owns the path
	OwnerUnique
	// OwnerAmbiguous means several references claim the path
	OwnerAmbiguous
)

// Owner is the tagged result of RefIndex.Owner.
type Owner struct {
	Kind    OwnerKind
	Ref     string   // the owning reference when Kind is OwnerUnique
	Matches []string // all claimants when Kind is OwnerAmbiguous
}

// Owner classifies the ownership of path: the references r for which path
// starts with r followed by a separator. Overlapping reference namespaces
// make ownership ambiguous; callers decide how to surface that.
func (ix *RefIndex) Owner(path string) Owner {
	var matches []string
	for _, ref := range ix.refs {
		if strings.HasPrefix(path, ref+"/") {
			matches = append(matches, ref)
		}
	}

	switch len(matches) {
	case 0:
		refLogger.Trace("Owner(%q): none", path)
		return Owner{Kind: OwnerNone}
	case 1:
		refLogger.Trace("Owner(%q): %q", path, matches[0])
		return Owner{Kind: OwnerUnique, Ref: matches[0]}
	default:
		refLogger.Warn("Overlapping reference namespaces for %q: %v", path, matches)
		return Owner{Kind: OwnerAmbiguous, Matches: matches}
	}
}
