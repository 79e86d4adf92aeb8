package fs

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gitfs/internal/logging"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"
)

var (
	gfsLogger = logging.GetLogger().WithPrefix("gitfs")
)

// GitFS exposes a git repository's references and snapshots as a
// read-only FUSE filesystem. All resolution happens in the engine; GitFS
// itself only carries the mount lifecycle.
type GitFS struct {
	engine     *Engine    // Path resolution and attribute synthesis
	conn       *fuse.Conn // FUSE connection
	allowOther bool       // Whether to mount with AllowOther
}

// New creates a filesystem over the given repository.
func New(repo Repository, allowOther bool) *GitFS {
	gfsLogger.Info("Creating git filesystem")

	// Fallback ownership when the storage stat carries no uid/gid
	uid := safeIntToUint32(os.Getuid())
	gid := safeIntToUint32(os.Getgid())

	if puidStr := os.Getenv("PUID"); puidStr != "" {
		if puid, err := strconv.ParseUint(puidStr, 10, 32); err == nil {
			uid = uint32(puid)
			gfsLogger.Debug("Using PUID from environment: %d", uid)
		}
	}
	if pgidStr := os.Getenv("PGID"); pgidStr != "" {
		if pgid, err := strconv.ParseUint(pgidStr, 10, 32); err == nil {
			gid = uint32(pgid)
			gfsLogger.Debug("Using PGID from environment: %d", gid)
		}
	}

	return &GitFS{
		engine:     NewEngine(repo, uid, gid),
		allowOther: allowOther,
	}
}

// Root implements the fusefs.FS interface, returning the root directory node.
func (gfs *GitFS) Root() (fusefs.Node, error) {
	gfsLogger.Trace("Getting root directory node")
	return &Dir{engine: gfs.engine, path: "/"}, nil
}

func waitForMount(mountpoint string) error {
	for i := 0; i < 30; i++ {
		info, err := os.Stat(mountpoint)
		if err == nil && info.IsDir() {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("mount point not available after 3 seconds")
}

// Mount mounts the filesystem at mountPoint and starts serving.
func (gfs *GitFS) Mount(mountPoint string) error {
	gfsLogger.Info("Mounting git filesystem")
	gfsLogger.Debug("Mount point: %s", mountPoint)

	mountOpts := []fuse.MountOption{
		fuse.FSName("gitfs"),
		fuse.Subtype("gitfs"),
		fuse.ReadOnly(),
		fuse.AsyncRead(),
	}
	if gfs.allowOther {
		mountOpts = append(mountOpts, fuse.AllowOther())
	}

	gfsLogger.Debug("Mounting with options: %+v", mountOpts)

	c, err := fuse.Mount(mountPoint, mountOpts...)
	if err != nil {
		return fmt.Errorf("mount failed: %w", err)
	}
	gfs.conn = c

	go func() {
		if serveErr := fusefs.Serve(c, gfs); serveErr != nil {
			gfsLogger.Error("FUSE server error: %v", serveErr)
		}
		gfsLogger.Debug("FUSE server stopped")
	}()

	if err := waitForMount(mountPoint); err != nil {
		c.Close()
		gfsLogger.Error("Mount point not ready: %v", err)
		return fmt.Errorf("mount point failed to initialize: %w", err)
	}

	gfsLogger.Info("Filesystem mounted successfully")
	return nil
}

// Unmount cleanly unmounts the filesystem.
func (gfs *GitFS) Unmount(mountPoint string) error {
	gfsLogger.Info("Unmounting filesystem from: %s", mountPoint)
	if gfs.conn != nil {
		err := fuse.Unmount(mountPoint)
		if err != nil {
			gfsLogger.Error("Unmount failed: %v", err)
		} else {
			gfsLogger.Info("Unmount completed successfully")
		}
		return err
	}
	return nil
}
