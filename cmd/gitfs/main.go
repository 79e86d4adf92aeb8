package main

import (
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"gitfs/internal/fs"
	"gitfs/internal/gitrepo"
	"gitfs/internal/logging"
)

var (
	logger = logging.GetLogger()
)

func main() {
	// Parse command line flags
	repoPath := flag.String("repo", "", "Path to git repository")
	mountPoint := flag.String("mount", "", "Mount point for the filesystem")
	allowOther := flag.Bool("allow-other", false, "Allow other users to access the mount")
	verbose := flag.Bool("verbose", false, "Enable verbose logging")
	flag.Parse()

	// Configure logging based on flags
	if *verbose {
		logger.SetLevel(logging.LevelDebug)
	}

	logger.Info("Starting gitfs...")
	logger.Debug("Repository path: %s", *repoPath)
	logger.Debug("Mount point: %s", *mountPoint)

	if *repoPath == "" || *mountPoint == "" {
		logger.Error("Repository path and mount point are required")
		flag.Usage()
		os.Exit(1)
	}

	cleanMount := filepath.Clean(*mountPoint)

	logger.Info("Opening repository...")
	repo, err := gitrepo.Open(*repoPath)
	if err != nil {
		logger.Error("Failed to open repository: %v", err)
		os.Exit(1)
	}
	logger.Debug("Repository storage: %s", repo.StoragePath())

	logger.Info("Creating filesystem...")
	gfs := fs.New(repo, *allowOther)

	logger.Debug("Setting up signal handlers...")
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Mounting filesystem...")
	if err := gfs.Mount(cleanMount); err != nil {
		logger.Error("Mount failed: %v", err)
		os.Exit(1)
	}

	logger.Info("Filesystem mounted and ready")

	// Wait for signal
	sig := <-sigChan
	logger.Info("Received signal %v", sig)
	if err := gfs.Unmount(cleanMount); err != nil {
		logger.Error("Unmount error: %v", err)
		os.Exit(1)
	}

	logger.Info("Clean shutdown complete")
}
