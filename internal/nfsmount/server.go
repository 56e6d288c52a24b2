package nfsmount

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os/exec"
	"runtime"

	billy "github.com/go-git/go-billy/v5"
	nfs "github.com/willscott/go-nfs"
	nfshelper "github.com/willscott/go-nfs/helpers"
)

// DefaultAddr listens on an ephemeral loopback port.
const DefaultAddr = "127.0.0.1:0"

// Server manages the NFS server lifecycle.
type Server struct {
	listener net.Listener
	port     int
	done     chan struct{}
}

// NewServer starts an NFS server on addr backed by the given filesystem.
// An empty addr means DefaultAddr.
func NewServer(fs billy.Filesystem, addr string, logger *slog.Logger) (*Server, error) {
	if addr == "" {
		addr = DefaultAddr
	}
	if logger == nil {
		logger = slog.Default()
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("nfs listen: %w", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port

	handler := nfshelper.NewNullAuthHandler(fs)
	cacheHelper := nfshelper.NewCachingHandler(handler, 4096)

	s := &Server{listener: listener, port: port, done: make(chan struct{})}
	go func() {
		defer close(s.done)
		if err := nfs.Serve(listener, cacheHelper); err != nil && !errors.Is(err, net.ErrClosed) {
			logger.Error("nfs server stopped", "error", err)
		}
	}()

	logger.Debug("nfs server listening", "addr", listener.Addr().String())
	return s, nil
}

// Port returns the TCP port the NFS server is listening on.
func (s *Server) Port() int {
	return s.port
}

// Close stops the NFS server by closing the listener.
func (s *Server) Close() error {
	err := s.listener.Close()
	<-s.done
	return err
}

// Mount mounts the NFS server on port read-only at mountpoint using the
// system mount command. Requires sudo.
func Mount(port int, mountpoint string) error {
	argv, err := mountCommand(runtime.GOOS, port, mountpoint)
	if err != nil {
		return err
	}
	if out, err := exec.Command(argv[0], argv[1:]...).CombinedOutput(); err != nil {
		return fmt.Errorf("mount %s: %w\n%s", mountpoint, err, out)
	}
	return nil
}

// Unmount tries each unmount command for the platform in turn and reports
// the last failure.
func Unmount(mountpoint string) error {
	var err error
	for _, argv := range unmountCommands(runtime.GOOS, mountpoint) {
		out, runErr := exec.Command(argv[0], argv[1:]...).CombinedOutput()
		if runErr == nil {
			return nil
		}
		err = fmt.Errorf("unmount %s: %w\n%s", mountpoint, runErr, out)
	}
	return err
}

// mountOptions holds the read-only NFSv3 options per platform. The server
// speaks mount and nfs on one port and implements no lock manager.
var mountOptions = map[string]string{
	"darwin": "port=%[1]d,mountport=%[1]d,vers=3,tcp,locallocks,noresvport,rdonly",
	"linux":  "port=%[1]d,mountport=%[1]d,vers=3,tcp,local_lock=all,nolock,ro",
}

func mountCommand(goos string, port int, mountpoint string) ([]string, error) {
	opts, ok := mountOptions[goos]
	if !ok {
		return nil, fmt.Errorf("mount: unsupported OS %s", goos)
	}
	return []string{"sudo", "mount", "-t", "nfs", "-o", fmt.Sprintf(opts, port), "localhost:/", mountpoint}, nil
}

// unmountCommands lists the commands to try in order. On macOS diskutil
// unmounts user NFS mounts without sudo.
func unmountCommands(goos, mountpoint string) [][]string {
	umount := []string{"sudo", "umount", mountpoint}
	if goos == "darwin" {
		return [][]string{{"diskutil", "unmount", mountpoint}, umount}
	}
	return [][]string{umount}
}
