// Package nfsmount projects a record tree as a read-only filesystem and
// serves it over NFS with willscott/go-nfs.
//
// Layout:
//
//	/_snapshot.json        description of the loaded record source
//	/<id>/                 one directory per top-level record
//	/<id>/item.json        the record itself
//	/<id>/<child-id>/...   one directory per direct child
package nfsmount

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/helper/chroot"

	"github.com/agentic-research/arbor/api"
	"github.com/agentic-research/arbor/internal/graph"
	"github.com/agentic-research/arbor/internal/ingest"
)

// Reserved file names.
const (
	ItemFile     = "item.json"
	SnapshotFile = "_snapshot.json"
)

var errReadOnly = fmt.Errorf("read-only filesystem")

// TreeFS adapts a graph.Tree to billy.Filesystem.
type TreeFS struct {
	tree      graph.Tree
	mountTime time.Time

	mu           sync.RWMutex
	snapshotJSON []byte
}

// NewTreeFS creates a read-only billy.Filesystem backed by tree.
func NewTreeFS(tree graph.Tree, snapshot ingest.SnapshotInfo) *TreeFS {
	fs := &TreeFS{tree: tree, mountTime: time.Now()}
	fs.SetSnapshot(snapshot)
	return fs
}

// SetSnapshot replaces the content of /_snapshot.json, e.g. after a reload.
func (fs *TreeFS) SetSnapshot(snapshot ingest.SnapshotInfo) {
	sj, _ := json.MarshalIndent(snapshot, "", "  ")
	sj = append(sj, '\n')
	fs.mu.Lock()
	fs.snapshotJSON = sj
	fs.mu.Unlock()
}

func (fs *TreeFS) snapshot() []byte {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.snapshotJSON
}

// NodeName returns the directory name used for a record id. '%', '/' and
// '"' are percent-escaped; string ids that would read as integers or
// reserved names are then wrapped in double quotes, so they never collide
// with integer ids, the files beside them, or each other.
func NodeName(id any) string {
	key := api.AnyID(id)
	raw := key.String()
	name := nameEscaper.Replace(raw)
	if key.Kind() == api.KindString {
		if _, err := strconv.ParseInt(raw, 10, 64); err == nil || reservedName(raw) {
			name = `"` + name + `"`
		}
	}
	return name
}

var nameEscaper = strings.NewReplacer("%", "%25", "/", "%2F", `"`, "%22")

func reservedName(name string) bool {
	switch name {
	case "", ".", "..", ItemFile, SnapshotFile:
		return true
	}
	return false
}

// --- billy.Basic ---

func (fs *TreeFS) Create(filename string) (billy.File, error) {
	return nil, errReadOnly
}

func (fs *TreeFS) Open(filename string) (billy.File, error) {
	return fs.OpenFile(filename, os.O_RDONLY, 0)
}

func (fs *TreeFS) OpenFile(filename string, flag int, perm os.FileMode) (billy.File, error) {
	filename = cleanPath(filename)
	if flag&(os.O_WRONLY|os.O_RDWR|os.O_CREATE|os.O_TRUNC) != 0 {
		return nil, errReadOnly
	}

	e, err := fs.resolve(filename)
	if err != nil {
		return nil, &os.PathError{Op: "open", Path: filename, Err: os.ErrNotExist}
	}
	if e.dir {
		return nil, &os.PathError{Op: "open", Path: filename, Err: fmt.Errorf("is a directory")}
	}
	return &bytesFile{name: filename, data: e.data}, nil
}

func (fs *TreeFS) Stat(filename string) (os.FileInfo, error) {
	return fs.Lstat(filename)
}

func (fs *TreeFS) Rename(oldpath, newpath string) error {
	return errReadOnly
}

func (fs *TreeFS) Remove(filename string) error {
	return errReadOnly
}

func (fs *TreeFS) Join(elem ...string) string {
	return filepath.Join(elem...)
}

// --- billy.TempFile ---

func (fs *TreeFS) TempFile(dir, prefix string) (billy.File, error) {
	return nil, billy.ErrNotSupported
}

// --- billy.Dir ---

func (fs *TreeFS) ReadDir(path string) ([]os.FileInfo, error) {
	path = cleanPath(path)

	e, err := fs.resolve(path)
	if err != nil {
		return nil, &os.PathError{Op: "readdir", Path: path, Err: os.ErrNotExist}
	}
	if !e.dir {
		return nil, &os.PathError{Op: "readdir", Path: path, Err: fmt.Errorf("not a directory")}
	}

	children, err := fs.tree.Children(e.id)
	if err != nil {
		return nil, &os.PathError{Op: "readdir", Path: path, Err: err}
	}

	infos := make([]os.FileInfo, 0, len(children)+1)
	if path == "/" {
		infos = append(infos, fs.fileInfo(SnapshotFile, fs.snapshot()))
	} else {
		infos = append(infos, fs.fileInfo(ItemFile, e.data))
	}

	seen := make(map[string]bool, len(children))
	for _, child := range children {
		name := NodeName(child.ID)
		if seen[name] {
			continue
		}
		seen[name] = true
		infos = append(infos, fs.dirInfo(name))
	}
	return infos, nil
}

func (fs *TreeFS) MkdirAll(filename string, perm os.FileMode) error {
	return errReadOnly
}

// --- billy.Symlink ---

func (fs *TreeFS) Lstat(filename string) (os.FileInfo, error) {
	filename = cleanPath(filename)

	e, err := fs.resolve(filename)
	if err != nil {
		return nil, &os.PathError{Op: "lstat", Path: filename, Err: os.ErrNotExist}
	}
	if e.dir {
		return fs.dirInfo(filepath.Base(filename)), nil
	}
	return fs.fileInfo(filepath.Base(filename), e.data), nil
}

func (fs *TreeFS) Symlink(target, link string) error {
	return billy.ErrNotSupported
}

func (fs *TreeFS) Readlink(link string) (string, error) {
	return "", billy.ErrNotSupported
}

// --- billy.Chroot ---

func (fs *TreeFS) Chroot(path string) (billy.Filesystem, error) {
	return chroot.New(fs, path), nil
}

func (fs *TreeFS) Root() string {
	return "/"
}

// --- billy.Capable ---

func (fs *TreeFS) Capabilities() billy.Capability {
	return billy.ReadCapability | billy.SeekCapability
}

// --- internals ---

// entry is a resolved path: a directory for a record (or the root), or a
// file with its content.
type entry struct {
	dir  bool
	id   any    // record id of a directory; api.RootID for "/"
	data []byte // file content, or item.json content for a record directory
}

// resolve walks path from the root, matching each segment against the
// children of the previous one.
func (fs *TreeFS) resolve(path string) (entry, error) {
	if path == "/" {
		return entry{dir: true, id: api.RootID}, nil
	}
	if path == "/"+SnapshotFile {
		return entry{data: fs.snapshot()}, nil
	}

	segs := strings.Split(strings.TrimPrefix(path, "/"), "/")
	var (
		parent any = api.RootID
		item   api.Item
	)
	for i, seg := range segs {
		if i > 0 && i == len(segs)-1 && seg == ItemFile {
			data, err := itemJSON(item)
			if err != nil {
				return entry{}, err
			}
			return entry{data: data}, nil
		}

		children, err := fs.tree.Children(parent)
		if err != nil {
			return entry{}, err
		}
		found := false
		for _, child := range children {
			if NodeName(child.ID) == seg {
				item, found = child, true
				break
			}
		}
		if !found {
			return entry{}, os.ErrNotExist
		}
		parent = item.ID
	}

	data, err := itemJSON(item)
	if err != nil {
		return entry{}, err
	}
	return entry{dir: true, id: item.ID, data: data}, nil
}

func itemJSON(item api.Item) ([]byte, error) {
	b, err := json.MarshalIndent(item, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

func (fs *TreeFS) dirInfo(name string) os.FileInfo {
	return &staticFileInfo{
		name:    name,
		mode:    os.ModeDir | 0o555,
		modTime: fs.mountTime,
	}
}

func (fs *TreeFS) fileInfo(name string, data []byte) os.FileInfo {
	return &staticFileInfo{
		name:    name,
		size:    int64(len(data)),
		mode:    0o444,
		modTime: fs.mountTime,
	}
}

// cleanPath normalizes a billy path to a clean absolute path.
func cleanPath(path string) string {
	path = filepath.Clean("/" + path)
	if path == "." {
		return "/"
	}
	return path
}

// staticFileInfo implements os.FileInfo with static values.
type staticFileInfo struct {
	name    string
	size    int64
	mode    os.FileMode
	modTime time.Time
}

func (fi *staticFileInfo) Name() string       { return fi.name }
func (fi *staticFileInfo) Size() int64        { return fi.size }
func (fi *staticFileInfo) Mode() os.FileMode  { return fi.mode }
func (fi *staticFileInfo) ModTime() time.Time { return fi.modTime }
func (fi *staticFileInfo) IsDir() bool        { return fi.mode.IsDir() }
func (fi *staticFileInfo) Sys() interface{}   { return nil }

// Compile-time interface checks.
var (
	_ billy.Filesystem = (*TreeFS)(nil)
	_ billy.Capable    = (*TreeFS)(nil)
	_ billy.File       = (*bytesFile)(nil)
)
