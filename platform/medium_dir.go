// platform/medium_dir.go
//go:build !rp2040 && !rp2350

package platform

import (
	"os"
	"path/filepath"

	"tracklog-go/types"
)

// DirMedium exposes a host directory as the removable medium. Removing the
// directory (or pointing root at a detachable mount) exercises the same
// hot-plug paths the SD card does on hardware.
type DirMedium struct {
	root string
}

func NewDirMedium(root string) *DirMedium { return &DirMedium{root: root} }

func (d *DirMedium) Probe() bool {
	fi, err := os.Stat(d.root)
	return err == nil && fi.IsDir()
}

func (d *DirMedium) Exists(name string) bool {
	_, err := os.Stat(filepath.Join(d.root, name))
	return err == nil
}

func (d *DirMedium) Create(name string) (types.File, error) {
	return os.Create(filepath.Join(d.root, name))
}

func (d *DirMedium) OpenAppend(name string) (types.File, error) {
	return os.OpenFile(filepath.Join(d.root, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}
