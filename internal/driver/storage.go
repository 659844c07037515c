package driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cloudemu/zero/internal/api"
	"github.com/cloudemu/zero/internal/constants"
	apperrors "github.com/cloudemu/zero/internal/errors"
)

const (
	blockFileName        = "data.bin"
	volumeDirPermissions = 0o750
	blockFilePermissions = 0o600
)

// FileSystemStorage keeps each volume as a directory under BasePath with
// its block device contents in a single data.bin file.
type FileSystemStorage struct {
	BasePath string
}

// NewFileSystemStorage creates a storage driver rooted at basePath.
func NewFileSystemStorage(basePath string) *FileSystemStorage {
	return &FileSystemStorage{BasePath: basePath}
}

// Name implements StorageDriver.
func (s *FileSystemStorage) Name() string { return "filesystem" }

func (s *FileSystemStorage) volumePath(id string) (string, error) {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return "", apperrors.ErrValidation(fmt.Sprintf("invalid volume id %q", id), nil)
	}
	return filepath.Join(s.BasePath, id), nil
}

// CreateVolume implements StorageDriver. The size is advisory; the block
// file grows as data is written.
func (s *FileSystemStorage) CreateVolume(_ context.Context, id string, _ int) (*api.VolumeStatus, error) {
	path, err := s.volumePath(id)
	if err != nil {
		return nil, err
	}

	if err = os.MkdirAll(path, volumeDirPermissions); err != nil {
		return nil, apperrors.ErrDriver("FS create error", err)
	}

	return &api.VolumeStatus{ID: id, Path: path, State: constants.StateAvailable}, nil
}

// DeleteVolume implements StorageDriver. Deleting a missing volume is a no-op.
func (s *FileSystemStorage) DeleteVolume(_ context.Context, id string) error {
	path, err := s.volumePath(id)
	if err != nil {
		return err
	}

	if err = os.RemoveAll(path); err != nil {
		return apperrors.ErrDriver("FS delete error", err)
	}
	return nil
}

// WriteBlock implements StorageDriver.
func (s *FileSystemStorage) WriteBlock(_ context.Context, volumeID string, offset int64, data []byte) error {
	path, err := s.volumePath(volumeID)
	if err != nil {
		return err
	}
	if offset < 0 {
		return apperrors.ErrValidation("offset must not be negative", nil)
	}

	f, err := os.OpenFile(filepath.Join(path, blockFileName), os.O_WRONLY|os.O_CREATE, blockFilePermissions)
	if err != nil {
		return apperrors.ErrDriver("FS open error", err)
	}
	defer func() { _ = f.Close() }()

	if _, err = f.WriteAt(data, offset); err != nil {
		return apperrors.ErrDriver("FS write error", err)
	}
	return nil
}

// ReadBlock implements StorageDriver. Reading past the end of the written
// data is an error.
func (s *FileSystemStorage) ReadBlock(_ context.Context, volumeID string, offset int64, length int) ([]byte, error) {
	path, err := s.volumePath(volumeID)
	if err != nil {
		return nil, err
	}
	if offset < 0 || length < 0 {
		return nil, apperrors.ErrValidation("offset and length must not be negative", nil)
	}

	f, err := os.Open(filepath.Join(path, blockFileName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.ErrNotFound(fmt.Sprintf("volume %s has no data", volumeID), err)
		}
		return nil, apperrors.ErrDriver("FS open error", err)
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, length)
	if _, err = io.ReadFull(io.NewSectionReader(f, offset, int64(length)), buf); err != nil {
		return nil, apperrors.ErrDriver("FS read error", err)
	}
	return buf, nil
}

// ListVolumes implements StorageDriver. A missing base directory yields an
// empty list.
func (s *FileSystemStorage) ListVolumes(_ context.Context) ([]api.VolumeStatus, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []api.VolumeStatus{}, nil
		}
		return nil, apperrors.ErrDriver("FS list error", err)
	}

	volumes := make([]api.VolumeStatus, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		volumes = append(volumes, api.VolumeStatus{
			ID:    entry.Name(),
			Path:  filepath.Join(s.BasePath, entry.Name()),
			State: constants.StateAvailable,
		})
	}
	sort.Slice(volumes, func(i, j int) bool { return volumes[i].ID < volumes[j].ID })
	return volumes, nil
}
