package services

import (
	"context"

	"github.com/cloudemu/zero/internal/constants"
	"github.com/cloudemu/zero/internal/driver"
)

// StoreService maps object-store buckets onto storage volumes.
type StoreService struct {
	storage driver.StorageDriver
}

// NewStoreService creates a store service over a storage driver.
func NewStoreService(storage driver.StorageDriver) *StoreService {
	return &StoreService{storage: storage}
}

// CreateBucket creates a bucket as a small volume.
func (s *StoreService) CreateBucket(ctx context.Context, name string) error {
	_, err := s.storage.CreateVolume(ctx, name, constants.BucketVolumeSizeGB)
	return err
}

// ListBuckets returns the names of all buckets.
func (s *StoreService) ListBuckets(ctx context.Context) ([]string, error) {
	volumes, err := s.storage.ListVolumes(ctx)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(volumes))
	for _, v := range volumes {
		names = append(names, v.ID)
	}
	return names, nil
}
