package services

import (
	"context"

	"github.com/blogem/plant-maintenance/rotation"
)

// Usage is the measured size of the managed datasets
type Usage struct {
	Bytes    int64    `json:"bytes"`
	MaxBytes int64    `json:"max_bytes"`
	Datasets []string `json:"datasets"`
	Errors   string   `json:"errors,omitempty"`
}

// StorageService interface exposes storage rotation
type StorageService interface {
	Usage(ctx context.Context) (*Usage, error)
	Rotate(ctx context.Context) (*rotation.RotationReport, error)
}

// storageService implements StorageService interface
type storageService struct {
	rotator *rotation.Rotator
}

// NewStorageService creates a new storage service
func NewStorageService(rotator *rotation.Rotator) StorageService {
	return &storageService{rotator: rotator}
}

// Usage measures the datasets now. Datasets that cannot be measured are
// listed in Errors rather than failing the call.
func (s *storageService) Usage(ctx context.Context) (*Usage, error) {
	bytes, err := s.rotator.CurrentUsage(ctx)
	usage := &Usage{
		Bytes:    bytes,
		MaxBytes: s.rotator.MaxBytes(),
		Datasets: s.rotator.Datasets(),
	}
	if err != nil {
		usage.Errors = err.Error()
	}
	return usage, nil
}

// Rotate runs one rotation pass
func (s *storageService) Rotate(ctx context.Context) (*rotation.RotationReport, error) {
	report, err := s.rotator.RunRotationPass(ctx)
	if err != nil {
		return nil, err
	}
	return &report, nil
}
