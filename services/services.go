package services

import (
	"github.com/blogem/plant-maintenance/repositories"
	"github.com/blogem/plant-maintenance/rotation"
)

// Services holds all service instances
type Services struct {
	Entities     EntityService
	Traceability TraceabilityService
	Storage      StorageService
}

// NewServices creates and initializes all service instances
func NewServices(repos *repositories.Repositories, rotator *rotation.Rotator) *Services {
	return &Services{
		Entities:     NewEntityService(repos),
		Traceability: NewTraceabilityService(repos),
		Storage:      NewStorageService(rotator),
	}
}
