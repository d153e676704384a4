package app

import (
	"context"

	"github.com/grantfleet/yardwatch/internal/upstream"
)

// DriversUsecase defines the driver directory use case.
type DriversUsecase interface {
	List(ctx context.Context) ([]upstream.Driver, error)
}

// DriverLister fetches the driver directory.
type DriverLister interface {
	ListDrivers(ctx context.Context) ([]upstream.Driver, error)
}

// DriversService implements DriversUsecase as a passthrough to the
// upstream API.
type DriversService struct {
	Client DriverLister
}

// List returns the upstream driver directory.
func (s *DriversService) List(ctx context.Context) ([]upstream.Driver, error) {
	return s.Client.ListDrivers(ctx)
}
