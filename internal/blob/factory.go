package blob

import (
	"context"
	"fmt"
)

// Open selects an ObjectStore implementation by driver name (s3|memory,
// default s3) and makes sure the application container exists.
func Open(ctx context.Context, driver string, cfg S3Config) (ObjectStore, error) {
	if driver == "" {
		driver = string(DriverS3)
	}
	var (
		store ObjectStore
		err   error
	)
	switch Driver(driver) {
	case DriverS3:
		store, err = NewS3(ctx, cfg)
	case DriverMemory:
		store = NewMemory()
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
	if err != nil {
		return nil, err
	}
	if err := store.EnsureContainer(ctx); err != nil {
		return nil, fmt.Errorf("ensure container: %w", err)
	}
	return store, nil
}
