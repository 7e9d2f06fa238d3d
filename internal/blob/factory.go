package blob

import (
	"context"
	"fmt"
)

// Config selects and configures a payload backend.
type Config struct {
	Driver Driver
	FSRoot string
	S3     S3Config
}

// Open builds the Store named by cfg.Driver. An empty driver selects fs.
func Open(ctx context.Context, cfg Config) (Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverFilesystem
	}
	switch driver {
	case DriverFilesystem:
		return NewFilesystem(cfg.FSRoot)
	case DriverS3:
		return NewS3(ctx, cfg.S3)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
}
