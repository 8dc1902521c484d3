// Package backends opens the filestore.Store implementation named by
// filestore.Config.Provider.
package backends

import (
	"context"
	"fmt"

	"github.com/koustreak/bucketgallery/internal/errs"
	"github.com/koustreak/bucketgallery/internal/filestore"
	"github.com/koustreak/bucketgallery/internal/filestore/azure"
	"github.com/koustreak/bucketgallery/internal/filestore/minio"
	"github.com/koustreak/bucketgallery/internal/filestore/s3"
)

// Open builds the driver for cfg.Provider. An empty provider means S3.
// No driver performs network I/O here.
func Open(ctx context.Context, cfg *filestore.Config) (filestore.Store, error) {
	var (
		store filestore.Store
		err   error
	)
	switch cfg.Provider {
	case filestore.ProviderS3, "":
		store, err = s3.New(ctx, cfg)
	case filestore.ProviderMinIO:
		store, err = minio.New(cfg)
	case filestore.ProviderAzure:
		store, err = azure.New(cfg)
	default:
		return nil, errs.New(errs.ErrKindConfiguration, fmt.Sprintf("unknown storage provider %q", cfg.Provider))
	}
	if err != nil {
		return nil, err
	}
	return store, nil
}
