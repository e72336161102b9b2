package main

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/fuelops/spbu-backoffice/internal/config"
	"github.com/fuelops/spbu-backoffice/internal/storage"
)

// newDownloadCommand pulls seed CSV exports from S3-compatible storage into
// the local data directory so the seeders can run against them.
func newDownloadCommand() *cli.Command {
	return &cli.Command{
		Name:  "download",
		Usage: "Download seed CSV files from object storage",
		Flags: []cli.Flag{
			newDataDirFlag(),
			&cli.StringFlag{
				Name:    "prefix",
				Usage:   "Object key prefix to download",
				Value:   "seeds/",
				EnvVars: []string{"SEED_OBJECT_PREFIX"},
			},
			&cli.StringFlag{
				Name:     "endpoint",
				Usage:    "S3-compatible endpoint",
				Required: true,
				EnvVars:  []string{"EXPORT_ENDPOINT"},
			},
			&cli.StringFlag{
				Name:     "access-key",
				Required: true,
				EnvVars:  []string{"EXPORT_ACCESS_KEY"},
			},
			&cli.StringFlag{
				Name:     "secret-key",
				Required: true,
				EnvVars:  []string{"EXPORT_SECRET_KEY"},
			},
			&cli.StringFlag{
				Name:     "bucket",
				Required: true,
				EnvVars:  []string{"EXPORT_BUCKET"},
			},
			&cli.StringFlag{
				Name:    "region",
				EnvVars: []string{"EXPORT_REGION"},
			},
		},
		Action: runDownloader,
	}
}

func runDownloader(c *cli.Context) error {
	client, err := storage.NewS3Client(config.ExportConfig{
		Endpoint:  c.String("endpoint"),
		AccessKey: c.String("access-key"),
		SecretKey: c.String("secret-key"),
		Bucket:    c.String("bucket"),
		Region:    c.String("region"),
		UseSSL:    true,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize storage client: %w", err)
	}

	ctx := context.Background()
	prefix := c.String("prefix")
	dataDir := c.String("data-dir")

	objects, err := client.ListObjects(ctx, prefix)
	if err != nil {
		return fmt.Errorf("failed to list objects under %s: %w", prefix, err)
	}
	if len(objects) == 0 {
		log.Printf("No objects found under prefix %s", prefix)
		return nil
	}

	for _, obj := range objects {
		if !strings.HasSuffix(obj.Key, ".csv") {
			continue
		}
		dest := filepath.Join(dataDir, filepath.Base(obj.Key))
		log.Printf("Downloading %s -> %s", obj.Key, dest)
		if err := client.DownloadObject(ctx, obj.Key, dest); err != nil {
			return fmt.Errorf("failed to download %s: %w", obj.Key, err)
		}
	}

	log.Printf("Downloaded %d objects", len(objects))
	return nil
}
