package main

import (
	"fmt"
	"time"

	"github.com/ZaguanLabs/godeepl"
	"github.com/ZaguanLabs/godeepl/cache"
	"github.com/spf13/cobra"
)

func newCacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Export or import the shared Redis cache",
	}
	cmd.AddCommand(newCacheExportCmd(a), newCacheImportCmd(a))
	return cmd
}

func (a *app) redisCache(cmd *cobra.Command) (*cache.RedisCache, error) {
	url := a.v.GetString(keyRedisURL)
	if url == "" {
		return nil, fmt.Errorf("--%s is required for cache commands", keyRedisURL)
	}
	return cache.NewRedisCache(cmd.Context(), cache.RedisConfig{URL: url, TTL: a.v.GetInt(keyCacheTTL)})
}

func newCacheExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Write every cached translation to a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.redisCache(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			n, err := cache.NewExporter(c).ExportToFile(cmd.Context(), args[0], map[string]string{
				"tool":    godeepl.Name,
				"version": godeepl.Version,
				"source":  "redis",
			})
			if err != nil {
				return err
			}

			a.logger.Info("cache exported", "file", args[0], "entries", n)
			fmt.Fprintf(a.stdout, "Exported %d entries to %s\n", n, args[0])
			return nil
		},
	}
}

func newCacheImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Load cached translations from a JSON export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.redisCache(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			start := time.Now()
			res, err := cache.NewImporter(c).ImportFromFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			a.logger.Info("cache imported",
				"file", args[0],
				"imported", res.Imported,
				"failed", res.Failed,
				"took", time.Since(start),
			)
			fmt.Fprintf(a.stdout, "Imported %d entries (%d failed) from %s\n", res.Imported, res.Failed, args[0])
			return nil
		},
	}
}
