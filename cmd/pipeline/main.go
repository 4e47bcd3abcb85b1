// Command pipeline runs one stage of the music-analytics pipeline per
// invocation. Stages share the registry database and are meant to be run in
// order, but every stage is independently resumable.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/onemusic/pipeline/internal/adapters/cohere"
	"github.com/onemusic/pipeline/internal/adapters/genius"
	"github.com/onemusic/pipeline/internal/adapters/pinecone"
	"github.com/onemusic/pipeline/internal/adapters/spotify"
	"github.com/onemusic/pipeline/internal/adapters/weaviate"
	"github.com/onemusic/pipeline/internal/config"
	"github.com/onemusic/pipeline/internal/core/services"
	"github.com/onemusic/pipeline/internal/logging"
	"github.com/onemusic/pipeline/internal/ratelimit"
	"github.com/onemusic/pipeline/internal/registry"
	"github.com/onemusic/pipeline/internal/retry"
	"github.com/onemusic/pipeline/internal/snapshot"
)

const featureWorkers = 4

func main() {
	if len(os.Args) != 2 {
		usage()
		os.Exit(2)
	}
	stage := os.Args[1]

	// .env is optional; explicit environment wins either way.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logging.New(cfg.Log.Level, cfg.Log.Format)

	if err := cfg.RequireFor(stage); err != nil {
		log.Fatal().Err(err).Msg("configuration incomplete")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, stage, cfg, log); err != nil {
		log.Fatal().Err(err).Str("stage", stage).Msg("stage failed")
	}
}

func run(ctx context.Context, stage string, cfg *config.Config, log zerolog.Logger) error {
	store, err := registry.NewStore(cfg.Registry.ConnectionString)
	if err != nil {
		return err
	}
	defer store.Close()

	switch stage {
	case "poll-spotify":
		client := spotify.NewClient(ctx, cfg.Spotify.ClientID, cfg.Spotify.ClientSecret, log)
		return services.NewCatalogIngest(client, store, cfg.Spotify.UserID, cfg.Spotify.PlaylistFilter, log).Run(ctx)

	case "poll-features":
		client := spotify.NewClient(ctx, cfg.Spotify.ClientID, cfg.Spotify.ClientSecret, log)
		return services.NewFeatureIngest(client, store, featureWorkers, log).Run(ctx)

	case "poll-genius":
		lyricsClient := genius.NewClient(cfg.Genius.ClientToken, log)
		detector := cohere.NewClient(cfg.Cohere.APIKey, cfg.Cohere.EmbedModel, log)
		throttle := ratelimit.Throttle{Min: cfg.Genius.MinDelay, Max: cfg.Genius.MaxDelay}
		return services.NewLyricsIngest(
			lyricsClient, detector, store, cfg.Genius.SaveDir,
			throttle, retry.SingleRetry(cfg.Cohere.RetryWait), log,
		).Run(ctx)

	case "push-weaviate":
		objects := weaviate.NewClient(
			cfg.Weaviate.ConnectionURL, cfg.Weaviate.SchemaDir,
			cfg.Weaviate.BatchSize, cfg.Weaviate.TargetRate, log)
		return services.NewGraphPush(objects, store, cfg.Weaviate.DataDir, log).Run(ctx)

	case "push-pinecone":
		embedder := cohere.NewClient(cfg.Cohere.APIKey, cfg.Cohere.EmbedModel, log)
		index := pinecone.NewClient(
			cfg.Pinecone.APIKey, cfg.Pinecone.Environment,
			cfg.Pinecone.IndexName, cfg.Pinecone.Dimension, log)
		return services.NewVectorPush(
			embedder, index, store, cfg.Pinecone.DataDir,
			cfg.Pinecone.BatchSize, retry.SingleRetry(cfg.Cohere.RetryWait), log,
		).Run(ctx)

	case "snapshot":
		return snapshot.NewExporter(store, cfg.Weaviate.SnapshotDir, log).Run(ctx)

	default:
		usage()
		return fmt.Errorf("unknown stage %q", stage)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `usage: pipeline <stage>

stages:
  poll-spotify    ingest playlists, songs and artists into the registry
  poll-features   ingest audio descriptors for all known songs
  poll-genius     find, download and classify lyrics for songs missing them
  push-weaviate   mirror the registry into the graph store
  push-pinecone   embed lyrics and upsert them into the vector index
  snapshot        export parquet snapshots of the registry
`)
}
