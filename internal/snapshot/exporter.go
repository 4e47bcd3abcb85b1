// Package snapshot exports analysis-ready parquet snapshots of the registry
// through an embedded DuckDB instance.
package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/rs/zerolog"

	"github.com/onemusic/pipeline/internal/core/domain"
	"github.com/onemusic/pipeline/internal/core/ports"
)

// File names of the exported tables.
const (
	LyricsFile = "lyrics.parquet"
	SongsFile  = "songs.parquet"
	IndexFile  = "index.parquet"
)

// Exporter writes three parquet files per pass: the lyrics rows, the songs
// that have lyrics, and the vector-index manifest (vector id plus metadata).
type Exporter struct {
	store ports.PushStore
	dir   string
	log   zerolog.Logger
}

func NewExporter(store ports.PushStore, dir string, log zerolog.Logger) *Exporter {
	return &Exporter{store: store, dir: dir, log: log}
}

// Run exports one snapshot, overwriting the previous one.
func (e *Exporter) Run(ctx context.Context) error {
	lyrics, err := e.store.ListLyrics(ctx)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	songs, err := e.store.ListSongs(ctx)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}

	withLyrics := make(map[string]bool, len(lyrics))
	for _, row := range lyrics {
		withLyrics[row.SongSpotifyID] = true
	}
	filtered := songs[:0:0]
	for _, song := range songs {
		if withLyrics[song.SpotifyID] {
			filtered = append(filtered, song)
		}
	}

	if err := os.MkdirAll(e.dir, 0o750); err != nil {
		return fmt.Errorf("snapshot: create dir: %w", err)
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return fmt.Errorf("snapshot: open duckdb: %w", err)
	}
	defer db.Close()

	if err := e.exportLyrics(ctx, db, lyrics); err != nil {
		return err
	}
	if err := e.exportSongs(ctx, db, filtered); err != nil {
		return err
	}
	if err := e.exportIndex(ctx, db, lyrics); err != nil {
		return err
	}

	e.log.Info().Int("lyrics", len(lyrics)).Int("songs", len(filtered)).
		Str("dir", e.dir).Msg("snapshot export complete")
	return nil
}

func (e *Exporter) exportLyrics(ctx context.Context, db *sql.DB, rows []domain.Lyrics) error {
	const create = `CREATE OR REPLACE TABLE lyrics (
		genius_url      VARCHAR,
		song_spotify_id VARCHAR,
		language        VARCHAR,
		file_name       VARCHAR,
		downloaded      BOOLEAN,
		date_added      TIMESTAMP
	)`
	if _, err := db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("snapshot: create lyrics table: %w", err)
	}

	for _, row := range rows {
		_, err := db.ExecContext(ctx,
			`INSERT INTO lyrics VALUES (?, ?, ?, ?, ?, ?)`,
			row.GeniusURL, row.SongSpotifyID, row.Language, row.FileName, row.Downloaded, row.DateAdded)
		if err != nil {
			return fmt.Errorf("snapshot: insert lyrics row: %w", err)
		}
	}

	return e.copyToParquet(ctx, db, "lyrics", LyricsFile)
}

func (e *Exporter) exportSongs(ctx context.Context, db *sql.DB, songs []domain.Song) error {
	const create = `CREATE OR REPLACE TABLE songs (
		spotify_id   VARCHAR,
		name         VARCHAR,
		release_date VARCHAR,
		date_added   TIMESTAMP
	)`
	if _, err := db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("snapshot: create songs table: %w", err)
	}

	for _, song := range songs {
		_, err := db.ExecContext(ctx,
			`INSERT INTO songs VALUES (?, ?, ?, ?)`,
			song.SpotifyID, song.Name, song.ReleaseDate, song.DateAdded)
		if err != nil {
			return fmt.Errorf("snapshot: insert song row: %w", err)
		}
	}

	return e.copyToParquet(ctx, db, "songs", SongsFile)
}

// exportIndex writes the vector-index manifest: what id each lyrics entry
// carries in the index and the metadata stored alongside it.
func (e *Exporter) exportIndex(ctx context.Context, db *sql.DB, rows []domain.Lyrics) error {
	const create = `CREATE OR REPLACE TABLE vector_index (
		vector_id       VARCHAR,
		language        VARCHAR,
		song_spotify_id VARCHAR
	)`
	if _, err := db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("snapshot: create index table: %w", err)
	}

	for _, row := range rows {
		_, err := db.ExecContext(ctx,
			`INSERT INTO vector_index VALUES (?, ?, ?)`,
			row.VectorID(), row.Language, row.SongSpotifyID)
		if err != nil {
			return fmt.Errorf("snapshot: insert index row: %w", err)
		}
	}

	return e.copyToParquet(ctx, db, "vector_index", IndexFile)
}

func (e *Exporter) copyToParquet(ctx context.Context, db *sql.DB, table, file string) error {
	path := filepath.Join(e.dir, file)
	stmt := fmt.Sprintf(`COPY %s TO '%s' (FORMAT PARQUET)`, table, path)
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("snapshot: export %s: %w", file, err)
	}
	return nil
}

// ReadLyrics loads a lyrics snapshot back from parquet.
func ReadLyrics(ctx context.Context, dir string) ([]domain.Lyrics, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("snapshot: open duckdb: %w", err)
	}
	defer db.Close()

	path := filepath.Join(dir, LyricsFile)
	rows, err := db.QueryContext(ctx,
		fmt.Sprintf(`SELECT genius_url, song_spotify_id, language, file_name, downloaded, date_added
			FROM read_parquet('%s') ORDER BY genius_url`, path))
	if err != nil {
		return nil, fmt.Errorf("snapshot: read %s: %w", LyricsFile, err)
	}
	defer rows.Close()

	var out []domain.Lyrics
	for rows.Next() {
		var l domain.Lyrics
		var added time.Time
		if err := rows.Scan(&l.GeniusURL, &l.SongSpotifyID, &l.Language, &l.FileName, &l.Downloaded, &added); err != nil {
			return nil, fmt.Errorf("snapshot: scan lyrics row: %w", err)
		}
		l.DateAdded = added
		out = append(out, l)
	}
	return out, rows.Err()
}

// ReadSongs loads a songs snapshot back from parquet.
func ReadSongs(ctx context.Context, dir string) ([]domain.Song, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("snapshot: open duckdb: %w", err)
	}
	defer db.Close()

	path := filepath.Join(dir, SongsFile)
	rows, err := db.QueryContext(ctx,
		fmt.Sprintf(`SELECT spotify_id, name, release_date, date_added
			FROM read_parquet('%s') ORDER BY spotify_id`, path))
	if err != nil {
		return nil, fmt.Errorf("snapshot: read %s: %w", SongsFile, err)
	}
	defer rows.Close()

	var out []domain.Song
	for rows.Next() {
		var s domain.Song
		if err := rows.Scan(&s.SpotifyID, &s.Name, &s.ReleaseDate, &s.DateAdded); err != nil {
			return nil, fmt.Errorf("snapshot: scan song row: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
