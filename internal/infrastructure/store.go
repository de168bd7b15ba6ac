package infrastructure

import (
	"context"
	"errors"
	"io/fs"
	"orderchat/internal/config"
	"orderchat/internal/interfaces"
	"orderchat/internal/repository"

	"github.com/rs/zerolog"
)

// Store is the opened order backend
type Store struct {
	interfaces.OrderStore
	Backend string
	closeFn func()
}

// OpenStore connects to postgres when DB_URL is set and to the embedded
// sqlite file otherwise.
func OpenStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Store, error) {
	if cfg.UsePostgres() {
		pg, err := NewPostgresClient(ctx, cfg.DatabaseURL, log)
		if err != nil {
			return nil, err
		}
		return &Store{
			OrderStore: repository.NewPostgresStore(pg.Pool),
			Backend:    "postgres",
			closeFn:    pg.Close,
		}, nil
	}

	lite, err := NewSQLiteClient(cfg.SQLitePath)
	if err != nil {
		return nil, err
	}
	log.Info().Str("path", cfg.SQLitePath).Msg("sqlite store ready")
	return &Store{
		OrderStore: repository.NewSQLiteStore(lite.DB),
		Backend:    "sqlite",
		closeFn:    func() { lite.Close() },
	}, nil
}

// SyncCatalog loads the catalog CSV. A missing file is not an error.
func (s *Store) SyncCatalog(ctx context.Context, path string, log zerolog.Logger) error {
	n, err := repository.SyncFromCSV(ctx, s, path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn().Str("path", path).Msg("catalog file not found, keeping stored products")
		return nil
	}
	if err != nil {
		return err
	}
	log.Info().Int("products", n).Str("path", path).Msg("catalog synced")
	return nil
}

func (s *Store) Close() {
	if s.closeFn != nil {
		s.closeFn()
	}
}
