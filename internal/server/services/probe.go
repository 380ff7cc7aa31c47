package services

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/usersvc/internal/dbx"
	"github.com/dmitrijs2005/usersvc/internal/server/models"
	"github.com/dmitrijs2005/usersvc/internal/server/repositories/repomanager"
)

// ProbeService serves the placeholder test endpoint and database health.
type ProbeService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewProbeService(db *sql.DB, m repomanager.RepositoryManager) *ProbeService {
	return &ProbeService{db: db, repomanager: m}
}

// Test reads the greeting through the probe repository in a transaction.
func (s *ProbeService) Test(ctx context.Context) (*models.Greeting, error) {
	return dbx.InTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (*models.Greeting, error) {
		msg, err := s.repomanager.Probe(tx).Hello(ctx)
		if err != nil {
			return nil, err
		}
		return &models.Greeting{Message: msg}, nil
	})
}

// Ping reports whether the database is reachable.
func (s *ProbeService) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
