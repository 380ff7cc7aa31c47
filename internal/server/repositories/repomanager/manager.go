// Package repomanager is the repository registry: it vends repositories
// bound to a session (a *sql.DB or an open *sql.Tx) and owns schema
// migrations.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/usersvc/internal/dbx"
	"github.com/dmitrijs2005/usersvc/internal/server/repositories/probe"
	"github.com/dmitrijs2005/usersvc/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Probe(db dbx.DBTX) probe.Repository
}
