package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kevin07696/recharge-gateway/internal/domain/ports"
)

// QueryTimeouts lets repositories bound their statements without owning the pool
type QueryTimeouts interface {
	SimpleQueryContext(parent context.Context) (context.Context, context.CancelFunc)
	ComplexQueryContext(parent context.Context) (context.Context, context.CancelFunc)
	ReportQueryContext(parent context.Context) (context.Context, context.CancelFunc)
}

// Ensure PostgreSQLAdapter implements QueryTimeouts
var _ QueryTimeouts = (*PostgreSQLAdapter)(nil)

// Ensure the pool can be handed to repositories as a DBTX
var _ ports.DBTX = (*pgxpool.Pool)(nil)
