package db

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// rowCopier is the COPY-capable slice of Pool; pgx.Tx satisfies it too.
type rowCopier interface {
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// CopyFrom bulk-loads rows into a table, optionally schema-qualified, using
// the PostgreSQL COPY protocol. BulkUpsert loads its temp table through
// this; append-only paths can call it directly.
func CopyFrom(ctx context.Context, conn rowCopier, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	ident := pgx.Identifier(strings.SplitN(table, ".", 2))
	n, err := conn.CopyFrom(ctx, ident, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, eris.Wrapf(err, "db: COPY INTO %s", table)
	}

	return n, nil
}
