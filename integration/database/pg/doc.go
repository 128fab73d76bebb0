// Package pg manages the PostgreSQL pool backing paste storage.
//
// Connect builds a pgx pool from Config, retries with a growing delay and
// verifies the connection with a ping. Migrate applies embedded goose
// migrations through a database/sql bridge over the same pool. Healthcheck
// plugs into core/health readiness.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, migrations.FS, ".", log); err != nil {
//		return err
//	}
//
// InTx, Conn, WithTx and TxFromContext let repositories share a transaction
// through the context. The paste repository uses it so that reading a
// burn-after-reading paste and deleting it happen under one row lock:
//
//	err := pg.InTx(ctx, pool, func(ctx context.Context) error {
//		p, err := repo.Get(ctx, id) // SELECT ... FOR UPDATE on the tx
//		if err != nil {
//			return err
//		}
//		return repo.Delete(ctx, p.ID)
//	})
//
// IsNotFoundError, IsDuplicateKeyError, IsForeignKeyViolationError and
// IsTxClosedError classify driver errors.
package pg
