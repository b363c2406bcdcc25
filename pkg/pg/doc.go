// Package pg bootstraps the PostgreSQL layer on top of pgx/v5.
//
// Connect opens a *pgxpool.Pool from Config, pinging and retrying until the
// server answers or the attempts run out. Migrate applies goose migrations
// from an fs.FS, so the schema ships inside the binary:
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	if err := pg.Migrate(ctx, pool, repository.Migrations, cfg, log); err != nil {
//		return err
//	}
//
// Healthcheck adapts the pool to a readiness check, and the Is* helpers
// classify driver errors. IsDuplicateKeyError is what turns a second insert
// for the same subscription period into an idempotent skip.
package pg
