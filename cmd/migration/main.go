package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gitlab.com/dirk.krummacker/contacts-api/internal/config"
	"gitlab.com/dirk.krummacker/contacts-api/internal/store/sqlstore"
)

// Usage example on the command line:
// > DBHOST=localhost DBUSER=dirk DBPWD=bullo92 go run main.go -file=../../scripts/database.sql
// > STORE_DRIVER=postgres DATABASE_URL=postgres://dirk@localhost/test go run main.go
//
// Without -file, the contacts table is created if it is missing.
func main() {
	filePtr := flag.String("file", "", "the sql file to execute")
	flag.Parse()

	if err := run(context.Background(), *filePtr); err != nil {
		logrus.WithError(err).Fatal("migration failed")
	}
}

// run executes the SQL file, or the built-in migration if file is empty, on the configured
// database.
func run(ctx context.Context, file string) error {
	cfg, err := config.Parse()
	if err != nil {
		return err
	}
	if !cfg.IsSQL() {
		return fmt.Errorf("migrations are only supported for SQL databases, not %q", cfg.StoreDriver)
	}
	db, err := sqlstore.Open(cfg.StoreDriver, cfg.DSN())
	if err != nil {
		return err
	}
	defer db.Close()

	if file == "" {
		if err := sqlstore.Migrate(ctx, db); err != nil {
			return err
		}
		logrus.Info("contacts table is up to date")
		return nil
	}

	readFile, err := os.Open(file) // nosemgrep
	if err != nil {
		return fmt.Errorf("open sql file: %w", err)
	}
	defer readFile.Close()
	if err := sqlstore.ExecScript(ctx, db, readFile); err != nil {
		return fmt.Errorf("execute %s: %w", file, err)
	}
	logrus.WithField("file", file).Info("sql file executed")
	return nil
}
