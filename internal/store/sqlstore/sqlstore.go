// Package sqlstore keeps contacts in a relational database. MySQL, PostgreSQL and SQLite are
// supported through their database/sql drivers.
package sqlstore

import (
	"bufio"
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"gitlab.com/dirk.krummacker/contacts-api/internal/model"
	"gitlab.com/dirk.krummacker/contacts-api/internal/store"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

//go:embed schema_mysql.sql
var schemaMySQL string

func init() {
	// modernc.org/sqlite registers itself as "sqlite", which sqlx does not know.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Store is a store.Store backed by a SQL database.
type Store struct {
	db *sqlx.DB

	// insert is a prepared statement for creating a contact on the database.
	insert *sqlx.NamedStmt

	// selectWhereId is a prepared statement for selecting the contact with a given id and owner.
	selectWhereId *sqlx.Stmt

	// deleteWhereId is a prepared statement for deleting the contact with a given id and owner.
	deleteWhereId *sqlx.Stmt
}

var _ store.Store = (*Store)(nil)

// Open connects to the database with the given driver name ("mysql", "postgres" or "sqlite").
func Open(driverName string, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driverName, err)
	}
	if driverName == "sqlite" {
		// Every new connection to an in-memory database would see an empty database.
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

// New prepares all statements on the database. The database can be a real database for
// production use or a mock database within unit tests. The contacts table has to exist.
func New(db *sqlx.DB) (*Store, error) {
	s := &Store{db: db}
	var err error

	// Prepared statements offer a significant speed increase if executed many times.
	s.insert, err = db.PrepareNamed(`
		INSERT INTO contacts (id, owner, name, email, phone, favorite)
		VALUES (:id, :owner, :name, :email, :phone, :favorite)
	`)
	if err != nil {
		return nil, fmt.Errorf("prepare insert: %w", err)
	}
	s.selectWhereId, err = db.Preparex(db.Rebind(`
		SELECT * FROM contacts WHERE id = ? AND owner = ?
	`))
	if err != nil {
		return nil, fmt.Errorf("prepare select: %w", err)
	}
	s.deleteWhereId, err = db.Preparex(db.Rebind(`
		DELETE FROM contacts WHERE id = ? AND owner = ?
	`))
	if err != nil {
		return nil, fmt.Errorf("prepare delete: %w", err)
	}
	return s, nil
}

// List returns one page of the contacts that match the filter, sorted by name and id.
func (s *Store) List(ctx context.Context, filter model.Filter, page model.Page) ([]model.Contact, error) {
	query := "SELECT * FROM contacts WHERE owner = ?"
	args := []any{filter.Owner}
	if filter.Favorite != nil {
		query += " AND favorite = ?"
		args = append(args, *filter.Favorite)
	}
	query += " ORDER BY name, id LIMIT ? OFFSET ?"
	args = append(args, page.Limit, page.Offset)

	contacts := []model.Contact{}
	if err := s.db.SelectContext(ctx, &contacts, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("select contacts: %w", err)
	}
	return contacts, nil
}

// FindOne returns the contact with the given id and owner.
func (s *Store) FindOne(ctx context.Context, id string, owner string) (model.Contact, error) {
	var contact model.Contact
	err := s.selectWhereId.GetContext(ctx, &contact, id, owner)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Contact{}, store.ErrNotFound
	}
	if err != nil {
		return model.Contact{}, fmt.Errorf("select contact %s: %w", id, err)
	}
	return contact, nil
}

// Insert creates a new contact with a fresh id.
func (s *Store) Insert(ctx context.Context, fields model.Fields, owner string) (model.Contact, error) {
	contact := model.Contact{
		Id:       store.NewId(),
		Owner:    owner,
		Name:     fields.Name,
		Email:    fields.Email,
		Phone:    fields.Phone,
		Favorite: fields.Favorite,
	}
	if _, err := s.insert.ExecContext(ctx, &contact); err != nil {
		return model.Contact{}, fmt.Errorf("insert contact: %w", err)
	}
	return contact, nil
}

// Update writes the changed values of a contact and reads back the full contact within one
// transaction. The number of affected rows is not used to detect a missing contact because
// MySQL does not count rows whose values did not change.
func (s *Store) Update(ctx context.Context, id string, owner string, changes model.Changes) (model.Contact, error) {
	if changes.Empty() {
		return s.FindOne(ctx, id, owner)
	}

	var args []any
	query := "UPDATE contacts SET "
	if changes.Name != nil {
		args = append(args, *changes.Name)
		query += "name = ?, "
	}
	if changes.Email != nil {
		args = append(args, *changes.Email)
		query += "email = ?, "
	}
	if changes.Phone != nil {
		args = append(args, *changes.Phone)
		query += "phone = ?, "
	}
	if changes.Favorite != nil {
		args = append(args, *changes.Favorite)
		query += "favorite = ?, "
	}
	query = query[:len(query)-2]
	query += " WHERE id = ? AND owner = ?"
	args = append(args, id, owner)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.Contact{}, fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
		return model.Contact{}, fmt.Errorf("update contact %s: %w", id, err)
	}
	var contact model.Contact
	err = tx.GetContext(ctx, &contact, tx.Rebind("SELECT * FROM contacts WHERE id = ? AND owner = ?"), id, owner)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Contact{}, store.ErrNotFound
	}
	if err != nil {
		return model.Contact{}, fmt.Errorf("select updated contact %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return model.Contact{}, fmt.Errorf("commit update: %w", err)
	}
	return contact, nil
}

// Delete removes the contact with the given id and owner.
func (s *Store) Delete(ctx context.Context, id string, owner string) error {
	result, err := s.deleteWhereId.ExecContext(ctx, id, owner)
	if err != nil {
		return fmt.Errorf("delete contact %s: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete contact %s: %w", id, err)
	}
	if rowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the prepared statements and the database connection.
func (s *Store) Close() error {
	s.insert.Close()
	s.selectWhereId.Close()
	s.deleteWhereId.Close()
	return s.db.Close()
}

// execer is implemented by *sql.DB, *sqlx.DB and their transactions.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Migrate creates the contacts table if it does not exist yet. MySQL gets binary collations so
// that owners are matched and names are sorted case-sensitively.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if db.DriverName() == "mysql" {
		return ExecScript(ctx, db, strings.NewReader(schemaMySQL))
	}
	return ExecScript(ctx, db, strings.NewReader(schema))
}

// ExecScript executes a SQL script statement by statement. A statement ends with the line that
// contains a semicolon. Lines starting with "--" are skipped.
func ExecScript(ctx context.Context, db execer, script io.Reader) error {
	scanner := bufio.NewScanner(script)
	scanner.Split(bufio.ScanLines)
	builder := strings.Builder{}
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		builder.WriteString(line)
		builder.WriteString(" ")
		if strings.Contains(line, ";") {
			if _, err := db.ExecContext(ctx, builder.String()); err != nil {
				return fmt.Errorf("execute %q: %w", strings.TrimSpace(builder.String()), err)
			}
			builder = strings.Builder{}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read script: %w", err)
	}
	if rest := strings.TrimSpace(builder.String()); rest != "" {
		return fmt.Errorf("unterminated statement %q", rest)
	}
	return nil
}
