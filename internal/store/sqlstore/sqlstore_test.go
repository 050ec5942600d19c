package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/dirk.krummacker/contacts-api/internal/model"
	"gitlab.com/dirk.krummacker/contacts-api/internal/store"
	"gitlab.com/dirk.krummacker/contacts-api/internal/store/storetest"
)

const contactId = "0b5f5f6e-8a4c-4f0e-9a57-6f4f1c1a2b3c"

var columns = []string{"id", "owner", "name", "email", "phone", "favorite"}

func ptr[T any](v T) *T {
	return &v
}

// createMockObjects builds a mock database handle and a mock object for defining our expected SQL
// calls.
func createMockObjects(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	return db, mock
}

// expectPreparedStatements instructs the mock object to expect that several statements are being
// prepared.
func expectPreparedStatements(mock sqlmock.Sqlmock) {
	mock.ExpectPrepare("INSERT INTO contacts")
	mock.ExpectPrepare("SELECT \\* FROM contacts WHERE id = \\? AND owner = \\?")
	mock.ExpectPrepare("DELETE FROM contacts WHERE id = \\? AND owner = \\?")
}

// newMockStore creates a store on top of the mock database.
func newMockStore(t *testing.T, db *sql.DB, mock sqlmock.Sqlmock) *Store {
	expectPreparedStatements(mock)
	s, err := New(sqlx.NewDb(db, "mysql"))
	require.NoError(t, err)
	return s
}

// TestConformance runs the store conformance tests against an in-memory SQLite database.
func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		db, err := Open("sqlite", ":memory:")
		require.NoError(t, err)
		require.NoError(t, Migrate(context.Background(), db))
		s, err := New(db)
		require.NoError(t, err)
		return s
	})
}

// TestNewPrepareFails verifies that a failing statement preparation is reported.
func TestNewPrepareFails(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()

	mock.ExpectPrepare("INSERT INTO contacts").WillReturnError(errors.New("no such table"))

	_, err := New(sqlx.NewDb(db, "mysql"))
	assert.ErrorContains(t, err, "no such table")
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestList executes a list without a favorite filter. It expects that the owner, limit and
// offset are passed to the database.
func TestList(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()
	s := newMockStore(t, db, mock)

	// Define expectations on SQL statements
	rows := mock.NewRows(columns).
		AddRow(contactId, "alice", "Aaron", "aaron@example.com", "+420 111", true).
		AddRow("5d0a1b4e-6c7f-4a8b-9c0d-1e2f3a4b5c6d", "alice", "Berta", "berta@example.com", "+420 222", false)
	mock.ExpectQuery("SELECT \\* FROM contacts WHERE owner = \\? ORDER BY name, id LIMIT \\? OFFSET \\?").
		WithArgs("alice", 2, 4).
		WillReturnRows(rows)

	// Run test and compare results
	contacts, err := s.List(context.Background(), model.Filter{Owner: "alice"}, model.NewPage(3, 2))
	require.NoError(t, err)
	require.Len(t, contacts, 2)
	assert.Equal(t, model.Contact{
		Id:       contactId,
		Owner:    "alice",
		Name:     "Aaron",
		Email:    "aaron@example.com",
		Phone:    "+420 111",
		Favorite: true,
	}, contacts[0])
	assert.Equal(t, "Berta", contacts[1].Name)
	assert.False(t, contacts[1].Favorite)
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestListFavorites executes a list with a favorite filter. It expects an additional condition
// and an empty, non-nil result when nothing matches.
func TestListFavorites(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()
	s := newMockStore(t, db, mock)

	// Define expectations on SQL statements
	mock.ExpectQuery("SELECT \\* FROM contacts WHERE owner = \\? AND favorite = \\? ORDER BY").
		WithArgs("alice", true, 20, 0).
		WillReturnRows(mock.NewRows(columns))

	// Run test and compare results
	contacts, err := s.List(context.Background(), model.Filter{Owner: "alice", Favorite: ptr(true)}, model.NewPage(1, 20))
	require.NoError(t, err)
	assert.NotNil(t, contacts)
	assert.Empty(t, contacts)
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestFindOneNotFound expects that an empty result is reported as store.ErrNotFound.
func TestFindOneNotFound(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()
	s := newMockStore(t, db, mock)

	// Define expectations on SQL statements
	mock.ExpectQuery("SELECT \\* FROM contacts WHERE id = \\? AND owner = \\?").
		WithArgs(contactId, "bob").
		WillReturnRows(mock.NewRows(columns))

	// Run test and compare results
	_, err := s.FindOne(context.Background(), contactId, "bob")
	assert.ErrorIs(t, err, store.ErrNotFound)
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestFindOneFails expects that a database failure is not mistaken for a missing contact.
func TestFindOneFails(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()
	s := newMockStore(t, db, mock)

	// Define expectations on SQL statements
	mock.ExpectQuery("SELECT \\* FROM contacts WHERE id = \\? AND owner = \\?").
		WithArgs(contactId, "alice").
		WillReturnError(errors.New("connection reset"))

	// Run test and compare results
	_, err := s.FindOne(context.Background(), contactId, "alice")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, store.ErrNotFound)
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestInsert expects that all fields are written together with a newly generated id.
func TestInsert(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()
	s := newMockStore(t, db, mock)

	// Define expectations on SQL statements
	mock.ExpectExec("INSERT INTO contacts").
		WithArgs(sqlmock.AnyArg(), "alice", "Erika Mustermann", "erika@example.com", "+49 0815 4711", false).
		WillReturnResult(sqlmock.NewResult(0, 1))

	// Run test and compare results
	contact, err := s.Insert(context.Background(), model.Fields{
		Name:  "Erika Mustermann",
		Email: "erika@example.com",
		Phone: "+49 0815 4711",
	}, "alice")
	require.NoError(t, err)
	assert.True(t, store.ValidId(contact.Id))
	assert.Equal(t, "alice", contact.Owner)
	assert.Equal(t, "Erika Mustermann", contact.Name)
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestUpdatePartial expects that only the changed columns are written and that the full contact
// is read back within the same transaction.
func TestUpdatePartial(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()
	s := newMockStore(t, db, mock)

	// Define expectations on SQL statements
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE contacts SET phone = \\? WHERE id = \\? AND owner = \\?").
		WithArgs("81970", contactId, "alice").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT \\* FROM contacts WHERE id = \\? AND owner = \\?").
		WithArgs(contactId, "alice").
		WillReturnRows(mock.NewRows(columns).
			AddRow(contactId, "alice", "Rudi Völler", "rudi@example.com", "81970", false))
	mock.ExpectCommit()

	// Run test and compare results
	contact, err := s.Update(context.Background(), contactId, "alice", model.Changes{Phone: ptr("81970")})
	require.NoError(t, err)
	assert.Equal(t, "Rudi Völler", contact.Name)
	assert.Equal(t, "rudi@example.com", contact.Email)
	assert.Equal(t, "81970", contact.Phone)
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestUpdateAllFields expects that all changed columns are written in a fixed order.
func TestUpdateAllFields(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()
	s := newMockStore(t, db, mock)

	// Define expectations on SQL statements
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE contacts SET name = \\?, email = \\?, phone = \\?, favorite = \\? WHERE").
		WithArgs("Rudi Völler", "rudi@example.com", "+49 1234567890", true, contactId, "alice").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT \\* FROM contacts WHERE id = \\? AND owner = \\?").
		WithArgs(contactId, "alice").
		WillReturnRows(mock.NewRows(columns).
			AddRow(contactId, "alice", "Rudi Völler", "rudi@example.com", "+49 1234567890", true))
	mock.ExpectCommit()

	// Run test and compare results
	contact, err := s.Update(context.Background(), contactId, "alice", model.Changes{
		Name:     ptr("Rudi Völler"),
		Email:    ptr("rudi@example.com"),
		Phone:    ptr("+49 1234567890"),
		Favorite: ptr(true),
	})
	require.NoError(t, err)
	assert.True(t, contact.Favorite)
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestUpdateNotFound expects that the transaction is rolled back and store.ErrNotFound is
// returned if the contact cannot be read back.
func TestUpdateNotFound(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()
	s := newMockStore(t, db, mock)

	// Define expectations on SQL statements
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE contacts SET name = \\? WHERE id = \\? AND owner = \\?").
		WithArgs("Rudi Völler", contactId, "bob").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT \\* FROM contacts WHERE id = \\? AND owner = \\?").
		WithArgs(contactId, "bob").
		WillReturnRows(mock.NewRows(columns))
	mock.ExpectRollback()

	// Run test and compare results
	_, err := s.Update(context.Background(), contactId, "bob", model.Changes{Name: ptr("Rudi Völler")})
	assert.ErrorIs(t, err, store.ErrNotFound)
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestDelete expects that a deleted row is reported as success.
func TestDelete(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()
	s := newMockStore(t, db, mock)

	// Define expectations on SQL statements
	mock.ExpectExec("DELETE FROM contacts").
		WithArgs(contactId, "alice").
		WillReturnResult(sqlmock.NewResult(0, 1))

	// Run test and compare results
	assert.NoError(t, s.Delete(context.Background(), contactId, "alice"))
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestDeleteNotFound expects that deleting nothing is reported as store.ErrNotFound.
func TestDeleteNotFound(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()
	s := newMockStore(t, db, mock)

	// Define expectations on SQL statements
	mock.ExpectExec("DELETE FROM contacts").
		WithArgs(contactId, "bob").
		WillReturnResult(sqlmock.NewResult(0, 0))

	// Run test and compare results
	assert.ErrorIs(t, s.Delete(context.Background(), contactId, "bob"), store.ErrNotFound)
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestExecScript expects that a script is split into its statements and that comments are
// skipped.
func TestExecScript(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()

	// Define expectations on SQL statements
	mock.ExpectExec("CREATE TABLE a \\( id INT \\);").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO a VALUES \\(1\\);").WillReturnResult(sqlmock.NewResult(1, 1))

	// Run test and compare results
	err := ExecScript(context.Background(), db, strings.NewReader(`
-- a comment
CREATE TABLE a (
id INT
);
INSERT INTO a VALUES (1);
`))
	assert.NoError(t, err)
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestExecScriptUnterminated expects that a trailing statement without semicolon is an error.
func TestExecScriptUnterminated(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()

	err := ExecScript(context.Background(), db, strings.NewReader("SELECT 1"))
	assert.ErrorContains(t, err, "unterminated statement")
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestExecScriptMySQLSchema runs the MySQL schema script. It expects that owners and names are
// compared byte by byte.
func TestExecScriptMySQLSchema(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()
	script, err := os.Open("../../../scripts/database.sql")
	require.NoError(t, err)
	defer script.Close()

	// Define expectations on SQL statements
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS contacts \\( " +
		"id VARCHAR\\(36\\) COLLATE utf8mb4_bin NOT NULL PRIMARY KEY, " +
		"owner VARCHAR\\(255\\) COLLATE utf8mb4_bin NOT NULL DEFAULT '', " +
		"name VARCHAR\\(255\\) COLLATE utf8mb4_bin NOT NULL, ").
		WillReturnResult(sqlmock.NewResult(0, 0))

	// Run test and compare results
	assert.NoError(t, ExecScript(context.Background(), db, script))
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestMigrate expects the MySQL schema with binary collations on MySQL and the portable schema
// everywhere else.
func TestMigrate(t *testing.T) {
	ownerColumns := map[string]string{
		"mysql":    "owner VARCHAR\\(255\\) COLLATE utf8mb4_bin NOT NULL",
		"postgres": "owner VARCHAR\\(255\\) NOT NULL",
	}
	for driverName, ownerColumn := range ownerColumns {
		t.Run(driverName, func(t *testing.T) {
			db, mock := createMockObjects(t)
			defer db.Close()

			// Define expectations on SQL statements
			mock.ExpectExec("CREATE TABLE IF NOT EXISTS contacts \\(.*" + ownerColumn).
				WillReturnResult(sqlmock.NewResult(0, 0))

			// Run test and compare results
			require.NoError(t, Migrate(context.Background(), sqlx.NewDb(db, driverName)))
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("there were unfulfilled expectations: %s", err)
			}
		})
	}
}
