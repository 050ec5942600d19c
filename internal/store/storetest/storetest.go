// Package storetest contains behavioral tests that every store implementation has to pass.
package storetest

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/dirk.krummacker/contacts-api/internal/model"
	"gitlab.com/dirk.krummacker/contacts-api/internal/store"
)

// Run executes the conformance tests. newStore must return an empty store; it is called once per
// test case.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	tests := []struct {
		name string
		test func(t *testing.T, s store.Store)
	}{
		{"InsertAndFind", testInsertAndFind},
		{"FindUnknown", testFindUnknown},
		{"Update", testUpdate},
		{"UpdateUnknown", testUpdateUnknown},
		{"Delete", testDelete},
		{"DeleteUnknown", testDeleteUnknown},
		{"ListEmpty", testListEmpty},
		{"ListSortedAndPaged", testListSortedAndPaged},
		{"ListFarPages", testListFarPages},
		{"ListFavorites", testListFavorites},
		{"OwnerIsolation", testOwnerIsolation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { s.Close() })
			tt.test(t, s)
		})
	}
}

func ptr[T any](v T) *T {
	return &v
}

// insert creates a contact and fails the test on error.
func insert(t *testing.T, s store.Store, owner string, name string, favorite bool) model.Contact {
	t.Helper()
	contact, err := s.Insert(context.Background(), model.Fields{
		Name:     name,
		Email:    name + "@example.com",
		Phone:    "+49 0815 4711",
		Favorite: favorite,
	}, owner)
	require.NoError(t, err)
	return contact
}

func names(contacts []model.Contact) []string {
	result := make([]string, 0, len(contacts))
	for _, c := range contacts {
		result = append(result, c.Name)
	}
	return result
}

func testInsertAndFind(t *testing.T, s store.Store) {
	ctx := context.Background()
	created := insert(t, s, "alice", "Erika", true)
	assert.True(t, store.ValidId(created.Id))
	assert.Equal(t, "alice", created.Owner)
	assert.Equal(t, "Erika", created.Name)
	assert.Equal(t, "Erika@example.com", created.Email)
	assert.Equal(t, "+49 0815 4711", created.Phone)
	assert.True(t, created.Favorite)

	found, err := s.FindOne(ctx, created.Id, "alice")
	require.NoError(t, err)
	assert.Equal(t, created, found)

	again, err := s.FindOne(ctx, created.Id, "alice")
	require.NoError(t, err)
	assert.Equal(t, created.Id, again.Id)

	other := insert(t, s, "alice", "Erika", false)
	assert.NotEqual(t, created.Id, other.Id)
}

func testFindUnknown(t *testing.T, s store.Store) {
	_, err := s.FindOne(context.Background(), store.NewId(), "alice")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testUpdate(t *testing.T, s store.Store) {
	ctx := context.Background()
	created := insert(t, s, "alice", "Erika", false)

	updated, err := s.Update(ctx, created.Id, "alice", model.Changes{Name: ptr("Rudi")})
	require.NoError(t, err)
	assert.Equal(t, created.Id, updated.Id)
	assert.Equal(t, "alice", updated.Owner)
	assert.Equal(t, "Rudi", updated.Name)
	assert.Equal(t, created.Email, updated.Email)
	assert.Equal(t, created.Phone, updated.Phone)
	assert.False(t, updated.Favorite)

	found, err := s.FindOne(ctx, created.Id, "alice")
	require.NoError(t, err)
	assert.Equal(t, updated, found)

	favorite, err := s.Update(ctx, created.Id, "alice", model.Changes{Favorite: ptr(true)})
	require.NoError(t, err)
	assert.True(t, favorite.Favorite)
	assert.Equal(t, "Rudi", favorite.Name)

	// writing the same values again is not a miss
	same, err := s.Update(ctx, created.Id, "alice", model.Changes{Favorite: ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, favorite, same)
}

func testUpdateUnknown(t *testing.T, s store.Store) {
	_, err := s.Update(context.Background(), store.NewId(), "alice", model.Changes{Name: ptr("Rudi")})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testDelete(t *testing.T, s store.Store) {
	ctx := context.Background()
	created := insert(t, s, "alice", "Erika", false)
	kept := insert(t, s, "alice", "Hans", false)

	require.NoError(t, s.Delete(ctx, created.Id, "alice"))
	_, err := s.FindOne(ctx, created.Id, "alice")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, created.Id, "alice"), store.ErrNotFound)

	_, err = s.FindOne(ctx, kept.Id, "alice")
	assert.NoError(t, err)
}

func testDeleteUnknown(t *testing.T, s store.Store) {
	assert.ErrorIs(t, s.Delete(context.Background(), store.NewId(), "alice"), store.ErrNotFound)
}

func testListEmpty(t *testing.T, s store.Store) {
	contacts, err := s.List(context.Background(), model.Filter{Owner: "alice"}, model.NewPage(1, 20))
	require.NoError(t, err)
	assert.NotNil(t, contacts)
	assert.Empty(t, contacts)
}

func testListSortedAndPaged(t *testing.T, s store.Store) {
	ctx := context.Background()
	for _, name := range []string{"Dora", "Anton", "Cäsar", "Berta", "Emil"} {
		insert(t, s, "alice", name, false)
	}
	filter := model.Filter{Owner: "alice"}

	all, err := s.List(ctx, filter, model.NewPage(1, 20))
	require.NoError(t, err)
	assert.Equal(t, []string{"Anton", "Berta", "Cäsar", "Dora", "Emil"}, names(all))

	first, err := s.List(ctx, filter, model.NewPage(1, 2))
	require.NoError(t, err)
	assert.Equal(t, []string{"Anton", "Berta"}, names(first))

	last, err := s.List(ctx, filter, model.NewPage(3, 2))
	require.NoError(t, err)
	assert.Equal(t, []string{"Emil"}, names(last))

	beyond, err := s.List(ctx, filter, model.NewPage(4, 2))
	require.NoError(t, err)
	assert.Empty(t, beyond)
}

func testListFarPages(t *testing.T, s store.Store) {
	ctx := context.Background()
	insert(t, s, "alice", "Anton", false)
	insert(t, s, "alice", "Berta", false)
	filter := model.Filter{Owner: "alice"}

	for _, page := range []model.Page{
		model.NewPage(math.MaxInt, 2),
		model.NewPage(3, math.MaxInt/2+1),
		model.NewPage(2, math.MaxInt/2),
	} {
		contacts, err := s.List(ctx, filter, page)
		require.NoError(t, err, "%+v", page)
		assert.NotNil(t, contacts, "%+v", page)
		assert.Empty(t, contacts, "%+v", page)
	}

	all, err := s.List(ctx, filter, model.NewPage(1, math.MaxInt))
	require.NoError(t, err)
	assert.Equal(t, []string{"Anton", "Berta"}, names(all))
}

func testListFavorites(t *testing.T, s store.Store) {
	ctx := context.Background()
	insert(t, s, "alice", "Anton", true)
	insert(t, s, "alice", "Berta", false)
	insert(t, s, "alice", "Cäsar", true)

	favorites, err := s.List(ctx, model.Filter{Owner: "alice", Favorite: ptr(true)}, model.NewPage(1, 20))
	require.NoError(t, err)
	assert.Equal(t, []string{"Anton", "Cäsar"}, names(favorites))
	for _, c := range favorites {
		assert.True(t, c.Favorite)
	}

	others, err := s.List(ctx, model.Filter{Owner: "alice", Favorite: ptr(false)}, model.NewPage(1, 20))
	require.NoError(t, err)
	assert.Equal(t, []string{"Berta"}, names(others))
}

func testOwnerIsolation(t *testing.T, s store.Store) {
	ctx := context.Background()
	alices := insert(t, s, "alice", "Anton", false)
	insert(t, s, "bob", "Berta", false)

	_, err := s.FindOne(ctx, alices.Id, "bob")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.Update(ctx, alices.Id, "bob", model.Changes{Name: ptr("Mallory")})
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.ErrorIs(t, s.Delete(ctx, alices.Id, "bob"), store.ErrNotFound)

	bobs, err := s.List(ctx, model.Filter{Owner: "bob"}, model.NewPage(1, 20))
	require.NoError(t, err)
	assert.Equal(t, []string{"Berta"}, names(bobs))

	unchanged, err := s.FindOne(ctx, alices.Id, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Anton", unchanged.Name)
}
