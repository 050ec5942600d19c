// Package filestore keeps all contacts in a single JSON file. It is meant for development and
// small single-instance deployments: every operation reads the whole file, and every change
// rewrites it.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gitlab.com/dirk.krummacker/contacts-api/internal/model"
	"gitlab.com/dirk.krummacker/contacts-api/internal/store"
)

// Store is a store.Store backed by a JSON file.
type Store struct {
	path string
	mu   sync.Mutex
}

var _ store.Store = (*Store)(nil)

// Open uses the file at path for storage. A missing file is treated as an empty store and
// created on the first write.
func Open(path string) (*Store, error) {
	s := &Store{path: path}
	if _, err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// load reads all contacts from the file.
func (s *Store) load() ([]model.Contact, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []model.Contact{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	contacts := []model.Contact{}
	if len(data) == 0 {
		return contacts, nil
	}
	if err := json.Unmarshal(data, &contacts); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	return contacts, nil
}

// save replaces the file with the given contacts. The data is written to a temporary file first
// so that readers never see a partially written file.
func (s *Store) save(contacts []model.Contact) error {
	data, err := json.MarshalIndent(contacts, "", "\t")
	if err != nil {
		return fmt.Errorf("encode contacts: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}

// indexOf returns the position of the contact with the given id and owner, or -1.
func indexOf(contacts []model.Contact, id string, owner string) int {
	for i, c := range contacts {
		if c.Id == id && c.Owner == owner {
			return i
		}
	}
	return -1
}

// List returns one page of the contacts that match the filter, sorted by name and id.
func (s *Store) List(ctx context.Context, filter model.Filter, page model.Page) ([]model.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.load()
	if err != nil {
		return nil, err
	}
	matching := []model.Contact{}
	for _, c := range all {
		if filter.Matches(c) {
			matching = append(matching, c)
		}
	}
	sort.Slice(matching, func(i, j int) bool {
		if matching[i].Name != matching[j].Name {
			return matching[i].Name < matching[j].Name
		}
		return matching[i].Id < matching[j].Id
	})
	if page.Offset >= len(matching) {
		return []model.Contact{}, nil
	}
	end := len(matching)
	if page.Limit < end-page.Offset {
		end = page.Offset + page.Limit
	}
	return matching[page.Offset:end], nil
}

// FindOne returns the contact with the given id and owner.
func (s *Store) FindOne(ctx context.Context, id string, owner string) (model.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.load()
	if err != nil {
		return model.Contact{}, err
	}
	i := indexOf(all, id, owner)
	if i < 0 {
		return model.Contact{}, store.ErrNotFound
	}
	return all[i], nil
}

// Insert appends a new contact with a fresh id.
func (s *Store) Insert(ctx context.Context, fields model.Fields, owner string) (model.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.load()
	if err != nil {
		return model.Contact{}, err
	}
	contact := model.Contact{
		Id:       store.NewId(),
		Owner:    owner,
		Name:     fields.Name,
		Email:    fields.Email,
		Phone:    fields.Phone,
		Favorite: fields.Favorite,
	}
	if err := s.save(append(all, contact)); err != nil {
		return model.Contact{}, err
	}
	return contact, nil
}

// Update merges the changes into the stored contact.
func (s *Store) Update(ctx context.Context, id string, owner string, changes model.Changes) (model.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.load()
	if err != nil {
		return model.Contact{}, err
	}
	i := indexOf(all, id, owner)
	if i < 0 {
		return model.Contact{}, store.ErrNotFound
	}
	all[i] = changes.Apply(all[i])
	if err := s.save(all); err != nil {
		return model.Contact{}, err
	}
	return all[i], nil
}

// Delete removes the contact with the given id and owner.
func (s *Store) Delete(ctx context.Context, id string, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.load()
	if err != nil {
		return err
	}
	i := indexOf(all, id, owner)
	if i < 0 {
		return store.ErrNotFound
	}
	return s.save(append(all[:i], all[i+1:]...))
}

// Ping checks that the file can still be read.
func (s *Store) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.load()
	return err
}

// Close does nothing; the file is not kept open between operations.
func (s *Store) Close() error {
	return nil
}
