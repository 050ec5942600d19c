package model

import "math"

// Contact is the data structure for a person that we know. A contact always belongs to exactly
// one owner; the owner is the empty string when the service runs without authentication.
type Contact struct {
	Id       string `json:"id"              db:"id"       bson:"_id"`
	Owner    string `json:"owner,omitempty" db:"owner"    bson:"owner"`
	Name     string `json:"name"            db:"name"     bson:"name"`
	Email    string `json:"email"           db:"email"    bson:"email"`
	Phone    string `json:"phone"           db:"phone"    bson:"phone"`
	Favorite bool   `json:"favorite"        db:"favorite" bson:"favorite"`
}

// Fields are the values of a contact that is about to be created.
type Fields struct {
	Name     string
	Email    string
	Phone    string
	Favorite bool
}

// Changes is a partial update of a contact. Only the non-nil fields are written, all other
// values of the stored contact stay as they are.
type Changes struct {
	Name     *string
	Email    *string
	Phone    *string
	Favorite *bool
}

// Empty returns true if the changes would not modify anything.
func (c Changes) Empty() bool {
	return c.Name == nil && c.Email == nil && c.Phone == nil && c.Favorite == nil
}

// Apply merges the changes into the contact and returns the result.
func (c Changes) Apply(contact Contact) Contact {
	if c.Name != nil {
		contact.Name = *c.Name
	}
	if c.Email != nil {
		contact.Email = *c.Email
	}
	if c.Phone != nil {
		contact.Phone = *c.Phone
	}
	if c.Favorite != nil {
		contact.Favorite = *c.Favorite
	}
	return contact
}

// Filter selects the contacts of one owner, optionally only those with a given favorite flag.
type Filter struct {
	Owner    string
	Favorite *bool
}

// Matches returns true if the contact passes the filter.
func (f Filter) Matches(contact Contact) bool {
	if contact.Owner != f.Owner {
		return false
	}
	return f.Favorite == nil || contact.Favorite == *f.Favorite
}

// Page is a window into a sorted result set.
type Page struct {
	Offset int
	Limit  int
}

// NewPage converts a 1-based page number and a page size into a Page. A page whose offset does
// not fit into an int starts at math.MaxInt, which is past the end of every result set.
func NewPage(page int, limit int) Page {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		return Page{Limit: limit}
	}
	if PageOverflows(page, limit) {
		return Page{Offset: math.MaxInt, Limit: limit}
	}
	return Page{Offset: (page - 1) * limit, Limit: limit}
}

// PageOverflows reports whether the offset of a 1-based page does not fit into an int.
func PageOverflows(page int, limit int) bool {
	return limit > 0 && page > 1 && page-1 > math.MaxInt/limit
}
