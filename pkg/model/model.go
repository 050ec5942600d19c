package model

// Contact is the data structure for a person that we know, as it is sent over the wire.
type Contact struct {
	Id       string `json:"id"              yaml:"id"`
	Owner    string `json:"owner,omitempty" yaml:"owner,omitempty"`
	Name     string `json:"name"            yaml:"name"`
	Email    string `json:"email"           yaml:"email"`
	Phone    string `json:"phone"           yaml:"phone"`
	Favorite bool   `json:"favorite"        yaml:"favorite"`
}

// ContactInput is the request body for creating a contact.
// Name, email and phone are required; favorite defaults to false.
type ContactInput struct {
	Name     string `json:"name"     validate:"required,max=255"`
	Email    string `json:"email"    validate:"required,max=255"`
	Phone    string `json:"phone"    validate:"required,max=64"`
	Favorite *bool  `json:"favorite,omitempty"`
}

// ContactPatch is the request body for updating a contact. All fields are optional, but at
// least one of them has to be present.
type ContactPatch struct {
	Name  *string `json:"name,omitempty"  validate:"omitnil,min=1,max=255"`
	Email *string `json:"email,omitempty" validate:"omitnil,min=1,max=255"`
	Phone *string `json:"phone,omitempty" validate:"omitnil,min=1,max=64"`
}

// FavoriteInput is the request body for changing the favorite status of a contact.
type FavoriteInput struct {
	Favorite *bool `json:"favorite" validate:"required"`
}

// Message is the body of confirmations and error responses.
type Message struct {
	Message string `json:"message" yaml:"message"`
}
