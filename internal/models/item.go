// Package models defines the domain types for Pocket Pick.
package models

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// TimeLayout is the layout of the created column. It is fixed width so
// stored timestamps sort lexicographically in insertion order.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// PocketItem is one stored snippet.
type PocketItem struct {
	ID      string    `json:"id"`
	Created time.Time `json:"created"`
	Text    string    `json:"text"`
	Tags    []string  `json:"tags"`
}

// AddCommand adds an item from inline text.
type AddCommand struct {
	ID     string
	Text   string
	Tags   []string
	DBPath string
}

// Validate validates the command.
func (c AddCommand) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.ID, validation.Required),
		validation.Field(&c.DBPath, validation.Required),
	)
}

// AddFileCommand adds an item from the contents of a file.
type AddFileCommand struct {
	ID       string
	FilePath string
	Tags     []string
	DBPath   string
}

// Validate validates the command.
func (c AddFileCommand) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.ID, validation.Required),
		validation.Field(&c.FilePath, validation.Required),
		validation.Field(&c.DBPath, validation.Required),
	)
}
