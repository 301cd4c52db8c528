package books

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/jmgilman/go/errors"
	"github.com/uptrace/bun"
)

// Book is the entity served by the inventory. Title is unique.
type Book struct {
	bun.BaseModel `bun:"table:books,alias:b" json:"-"`

	ID     int64  `bun:"id,pk,autoincrement" json:"id"`
	Title  string `bun:"title,notnull" json:"title"`
	Author string `bun:"author,notnull" json:"author"`
	ISBN   string `bun:"isbn,notnull" json:"isbn"`
}

// Validate checks the user supplied fields.
func (b Book) Validate() error {
	err := validation.ValidateStruct(&b,
		validation.Field(&b.Title, validation.Required, validation.Length(1, 255)),
		validation.Field(&b.Author, validation.Length(0, 255)),
		validation.Field(&b.ISBN, validation.Length(0, 32)),
	)
	if err != nil {
		return errors.Wrap(err, errors.CodeInvalidInput, "invalid book")
	}
	return nil
}
