package core

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxDescriptionLen bounds entry descriptions, in characters.
const MaxDescriptionLen = 200

type (
	// Expense is categorized once when it is created and is never edited.
	Expense struct {
		ID          string
		OwnerID     string
		Amount      Money
		Description string
		Category    Category
		Icon        string
		Color       string
		CreatedAt   time.Time
	}

	Income struct {
		ID          string
		OwnerID     string
		Amount      Money
		Description string
		CreatedAt   time.Time
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrDescriptionLong  = errors.New("description too long (max 200 characters)")
	ErrInvalidCategory  = errors.New("invalid category")
	ErrEmptyOwner       = errors.New("empty owner")
)

// ValidationError reports whether err came from entry validation.
func ValidationError(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrEmptyDescription) ||
		errors.Is(err, ErrDescriptionLong) ||
		errors.Is(err, ErrInvalidCategory) ||
		errors.Is(err, ErrEmptyOwner)
}

func validateDescription(s string) error {
	if strings.TrimSpace(s) == "" {
		return ErrEmptyDescription
	}
	if utf8.RuneCountInString(s) > MaxDescriptionLen {
		return ErrDescriptionLong
	}
	return nil
}

// WithCategory returns a copy of e carrying c together with its icon and color.
func (e Expense) WithCategory(c Category) Expense {
	if !c.Valid() {
		c = Other
	}
	st := c.Style()
	e.Category = c
	e.Icon = st.Icon
	e.Color = st.Color
	return e
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.OwnerID) == "" {
		return ErrEmptyOwner
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if err := validateDescription(e.Description); err != nil {
		return err
	}
	if !e.Category.Valid() {
		return ErrInvalidCategory
	}
	return nil
}

func (i Income) Validate() error {
	if strings.TrimSpace(i.OwnerID) == "" {
		return ErrEmptyOwner
	}
	if err := i.Amount.Validate(); err != nil {
		return err
	}
	return validateDescription(i.Description)
}
