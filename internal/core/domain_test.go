package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestExpenseValidate(t *testing.T) {
	good := Expense{
		OwnerID:     "u1",
		Description: "lunch",
		Amount:      Money{Cents: 100},
		CreatedAt:   time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
	}.WithCategory(Food)
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []struct {
		e    Expense
		want error
	}{
		{Expense{OwnerID: "", Description: "a", Amount: Money{Cents: 1}, Category: Food}, ErrEmptyOwner},
		{Expense{OwnerID: "u", Description: " ", Amount: Money{Cents: 1}, Category: Food}, ErrEmptyDescription},
		{Expense{OwnerID: "u", Description: strings.Repeat("x", 201), Amount: Money{Cents: 1}, Category: Food}, ErrDescriptionLong},
		{Expense{OwnerID: "u", Description: "a", Amount: Money{Cents: 0}, Category: Food}, ErrInvalidAmount},
		{Expense{OwnerID: "u", Description: "a", Amount: Money{Cents: 1}, Category: "Bills"}, ErrInvalidCategory},
	}
	for i, tc := range bads {
		err := tc.e.Validate()
		if !errors.Is(err, tc.want) {
			t.Fatalf("case %d expected %v, got %v", i, tc.want, err)
		}
		if !ValidationError(err) {
			t.Fatalf("case %d: %v not recognised as validation error", i, err)
		}
	}
}

func TestDescriptionLengthCountsCharacters(t *testing.T) {
	e := Expense{OwnerID: "u", Amount: Money{Cents: 1}}.WithCategory(Food)

	e.Description = strings.Repeat("ñ", MaxDescriptionLen)
	if err := e.Validate(); err != nil {
		t.Fatalf("%d two-byte characters: expected ok, got %v", MaxDescriptionLen, err)
	}
	e.Description = strings.Repeat("🍕", MaxDescriptionLen)
	if err := e.Validate(); err != nil {
		t.Fatalf("%d emoji: expected ok, got %v", MaxDescriptionLen, err)
	}
	e.Description = strings.Repeat("ñ", MaxDescriptionLen+1)
	if err := e.Validate(); !errors.Is(err, ErrDescriptionLong) {
		t.Fatalf("%d characters: expected ErrDescriptionLong, got %v", MaxDescriptionLen+1, err)
	}
}

func TestIncomeValidate(t *testing.T) {
	if err := (Income{OwnerID: "u", Description: "salary", Amount: Money{Cents: 500000}}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Income{OwnerID: "u", Description: "salary"}).Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if err := (Income{OwnerID: "u", Amount: Money{Cents: 1}}).Validate(); !errors.Is(err, ErrEmptyDescription) {
		t.Fatalf("expected ErrEmptyDescription, got %v", err)
	}
}

func TestWithCategory(t *testing.T) {
	e := Expense{}.WithCategory(Transport)
	if e.Category != Transport || e.Icon != "bus" || e.Color != "#ffbd33" {
		t.Fatalf("unexpected style: %+v", e)
	}
	e = Expense{}.WithCategory(Category("Bills"))
	if e.Category != Other || e.Icon != "question" || e.Color != "#777" {
		t.Fatalf("unknown category should collapse to Other: %+v", e)
	}
}
