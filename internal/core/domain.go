package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  Kind = "Income"
	Expense Kind = "Expense"
)

type (
	// Kind distinguishes money coming in from money going out.
	Kind string

	Money struct {
		Cents int64
	}

	// Transaction is a single ledger entry. Entries are append-only:
	// nothing in the application edits or deletes them after creation.
	Transaction struct {
		ID       int64
		OwnerID  int64
		Kind     Kind
		Amount   Money
		Category string
		Date     time.Time
	}

	// Month identifies a calendar month (Month is 1-12).
	Month struct {
		Year  int
		Month int
	}

	// UserAccount holds credentials. The hash is bcrypt, never the raw password.
	UserAccount struct {
		ID           int64
		Username     string
		PasswordHash string
		CreatedAt    time.Time
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyCategory      = errors.New("empty category")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidKind        = errors.New("invalid entry kind")
	ErrDuplicateUser      = errors.New("username already registered")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrImportMismatch     = errors.New("import file missing required columns")
)

func (k Kind) Validate() error {
	switch k {
	case Income, Expense:
		return nil
	default:
		return ErrInvalidKind
	}
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Kind.Validate(); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if len(t.Category) > 100 {
		return errors.New("category too long (max 100 characters)")
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// MonthOf returns the calendar month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: int(t.Month())}
}

// ParseMonth parses the "2006-01" form used in forms and goal keys.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return Month{}, ErrInvalidDate
	}
	return MonthOf(t), nil
}

func (m Month) String() string {
	return time.Date(m.Year, time.Month(m.Month), 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
}

// Prev returns the month immediately before m.
func (m Month) Prev() Month {
	t := time.Date(m.Year, time.Month(m.Month), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
	return MonthOf(t)
}

// Before reports whether m is strictly earlier than other.
func (m Month) Before(other Month) bool {
	if m.Year != other.Year {
		return m.Year < other.Year
	}
	return m.Month < other.Month
}

// Contains reports whether t falls inside the calendar month m.
func (m Month) Contains(t time.Time) bool {
	return t.Year() == m.Year && int(t.Month()) == m.Month
}
