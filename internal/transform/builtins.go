package transform

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/brinkdb/snapctl/internal/column"
)

const alphanumeric = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func randomRune() rune {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphanumeric))))
	if err != nil {
		return 'x'
	}
	return rune(alphanumeric[n.Int64()])
}

func randomString(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(randomRune())
	}
	return string(b)
}

func randomInt64() int64 {
	n, err := rand.Int(rand.Reader, big.NewInt(1<<62))
	if err != nil {
		return 0
	}
	v := n.Int64()
	if sign, _ := rand.Int(rand.Reader, big.NewInt(2)); sign.Int64() == 1 {
		v = -v
	}
	return v
}

func randomFloat64() float64 {
	n, err := rand.Int(rand.Reader, big.NewInt(1<<53))
	if err != nil {
		return 0
	}
	return float64(n.Int64()) / (1 << 26)
}

// Transient makes no transformation. id: "transient".
type Transient struct{ base }

func NewTransient(database, table, col string) Transient {
	return Transient{base{database, table, col}}
}

func (Transient) ID() string          { return "transient" }
func (Transient) Description() string { return "Does not modify the value." }
func (Transient) Transform(c column.Column) column.Column { return c }

// Random randomizes a value but keeps the same length for strings, the same
// numeric kind for numbers, and a fresh char for chars. id: "random".
type Random struct{ base }

func NewRandom(database, table, col string) Random {
	return Random{base{database, table, col}}
}

func (Random) ID() string { return "random" }
func (Random) Description() string {
	return "Randomize value but keep the same length for strings. [AAA]->[BBB]"
}

func (Random) Transform(c column.Column) column.Column {
	switch c.Kind {
	case column.NumberValue:
		return column.Number(c.Name, randomInt64())
	case column.FloatNumberValue:
		return column.Float(c.Name, randomFloat64())
	case column.StringValue:
		return column.String(c.Name, randomString(len(c.Str)))
	case column.CharValue:
		return column.CharOf(c.Name, randomRune())
	default:
		return c
	}
}

// KeepFirstChar reduces a string to its first character and a number to its
// leading digit via repeated division by 10. id: "keep-first-char".
type KeepFirstChar struct{ base }

func NewKeepFirstChar(database, table, col string) KeepFirstChar {
	return KeepFirstChar{base{database, table, col}}
}

func (KeepFirstChar) ID() string          { return "keep-first-char" }
func (KeepFirstChar) Description() string { return "Keep only the first character of the column." }

func (KeepFirstChar) Transform(c column.Column) column.Column {
	switch c.Kind {
	case column.NumberValue:
		n := c.Int
		neg := n < 0
		if neg {
			n = -n
		}
		for n >= 10 {
			n /= 10
		}
		if neg {
			n = -n
		}
		return column.Number(c.Name, n)
	case column.StringValue:
		if len(c.Str) > 1 {
			runes := []rune(c.Str)
			return column.String(c.Name, string(runes[0]))
		}
		return c
	default:
		return c
	}
}

// RedactedOptions configures Redacted.
type RedactedOptions struct {
	Character rune
	Width     int
}

// DefaultRedactedOptions matches the source's Default impl: '*' repeated 10
// times.
func DefaultRedactedOptions() RedactedOptions {
	return RedactedOptions{Character: '*', Width: 10}
}

// Redacted keeps the first 3 characters of a string and replaces the rest
// with a repeated character. Strings shorter than 3 chars pass through
// unchanged. id: "redacted".
type Redacted struct {
	base
	Options RedactedOptions
}

func NewRedacted(database, table, col string, opts RedactedOptions) Redacted {
	return Redacted{base{database, table, col}, opts}
}

func (Redacted) ID() string { return "redacted" }
func (Redacted) Description() string {
	return "Obfuscate your sensitive data (string only). [4242 4242 4242 4242]->[424**********]"
}

func (r Redacted) Transform(c column.Column) column.Column {
	if c.Kind != column.StringValue {
		return c
	}
	runes := []rune(c.Str)
	if len(runes) < 3 {
		return c
	}
	masked := ""
	for i := 0; i < r.Options.Width; i++ {
		masked += string(r.Options.Character)
	}
	return column.String(c.Name, string(runes[0:3])+masked)
}

// FirstName replaces a non-empty string with a random-looking first name.
// id: "first-name".
type FirstName struct{ base }

func NewFirstName(database, table, col string) FirstName {
	return FirstName{base{database, table, col}}
}

func (FirstName) ID() string          { return "first-name" }
func (FirstName) Description() string { return "Generate a first name (string only). [Lucas]->[Georges]" }

func (FirstName) Transform(c column.Column) column.Column {
	if c.Kind != column.StringValue || c.Str == "" {
		return c
	}
	return column.String(c.Name, fakeFirstName())
}

// Email replaces a non-empty string with a fake-looking email address.
// id: "email".
type Email struct{ base }

func NewEmail(database, table, col string) Email {
	return Email{base{database, table, col}}
}

func (Email) ID() string { return "email" }
func (Email) Description() string {
	return "Generate an email address (string only). [john.doe@company.com]->[tony.stark@avengers.com]"
}

func (Email) Transform(c column.Column) column.Column {
	if c.Kind != column.StringValue || c.Str == "" {
		return c
	}
	return column.String(c.Name, fakeEmail())
}

// PhoneNumber replaces a string with a fake-looking phone number.
// id: "phone-number".
type PhoneNumber struct{ base }

func NewPhoneNumber(database, table, col string) PhoneNumber {
	return PhoneNumber{base{database, table, col}}
}

func (PhoneNumber) ID() string          { return "phone-number" }
func (PhoneNumber) Description() string { return "Generate a phone number (string only)." }

func (PhoneNumber) Transform(c column.Column) column.Column {
	if c.Kind != column.StringValue {
		return c
	}
	return column.String(c.Name, fakePhoneNumber())
}

// CreditCard replaces a string with a fake-looking credit card number.
// id: "credit-card".
type CreditCard struct{ base }

func NewCreditCard(database, table, col string) CreditCard {
	return CreditCard{base{database, table, col}}
}

func (CreditCard) ID() string          { return "credit-card" }
func (CreditCard) Description() string { return "Generate a credit card number (string only)." }

func (CreditCard) Transform(c column.Column) column.Column {
	if c.Kind != column.StringValue {
		return c
	}
	return column.String(c.Name, fakeCreditCard())
}

// RandomDate replaces any non-empty string with a random YYYY-MM-DD date
// (year 1970-2024, day 1-28); the input's own shape is not checked and the
// range is not configurable. id: "random-date".
type RandomDate struct{ base }

func NewRandomDate(database, table, col string) RandomDate {
	return RandomDate{base{database, table, col}}
}

func (RandomDate) ID() string          { return "random-date" }
func (RandomDate) Description() string { return "Generate a random date (string only)." }

func (RandomDate) Transform(c column.Column) column.Column {
	if c.Kind != column.StringValue || c.Str == "" {
		return c
	}
	year := 1970 + int(randomInt64()%55)
	if year < 1970 {
		year += 55
	}
	month := 1 + int(randomInt64()%12)
	if month < 1 {
		month += 12
	}
	day := 1 + int(randomInt64()%28)
	if day < 1 {
		day += 28
	}
	return column.String(c.Name, fmt.Sprintf("%04d-%02d-%02d", year, month, day))
}
