package model

import (
	"database/sql/driver"
	"encoding/json"
	"math/big"

	"github.com/pkg/errors"
)

// Amount is a non-negative integer in the smallest unit of a token. It is stored as
// numeric text in the database and as a decimal string in JSON so no precision is lost.
type Amount struct {
	v big.Int
}

func NewAmount(v *big.Int) Amount {
	var a Amount
	if v != nil {
		a.v.Set(v)
	}
	return a
}

func AmountFromString(s string) (Amount, error) {
	var a Amount
	if _, ok := a.v.SetString(s, 10); !ok {
		return Amount{}, errors.Errorf("invalid amount %q", s)
	}
	if a.v.Sign() < 0 {
		return Amount{}, errors.Errorf("amount %q must not be negative", s)
	}
	return a, nil
}

// Big returns a copy, callers may mutate it freely.
func (a Amount) Big() *big.Int {
	return new(big.Int).Set(&a.v)
}

func (a Amount) String() string {
	return a.v.String()
}

func (a Amount) Cmp(b Amount) int {
	return a.v.Cmp(&b.v)
}

func (a Amount) Value() (driver.Value, error) {
	return a.v.String(), nil
}

func (a *Amount) Scan(src interface{}) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	case int64:
		a.v.SetInt64(v)
		return nil
	case nil:
		a.v.SetInt64(0)
		return nil
	default:
		return errors.Errorf("cannot scan %T into Amount", src)
	}

	parsed, err := AmountFromString(s)
	if err != nil {
		return err
	}
	a.v.Set(&parsed.v)
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.v.String())
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.Wrap(err, "amount must be a decimal string")
	}
	parsed, err := AmountFromString(s)
	if err != nil {
		return err
	}
	a.v.Set(&parsed.v)
	return nil
}
