// Package wire is the JSON codec of the storefront REST contract. The API
// server and the REST client share it, so both sides agree on field names
// and on how money is written: amounts are JSON numbers holding the exact
// decimal text, never float64 round trips.
package wire

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// Encode runs f on a fresh encoder and returns the produced bytes.
func Encode(f func(e *jx.Encoder)) []byte {
	var e jx.Encoder
	f(&e)
	return e.Bytes()
}

// Decode runs f on a decoder over b.
func Decode(b []byte, f func(d *jx.Decoder) error) error {
	return f(jx.DecodeBytes(b))
}

func encodeDecimal(e *jx.Encoder, v decimal.Decimal) {
	e.Num(jx.Num(v.String()))
}

func encodeOptDecimal(e *jx.Encoder, v *decimal.Decimal) {
	if v == nil {
		e.Null()
		return
	}
	encodeDecimal(e, *v)
}

// decodeDecimal accepts both 12.5 and "12.5".
func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	switch tt := d.Next(); tt {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(s)
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(string(n))
	default:
		return decimal.Zero, errors.Errorf("expected amount, got %s", tt)
	}
}

func decodeOptDecimal(d *jx.Decoder) (*decimal.Decimal, error) {
	if d.Next() == jx.Null {
		return nil, d.Null()
	}
	v, err := decodeDecimal(d)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// decodeOptStr reads a string, treating null as empty.
func decodeOptStr(d *jx.Decoder) (string, error) {
	if d.Next() == jx.Null {
		return "", d.Null()
	}
	return d.Str()
}

func encodeTime(e *jx.Encoder, t time.Time) {
	e.Str(t.UTC().Format(time.RFC3339Nano))
}

func decodeTime(d *jx.Decoder) (time.Time, error) {
	s, err := decodeOptStr(d)
	if err != nil || s == "" {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339Nano, s)
}

func encodeStrings(e *jx.Encoder, list []string) {
	e.ArrStart()
	for _, s := range list {
		e.Str(s)
	}
	e.ArrEnd()
}

func decodeStrings(d *jx.Decoder) ([]string, error) {
	if d.Next() == jx.Null {
		return nil, d.Null()
	}
	var out []string
	err := d.Arr(func(d *jx.Decoder) error {
		s, err := d.Str()
		if err != nil {
			return err
		}
		out = append(out, s)
		return nil
	})
	return out, err
}

func fieldStr(e *jx.Encoder, name, v string) {
	e.FieldStart(name)
	e.Str(v)
}

func fieldDecimal(e *jx.Encoder, name string, v decimal.Decimal) {
	e.FieldStart(name)
	encodeDecimal(e, v)
}

func fieldInt(e *jx.Encoder, name string, v int) {
	e.FieldStart(name)
	e.Int(v)
}

// Error is the body of every non-2xx response.
type Error struct {
	Code    int
	Message string
}

// EncodeError writes {"code": ..., "message": ...}.
func EncodeError(e *jx.Encoder, v Error) {
	e.ObjStart()
	fieldInt(e, "code", v.Code)
	fieldStr(e, "message", v.Message)
	e.ObjEnd()
}

// ErrorMessage extracts the user-facing text of an error body: its
// "message" field, else its "error" field. It returns "" when the body is
// not a JSON object or carries neither.
func ErrorMessage(b []byte) string {
	var message, fallback string
	err := jx.DecodeBytes(b).Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "message":
			s, err := decodeOptStr(d)
			message = s
			return err
		case "error":
			if d.Next() != jx.String {
				return d.Skip()
			}
			s, err := d.Str()
			fallback = s
			return err
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return ""
	}
	if message != "" {
		return message
	}
	return fallback
}
