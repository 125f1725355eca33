package wire

import (
	"github.com/go-faster/jx"

	"github.com/xenking/kart-storefront/internal/domain/address"
)

func encodeFieldsBody(e *jx.Encoder, f address.Fields) {
	fieldStr(e, "fullName", f.FullName)
	fieldStr(e, "mobileNumber", f.MobileNumber)
	fieldStr(e, "pincode", f.Pincode)
	fieldStr(e, "locality", f.Locality)
	fieldStr(e, "addressLine1", f.AddressLine1)
	fieldStr(e, "addressLine2", f.AddressLine2)
	fieldStr(e, "city", f.City)
	fieldStr(e, "state", f.State)
	fieldStr(e, "landmark", f.Landmark)
	fieldStr(e, "alternatePhone", f.AlternatePhone)
	fieldStr(e, "addressType", string(f.Type))
}

// decodeFieldsKey decodes one address field into f. It reports false for
// keys that are not address fields.
func decodeFieldsKey(d *jx.Decoder, key string, f *address.Fields) (bool, error) {
	var dst *string
	switch key {
	case "fullName":
		dst = &f.FullName
	case "mobileNumber":
		dst = &f.MobileNumber
	case "pincode":
		dst = &f.Pincode
	case "locality":
		dst = &f.Locality
	case "addressLine1":
		dst = &f.AddressLine1
	case "addressLine2":
		dst = &f.AddressLine2
	case "city":
		dst = &f.City
	case "state":
		dst = &f.State
	case "landmark":
		dst = &f.Landmark
	case "alternatePhone":
		dst = &f.AlternatePhone
	case "addressType":
		s, err := decodeOptStr(d)
		f.Type = address.Type(s)
		return true, err
	default:
		return false, nil
	}
	s, err := decodeOptStr(d)
	*dst = s
	return true, err
}

// EncodeFields writes an address payload without id.
func EncodeFields(e *jx.Encoder, f address.Fields) {
	e.ObjStart()
	encodeFieldsBody(e, f)
	e.ObjEnd()
}

// DecodeFields reads an address payload. Unknown keys are ignored.
func DecodeFields(d *jx.Decoder) (address.Fields, error) {
	var f address.Fields
	err := d.Obj(func(d *jx.Decoder, key string) error {
		ok, err := decodeFieldsKey(d, key, &f)
		if !ok && err == nil {
			return d.Skip()
		}
		return err
	})
	return f, err
}

// EncodeAddress writes a saved address.
func EncodeAddress(e *jx.Encoder, a address.Address) {
	e.ObjStart()
	fieldStr(e, "id", a.ID)
	encodeFieldsBody(e, a.Fields)
	e.FieldStart("createdAt")
	encodeTime(e, a.CreatedAt)
	e.ObjEnd()
}

// EncodeAddresses writes an address list.
func EncodeAddresses(e *jx.Encoder, list []address.Address) {
	e.ArrStart()
	for _, a := range list {
		EncodeAddress(e, a)
	}
	e.ArrEnd()
}

// DecodeAddress reads a saved address.
func DecodeAddress(d *jx.Decoder) (address.Address, error) {
	var a address.Address
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id", "_id":
			a.ID, err = d.Str()
		case "createdAt":
			a.CreatedAt, err = decodeTime(d)
		default:
			var ok bool
			if ok, err = decodeFieldsKey(d, key, &a.Fields); !ok && err == nil {
				return d.Skip()
			}
		}
		return err
	})
	return a, err
}

// DecodeAddresses reads an address list.
func DecodeAddresses(d *jx.Decoder) ([]address.Address, error) {
	var out []address.Address
	err := d.Arr(func(d *jx.Decoder) error {
		a, err := DecodeAddress(d)
		if err != nil {
			return err
		}
		out = append(out, a)
		return nil
	})
	return out, err
}

// EncodePatch writes only the fields present in p.
func EncodePatch(e *jx.Encoder, p address.Patch) {
	e.ObjStart()
	opt := func(name string, v *string) {
		if v != nil {
			fieldStr(e, name, *v)
		}
	}
	opt("fullName", p.FullName)
	opt("mobileNumber", p.MobileNumber)
	opt("pincode", p.Pincode)
	opt("locality", p.Locality)
	opt("addressLine1", p.AddressLine1)
	opt("addressLine2", p.AddressLine2)
	opt("city", p.City)
	opt("state", p.State)
	opt("landmark", p.Landmark)
	opt("alternatePhone", p.AlternatePhone)
	if p.Type != nil {
		fieldStr(e, "addressType", string(*p.Type))
	}
	e.ObjEnd()
}

// DecodePatch reads a partial update. Absent keys stay nil; null clears
// the field.
func DecodePatch(d *jx.Decoder) (address.Patch, error) {
	var p address.Patch
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var dst **string
		switch key {
		case "fullName":
			dst = &p.FullName
		case "mobileNumber":
			dst = &p.MobileNumber
		case "pincode":
			dst = &p.Pincode
		case "locality":
			dst = &p.Locality
		case "addressLine1":
			dst = &p.AddressLine1
		case "addressLine2":
			dst = &p.AddressLine2
		case "city":
			dst = &p.City
		case "state":
			dst = &p.State
		case "landmark":
			dst = &p.Landmark
		case "alternatePhone":
			dst = &p.AlternatePhone
		case "addressType":
			s, err := decodeOptStr(d)
			t := address.Type(s)
			p.Type = &t
			return err
		default:
			return d.Skip()
		}
		s, err := decodeOptStr(d)
		*dst = &s
		return err
	})
	return p, err
}
