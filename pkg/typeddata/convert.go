package typeddata

import (
	"math"
	"math/big"
	"strings"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/erc7824/typedsigner/pkg/eip712"
)

// ErrUnsupportedValue is returned for raw values that have no eip712.Value form.
var ErrUnsupportedValue = errors.New("unsupported value")

// maxExactFloat is 2^53, above which float64 no longer holds every integer.
const maxExactFloat = 1 << 53

// convertStruct converts raw against the named type. Fields whose type is
// neither a supported scalar nor a defined type are left out, and so are
// null entries and entries the type does not declare.
func (d *Document) convertStruct(typeName string, raw map[string]any) (eip712.Value, error) {
	fields := make(map[string]eip712.Value, len(raw))
	for _, f := range d.Types[typeName] {
		rv, ok := raw[f.Name]
		if !ok || rv == nil {
			continue
		}

		var (
			v   eip712.Value
			err error
		)
		switch f.Type {
		case eip712.TypeString, eip712.TypeAddress:
			v, err = convert(rv)
		case eip712.TypeUint256:
			v, err = convertUint(rv)
		default:
			if _, defined := d.Types[f.Type]; !defined {
				continue
			}
			if nested, isMap := rv.(map[string]any); isMap {
				v, err = d.convertStruct(f.Type, nested)
			} else {
				v, err = convert(rv)
			}
		}
		if err != nil {
			return eip712.Value{}, errors.Wrapf(err, "%s.%s", typeName, f.Name)
		}
		fields[f.Name] = v
	}
	return eip712.Struct(fields), nil
}

// convertUint additionally accepts decimal and 0x-prefixed hex strings.
func convertUint(raw any) (eip712.Value, error) {
	s, ok := raw.(string)
	if !ok {
		return convert(raw)
	}

	n, ok := parseInteger(s)
	if !ok {
		return eip712.Value{}, errors.Errorf("invalid integer %q", s)
	}
	return eip712.BigUint(n)
}

// convert maps a decoded JSON or YAML value onto the closest Value kind.
func convert(raw any) (eip712.Value, error) {
	switch v := raw.(type) {
	case string:
		return eip712.String(v), nil
	case json.Number:
		n, ok := new(big.Int).SetString(v.String(), 10)
		if !ok {
			return eip712.Value{}, errors.Errorf("invalid integer %s", v)
		}
		return eip712.BigUint(n)
	case *big.Int:
		return eip712.BigUint(v)
	case uint64:
		return eip712.Uint(v), nil
	case uint:
		return eip712.Uint(uint64(v)), nil
	case uint32:
		return eip712.Uint(uint64(v)), nil
	case int:
		return eip712.BigUint(big.NewInt(int64(v)))
	case int64:
		return eip712.BigUint(big.NewInt(v))
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return eip712.Value{}, errors.Errorf("invalid integer %v", v)
		}
		// YAML resolves integers wider than 64 bits to floats.
		if math.Abs(v) >= maxExactFloat {
			return eip712.Value{}, errors.Wrapf(ErrUnsupportedValue, "integer %v is not exact, quote it", v)
		}
		n, _ := big.NewFloat(v).Int(nil)
		return eip712.BigUint(n)
	case map[string]any:
		fields := make(map[string]eip712.Value, len(v))
		for k, fv := range v {
			cv, err := convert(fv)
			if err != nil {
				return eip712.Value{}, errors.Wrap(err, k)
			}
			fields[k] = cv
		}
		return eip712.Struct(fields), nil
	default:
		return eip712.Value{}, errors.Wrapf(ErrUnsupportedValue, "%T", raw)
	}
}

func parseInteger(s string) (*big.Int, bool) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return new(big.Int).SetString(s[2:], 16)
	}
	return new(big.Int).SetString(s, 10)
}
