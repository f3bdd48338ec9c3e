package oracle

import (
	"encoding/base64"
	"errors"
	"fmt"
)

// ErrUnsupportedEncoding is returned when account data cannot be
// normalized to raw bytes. An unrecognized shape never silently
// fabricates a record.
var ErrUnsupportedEncoding = errors.New("oracle: unsupported account data encoding")

// NormalizeAccountData extracts raw bytes from whatever shape an RPC
// node returned for account data. Depending on the requested encoding
// and the client library, this is raw bytes, a base64 string, a
// [data, encoding] string pair, or a list of byte values (JSON numbers
// decode as float64).
func NormalizeAccountData(data any) ([]byte, error) {
	switch v := data.(type) {
	case nil:
		return nil, ErrUnsupportedEncoding
	case []byte:
		return v, nil
	case string:
		raw, err := base64.StdEncoding.DecodeString(v)
		if err != nil {
			return nil, fmt.Errorf("%w: base64 decode: %v", ErrUnsupportedEncoding, err)
		}
		return raw, nil
	case []string:
		if len(v) == 0 {
			return nil, ErrUnsupportedEncoding
		}
		return NormalizeAccountData(v[0])
	case []int:
		return intsToBytes(v)
	case []any:
		if len(v) == 0 {
			return nil, ErrUnsupportedEncoding
		}
		switch first := v[0].(type) {
		case string:
			// ["<base64>", "base64"] pair: the first element is the payload.
			return NormalizeAccountData(first)
		case float64, int:
			return anyNumbersToBytes(v)
		default:
			return nil, ErrUnsupportedEncoding
		}
	default:
		return nil, ErrUnsupportedEncoding
	}
}

func intsToBytes(values []int) ([]byte, error) {
	out := make([]byte, len(values))
	for i, v := range values {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("%w: byte value %d out of range", ErrUnsupportedEncoding, v)
		}
		out[i] = byte(v)
	}
	return out, nil
}

func anyNumbersToBytes(values []any) ([]byte, error) {
	out := make([]byte, len(values))
	for i, raw := range values {
		var v int
		switch n := raw.(type) {
		case float64:
			v = int(n)
		case int:
			v = n
		default:
			return nil, ErrUnsupportedEncoding
		}
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("%w: byte value %d out of range", ErrUnsupportedEncoding, v)
		}
		out[i] = byte(v)
	}
	return out, nil
}
