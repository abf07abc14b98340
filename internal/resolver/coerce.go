package resolver

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/netpulse/devicemngr/internal/schema"
)

// coerce converts a raw environment string into the Go value backing
// f.Type.  The returned error text is safe to show: it quotes the raw
// string only when the field is not sensitive.
func coerce(f schema.FieldSpec, raw string) (any, error) {
	switch f.Type {
	case schema.String, schema.Secret:
		return raw, nil

	case schema.Bool:
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "true", "1", "yes":
			return true, nil
		case "false", "0", "no":
			return false, nil
		}
		return nil, mismatch(f, raw, "expected one of true, false, 1, 0, yes, no")

	case schema.Int:
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return nil, mismatch(f, raw, "expected an integer")
		}
		return n, nil

	case schema.Float:
		x, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, mismatch(f, raw, "expected a number")
		}
		return x, nil

	case schema.Duration:
		secs, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil || secs < 0 {
			return nil, mismatch(f, raw, "expected a non-negative number of seconds")
		}
		if secs > math.MaxInt64/int64(time.Second) {
			return nil, mismatch(f, raw, "duration out of range")
		}
		return time.Duration(secs) * time.Second, nil

	case schema.StringList:
		return append([]string{}, strings.Fields(raw)...), nil
	}
	return nil, fmt.Errorf("unsupported type %s", f.Type)
}

func mismatch(f schema.FieldSpec, raw, want string) error {
	if f.Redacted() {
		return fmt.Errorf("%s (value withheld)", want)
	}
	return fmt.Errorf("%s, got %q", want, raw)
}
