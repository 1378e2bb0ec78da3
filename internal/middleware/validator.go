package middleware

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Query parameter coercion for list endpoints

// QueryInt reads an integer query parameter, returning def when it is absent.
// Non-integer and negative values are errors; there is no upper bound.
func QueryInt(q url.Values, name string, def int) (int, error) {
	raw, ok := q[name]
	if !ok || len(raw) == 0 {
		return def, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw[0]))
	if err != nil {
		return 0, fmt.Errorf("value is not a valid integer")
	}
	if v < 0 {
		return 0, fmt.Errorf("ensure this value is greater than or equal to 0")
	}
	return v, nil
}
