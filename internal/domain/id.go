package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// ID is the wide integer identifier shared by every persisted entity.
// It is encoded as a JSON string so values above 2^53 survive clients that
// decode numbers as float64. Decoding accepts both strings and numbers.
type ID int64

func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

func (id ID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + id.String() + `"`), nil
}

func (id *ID) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		return nil
	}
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		raw = raw[1 : len(raw)-1]
	}
	parsed, err := ParseID(raw)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseID parses a decimal identifier as found in paths and query strings.
func ParseID(s string) (ID, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return ID(v), nil
}

// IDPtr returns a pointer to id, or nil for the zero value.
func IDPtr(id ID) *ID {
	if id == 0 {
		return nil
	}
	return &id
}

// Int64s converts ids for use as a Postgres bigint[] parameter.
func Int64s(ids []ID) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}
