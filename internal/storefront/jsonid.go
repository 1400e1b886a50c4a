package storefront

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// jsonID accepts identifiers encoded either as JSON numbers or strings, and
// null. Large numeric IDs are kept verbatim to avoid float rounding.
type jsonID string

func (id *jsonID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = jsonID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("storefront: invalid id %s: %w", data, err)
	}
	*id = jsonID(n.String())
	return nil
}

func (id jsonID) String() string {
	return string(id)
}
