package utils

import (
	"encoding/json"
)

// DecodeJSONObject decodes data into a generic object. A JSON value that is
// not an object (array, string, null) yields ok=false.
func DecodeJSONObject(data []byte) (obj map[string]interface{}, ok bool) {
	if err := json.Unmarshal(data, &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}
