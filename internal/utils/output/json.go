package output

import (
	"bytes"
	"encoding/json"

	"github.com/law-makers/ferryroutes/pkg/models"
)

// SaveJSON writes rs as a two-space indented JSON array. Non-ASCII text and
// characters such as '&' are written verbatim. An empty or nil set is written
// as [].
func SaveJSON(rs models.ResultSet, filepath string) error {
	content, err := MarshalJSON(rs)
	if err != nil {
		return err
	}
	return writeFileAtomic(filepath, content)
}

// MarshalJSON renders rs exactly as SaveJSON writes it
func MarshalJSON(rs models.ResultSet) ([]byte, error) {
	if rs == nil {
		rs = models.ResultSet{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rs); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
