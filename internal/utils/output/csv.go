package output

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/law-makers/ferryroutes/pkg/models"
)

var csvHeader = []string{"name", "code", "city", "id", "dest"}

// SaveCSV writes rs to a CSV file with a name,code,city,id,dest header.
func SaveCSV(rs models.ResultSet, filepath string) error {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range rs {
		row := []string{r.Name, r.Code, r.City, strconv.Itoa(r.ID), r.Dest}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	return writeFileAtomic(filepath, buf.Bytes())
}
