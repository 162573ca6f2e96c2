package tabular

import "github.com/couchcryptid/geobin/internal/domain"

// ReferenceFile is a domain.ReferenceSource reading a CSV with Geography and
// Geoid columns. The file is read when the resolver first needs it.
func ReferenceFile(path string, encoding string) domain.ReferenceSource {
	return domain.ReferenceRowsFunc(func() ([]domain.ReferenceRow, error) {
		t, err := ReadFile(path, Options{
			Encoding: encoding,
			Columns:  []string{domain.ColumnGeography, domain.ColumnGeoid},
		})
		if err != nil {
			return nil, err
		}
		rows := make([]domain.ReferenceRow, 0, t.Len())
		for row := range t.Rows() {
			rows = append(rows, domain.ReferenceRow{
				Geography: row[domain.ColumnGeography],
				Geoid:     row[domain.ColumnGeoid],
			})
		}
		return rows, nil
	})
}
