package aggregate

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/verte-zerg/towstat/internal/model"
	"github.com/verte-zerg/towstat/internal/tables"
)

// VehicleHeader lists the columns of a vehicle export.
var VehicleHeader = []string{
	"property_number",
	"received_on",
	"released_on",
	"pickup_code",
	"code_changed_on",
	"original_pickup_code",
	"property_type",
}

const dateTimeLayout = "2006-01-02 15:04:05"

// LoadVehicles reads a vehicle export from path.
func LoadVehicles(path string) ([]model.VehicleRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &tables.LoadError{Path: path, Err: err}
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only input.
			_ = cerr
		}
	}()
	return ReadVehicles(file, path)
}

// ReadVehicles parses a vehicle export. Date cells may be empty, a date or
// a date with time; empty cells become the zero time.
func ReadVehicles(r io.Reader, path string) ([]model.VehicleRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &tables.LoadError{Path: path, Err: tables.ErrEmptyFile}
		}
		return nil, &tables.LoadError{Path: path, Line: 1, Err: err}
	}
	idx := make(map[string]int, len(VehicleHeader))
	for _, name := range VehicleHeader {
		idx[name] = -1
	}
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, ok := idx[h]; ok {
			idx[h] = i
		}
	}
	for _, name := range []string{"property_number", "received_on", "pickup_code", "property_type"} {
		if idx[name] < 0 {
			return nil, &tables.LoadError{Path: path, Line: 1, Column: name, Err: tables.ErrMissingColumn}
		}
	}

	var out []model.VehicleRecord
	line := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, &tables.LoadError{Path: path, Line: line, Err: err}
		}
		cell := func(name string) string {
			if i := idx[name]; i >= 0 && i < len(row) {
				return strings.TrimSpace(row[i])
			}
			return ""
		}
		v := model.VehicleRecord{
			PropertyNumber:     cell("property_number"),
			PickupCode:         cell("pickup_code"),
			OriginalPickupCode: cell("original_pickup_code"),
			PropertyType:       strings.ToUpper(cell("property_type")),
		}
		for _, f := range []struct {
			name   string
			target *time.Time
		}{
			{"received_on", &v.ReceivedOn},
			{"released_on", &v.ReleasedOn},
			{"code_changed_on", &v.CodeChangedOn},
		} {
			parsed, err := parseVehicleDate(cell(f.name))
			if err != nil {
				return nil, &tables.LoadError{Path: path, Line: line, Column: f.name, Err: fmt.Errorf("%w: %v", tables.ErrBadDate, err)}
			}
			*f.target = parsed
		}
		out = append(out, v)
	}
	return out, nil
}

func parseVehicleDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(dateTimeLayout, s); err == nil {
		return t, nil
	}
	return model.ParseDate(s)
}

// WriteVehicles writes records in the export format.
func WriteVehicles(w io.Writer, vehicles []model.VehicleRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(VehicleHeader); err != nil {
		return err
	}
	for _, v := range vehicles {
		if err := cw.Write([]string{
			v.PropertyNumber,
			formatVehicleDate(v.ReceivedOn),
			formatVehicleDate(v.ReleasedOn),
			v.PickupCode,
			formatVehicleDate(v.CodeChangedOn),
			v.OriginalPickupCode,
			v.PropertyType,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatVehicleDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(model.DateLayout)
}
