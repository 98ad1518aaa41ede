package erf

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// MustReadCSV is ReadCSV that panics on malformed input. It is meant for the embedded tag table.
func MustReadCSV(r io.Reader) []TagTemplate {
	m, err := ReadCSV(r)
	if err != nil {
		panic(err)
	}
	return m
}

// ReadCSV reads tag templates from a CSV table with the columns code, name, abbrev, type and
// display. The first row is treated as a header and skipped. Codes may be given in decimal or
// with a 0x prefix.
func ReadCSV(r io.Reader) ([]TagTemplate, error) {
	csvReader := csv.NewReader(r)
	csvReader.FieldsPerRecord = 5

	_, err := csvReader.Read()
	if err != nil {
		return nil, err
	}

	tags := make([]TagTemplate, 0, 256)

	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		code, err := strconv.ParseUint(record[0], 0, 16)
		if err != nil {
			return nil, fmt.Errorf("tag code %q: %w", record[0], err)
		}

		tag := TagTemplate{
			Code:   uint16(code),
			Name:   record[1],
			Abbrev: record[2],
		}
		if err := tag.Type.UnmarshalText([]byte(record[3])); err != nil {
			return nil, fmt.Errorf("tag %s: %w", tag.Abbrev, err)
		}
		if err := tag.Display.UnmarshalText([]byte(record[4])); err != nil {
			return nil, fmt.Errorf("tag %s: %w", tag.Abbrev, err)
		}

		tags = append(tags, tag)
	}

	return tags, nil
}
