// Package importer bulk-registers claims from CSV files.
package importer

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sojunghan/territory-cli/internal/model"
	"github.com/sojunghan/territory-cli/internal/territory"
)

// Record is one parsed CSV row. Err is set when the row could not be
// turned into a claim request; Line is 1-based and counts the header.
type Record struct {
	Line    int
	Request territory.ClaimRequest
	Err     error
}

// Recognised header names. "owner" may hold a compound "owner | branch |
// place" key, as written by the flat row stores.
var knownColumns = map[string]bool{
	"owner": true, "branch": true, "place": true, "query": true,
	"lat": true, "lon": true, "kind": true, "address": true,
}

// StreamRecords reads a headed CSV file and sends one Record per data row.
// Both channels are closed when processing completes. Row-level problems
// are reported on the Record; the error channel carries fatal read errors.
func StreamRecords(ctx context.Context, r io.Reader) (<-chan Record, <-chan error) {
	recCh := make(chan Record, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(recCh)
		defer close(errCh)

		reader := csv.NewReader(r)
		reader.FieldsPerRecord = -1 // allow variable fields
		reader.Comment = '#'

		header, err := reader.Read()
		if err == io.EOF {
			return
		}
		if err != nil {
			errCh <- eris.Wrap(err, "csv: read header")
			return
		}
		cols, err := columnIndex(header)
		if err != nil {
			errCh <- err
			return
		}

		for {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}

			row, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "csv: read row")
				return
			}
			line, _ := reader.FieldPos(0)
			if blank(row) {
				continue
			}

			req, rerr := cols.request(row)
			select {
			case recCh <- Record{Line: line, Request: req, Err: rerr}:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}
		}
	}()

	return recCh, errCh
}

type columns map[string]int

func columnIndex(header []string) (columns, error) {
	cols := make(columns)
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if knownColumns[name] {
			cols[name] = i
		}
	}
	if _, ok := cols["owner"]; !ok {
		return nil, eris.New("csv: header has no owner column")
	}
	_, hasLat := cols["lat"]
	_, hasLon := cols["lon"]
	if _, hasQuery := cols["query"]; !hasQuery && !(hasLat && hasLon) {
		return nil, eris.New("csv: header needs a query column or lat and lon columns")
	}
	return cols, nil
}

func (c columns) get(row []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (c columns) request(row []string) (territory.ClaimRequest, error) {
	req := territory.ClaimRequest{
		Owner:   c.get(row, "owner"),
		Branch:  c.get(row, "branch"),
		Place:   c.get(row, "place"),
		Query:   c.get(row, "query"),
		Address: c.get(row, "address"),
	}

	// A compound key in the owner column carries branch and place.
	if strings.Contains(req.Owner, model.KeyDelimiter) {
		k := model.ParseKey(req.Owner)
		req.Owner = k.Owner
		if req.Branch == "" {
			req.Branch = k.Branch
		}
		if req.Place == "" {
			req.Place = k.Place
		}
	}

	if kind := c.get(row, "kind"); kind != "" {
		k, err := model.ParseClaimKind(kind)
		if err != nil {
			return req, err
		}
		req.Kind = k
	}

	latText, lonText := c.get(row, "lat"), c.get(row, "lon")
	if latText == "" && lonText == "" {
		if req.Query == "" {
			return req, eris.New("row has neither a query nor coordinates")
		}
		return req, nil
	}

	lat, err := strconv.ParseFloat(latText, 64)
	if err != nil {
		return req, eris.Wrapf(err, "parse lat %q", latText)
	}
	lon, err := strconv.ParseFloat(lonText, 64)
	if err != nil {
		return req, eris.Wrapf(err, "parse lon %q", lonText)
	}
	req.Location = &model.GeoPoint{Lat: lat, Lon: lon}
	if req.Place == "" {
		req.Place = req.Query
	}
	return req, nil
}

func blank(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
