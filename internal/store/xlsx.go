package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sojunghan/territory-cli/internal/model"
)

// DefaultSheetName is the worksheet holding claim rows.
const DefaultSheetName = "claims"

// xlsxHeader is the header row. The first four columns are the row shape
// shared with the hosted spreadsheet; id, kind and created_at follow.
var xlsxHeader = []string{"owner", "address", "lat", "lon", "id", "kind", "created_at"}

// lockRetry is how often a blocked writer retries the workbook lock.
const lockRetry = 50 * time.Millisecond

// XLSXStore implements ClaimStore over a single workbook file. Every
// mutation rewrites the file through a temp file and rename while holding
// an advisory lock on "<path>.lock".
type XLSXStore struct {
	path  string
	sheet string
	mu    sync.Mutex
	lock  *flock.Flock
}

// NewXLSX returns a store backed by the workbook at path.
func NewXLSX(path string) *XLSXStore {
	return &XLSXStore{path: path, sheet: DefaultSheetName, lock: flock.New(path + ".lock")}
}

// Migrate creates the workbook with a header row if it does not exist.
func (s *XLSXStore) Migrate(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return eris.Wrap(err, "xlsx: create directory")
	}
	return s.locked(ctx, func() error {
		if _, err := os.Stat(s.path); err == nil {
			return nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return eris.Wrap(err, "xlsx: stat workbook")
		}
		return s.write(nil)
	})
}

// locked runs fn holding the in-process mutex and the workbook file lock.
func (s *XLSXStore) locked(ctx context.Context, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ok, err := s.lock.TryLockContext(ctx, lockRetry)
	if err != nil {
		return eris.Wrap(err, "xlsx: lock workbook")
	}
	if !ok {
		return eris.New("xlsx: lock workbook: not acquired")
	}
	defer s.lock.Unlock() //nolint:errcheck

	return fn()
}

func (s *XLSXStore) Close() error { return nil }

func (s *XLSXStore) ListClaims(_ context.Context) ([]model.Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.read()
	if err != nil {
		return nil, err
	}
	claims := make([]model.Claim, 0, len(rows))
	for _, r := range rows {
		claims = append(claims, r.Claim())
	}
	return claims, nil
}

func (s *XLSXStore) InsertClaim(ctx context.Context, c model.Claim) error {
	return s.locked(ctx, func() error {
		rows, err := s.read()
		if err != nil {
			return err
		}
		return s.write(append(rows, ToRow(c)))
	})
}

// InsertClaimChecked reads, checks and rewrites the workbook under one hold
// of the file lock.
func (s *XLSXStore) InsertClaimChecked(ctx context.Context, c model.Claim, check func([]model.Claim) error) error {
	return s.locked(ctx, func() error {
		rows, err := s.read()
		if err != nil {
			return err
		}
		stored := make([]model.Claim, 0, len(rows))
		for _, r := range rows {
			stored = append(stored, r.Claim())
		}
		if err := check(stored); err != nil {
			return err
		}
		return s.write(append(rows, ToRow(c)))
	})
}

func (s *XLSXStore) DeleteClaim(ctx context.Context, id string) error {
	return s.locked(ctx, func() error {
		rows, err := s.read()
		if err != nil {
			return err
		}
		for i, r := range rows {
			if r.ID == id {
				return s.write(append(rows[:i], rows[i+1:]...))
			}
		}
		return eris.Wrapf(ErrNotFound, "claim %s", id)
	})
}

// ReplaceClaims rewrites the matching rows in place. The file is written once,
// so either all rows change or none do.
func (s *XLSXStore) ReplaceClaims(ctx context.Context, claims []model.Claim) error {
	if len(claims) == 0 {
		return nil
	}

	return s.locked(ctx, func() error {
		rows, err := s.read()
		if err != nil {
			return err
		}
		pos := make(map[string]int, len(rows))
		for i, r := range rows {
			pos[r.ID] = i
		}
		for _, c := range claims {
			i, ok := pos[c.ID]
			if !ok {
				return eris.Wrapf(ErrNotFound, "claim %s", c.ID)
			}
			rows[i] = ToRow(c)
		}
		return s.write(rows)
	})
}

func (s *XLSXStore) read() ([]Row, error) {
	f, err := xlsx.OpenFile(s.path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open workbook")
	}
	sheet, ok := f.Sheet[s.sheet]
	if !ok {
		if len(f.Sheets) == 0 {
			return nil, nil
		}
		sheet = f.Sheets[0]
	}

	var rows []Row
	for i, xr := range sheet.Rows {
		cells := xr.Cells
		if len(cells) == 0 {
			continue
		}
		if i == 0 && strings.EqualFold(strings.TrimSpace(cells[0].String()), xlsxHeader[0]) {
			continue
		}
		r, ok, err := parseXLSXRow(cells, i+1)
		if err != nil {
			return nil, eris.Wrapf(err, "xlsx: row %d", i+1)
		}
		if ok {
			rows = append(rows, r)
		}
	}
	return rows, nil
}

// parseXLSXRow reads sheet row number n. Rows without an owner are skipped.
func parseXLSXRow(cells []*xlsx.Cell, n int) (Row, bool, error) {
	text := func(i int) string {
		if i >= len(cells) || cells[i] == nil {
			return ""
		}
		return strings.TrimSpace(cells[i].String())
	}
	number := func(i int) (float64, error) {
		if i >= len(cells) || cells[i] == nil {
			return 0, eris.Errorf("missing column %s", xlsxHeader[i])
		}
		v, err := cells[i].Float()
		return v, eris.Wrapf(err, "parse %s", xlsxHeader[i])
	}

	owner := text(0)
	if owner == "" {
		return Row{}, false, nil
	}
	lat, err := number(2)
	if err != nil {
		return Row{}, false, err
	}
	lon, err := number(3)
	if err != nil {
		return Row{}, false, err
	}

	r := Row{
		Owner:   owner,
		Address: text(1),
		Lat:     lat,
		Lon:     lon,
		ID:      text(4),
		Kind:    text(5),
	}
	if r.ID == "" {
		// Hand-entered rows have no handle yet. Several rows may share an
		// owner key, so the sheet row number names them until the next
		// write persists it.
		r.ID = legacyID(n)
	}
	if ts := text(6); ts != "" {
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			r.CreatedAt = t
		}
	}
	return r, true, nil
}

func legacyID(row int) string {
	return fmt.Sprintf("row-%d", row)
}

func (s *XLSXStore) write(rows []Row) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(s.sheet)
	if err != nil {
		return eris.Wrap(err, "xlsx: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range xlsxHeader {
		header.AddCell().SetString(h)
	}
	for _, r := range rows {
		xr := sheet.AddRow()
		xr.AddCell().SetString(r.Owner)
		xr.AddCell().SetString(r.Address)
		xr.AddCell().SetFloat(r.Lat)
		xr.AddCell().SetFloat(r.Lon)
		xr.AddCell().SetString(r.ID)
		xr.AddCell().SetString(r.Kind)
		created := ""
		if !r.CreatedAt.IsZero() {
			created = r.CreatedAt.UTC().Format(time.RFC3339Nano)
		}
		xr.AddCell().SetString(created)
	}

	tmp := s.path + ".tmp"
	if err := f.Save(tmp); err != nil {
		return eris.Wrap(err, "xlsx: save workbook")
	}
	return eris.Wrap(os.Rename(tmp, s.path), "xlsx: replace workbook")
}
