package history

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// bom is the byte order mark some spreadsheet tools put before the header.
const bom = "\uFEFF"

// Dataset is the durable store of admitted matches.
type Dataset interface {
	// ReadAll returns every complete record in file order. Rows lacking a
	// half-time score are counted in Incomplete and left out.
	ReadAll() (ReadResult, error)
	// Append durably writes one record.
	Append(rec MatchRecord) error
}

// ReadResult is the outcome of a full dataset read.
type ReadResult struct {
	Records    []MatchRecord
	Incomplete int
}

// CSVDataset stores records in a single CSV file with a header row. A
// missing file is an empty dataset; it is created on the first append.
type CSVDataset struct {
	path string
}

// NewCSVDataset returns a dataset backed by the file at path.
func NewCSVDataset(path string) *CSVDataset {
	return &CSVDataset{path: path}
}

// Path returns the backing file path.
func (d *CSVDataset) Path() string { return d.path }

func (d *CSVDataset) ReadAll() (ReadResult, error) {
	var res ReadResult

	f, err := os.Open(d.path)
	if errors.Is(err, os.ErrNotExist) {
		return res, nil
	}
	if err != nil {
		return res, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return res, nil
	}
	if err != nil {
		return res, &DataCorruptionError{Path: d.path, Line: 1, Err: err}
	}
	header = trimHeader(header)
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return res, &DataCorruptionError{Path: d.path, Line: 1, Column: col, Err: errors.New("missing column")}
		}
	}

	for line := 2; ; line++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return res, &DataCorruptionError{Path: d.path, Line: line, Err: err}
		}
		// Extra cells mean two rows were glued together on one line.
		if len(row) > len(header) {
			return res, &DataCorruptionError{
				Path: d.path,
				Line: line,
				Err:  fmt.Errorf("%d fields, header has %d", len(row), len(header)),
			}
		}
		cell := func(col string) string {
			i, ok := idx[col]
			if !ok || i >= len(row) {
				return ""
			}
			return row[i]
		}

		if cell("ht_home") == "" || cell("ht_away") == "" {
			res.Incomplete++
			continue
		}
		rec, err := decodeRow(cell)
		if err != nil {
			var ce *DataCorruptionError
			if errors.As(err, &ce) {
				ce.Path, ce.Line = d.path, line
			}
			return res, err
		}
		res.Records = append(res.Records, rec)
	}
	return res, nil
}

func decodeRow(cell func(string) string) (MatchRecord, error) {
	rec := MatchRecord{
		FixtureID:  cell("fixture_id"),
		Date:       cell("date"),
		Time:       cell("time"),
		LeagueName: cell("league_name"),
		Country:    cell("country"),
		Round:      cell("round"),
		HomeTeamID: cell("home_team_id"),
		HomeTeam:   cell("home_team"),
		AwayTeamID: cell("away_team_id"),
		AwayTeam:   cell("away_team"),
	}
	for _, col := range []string{"fixture_id", "date", "home_team_id", "away_team_id"} {
		if cell(col) == "" {
			return rec, &DataCorruptionError{Column: col, Err: errors.New("empty value")}
		}
	}
	if s := cell("league_id"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return rec, &DataCorruptionError{Column: "league_id", Err: err}
		}
		rec.LeagueID = n
	}

	required := []struct {
		col string
		dst *int
	}{
		{"home_goals", &rec.HomeGoals},
		{"away_goals", &rec.AwayGoals},
		{"ht_home", &rec.HTHome},
		{"ht_away", &rec.HTAway},
	}
	for _, req := range required {
		v, err := parseInt(cell(req.col))
		if err == nil && v == nil {
			err = errors.New("empty value")
		}
		if err != nil {
			return rec, &DataCorruptionError{Column: req.col, Err: err}
		}
		*req.dst = *v
	}

	var err error
	if rec.FTHome, err = parseInt(cell("ft_home")); err != nil {
		return rec, &DataCorruptionError{Column: "ft_home", Err: err}
	}
	if rec.FTAway, err = parseInt(cell("ft_away")); err != nil {
		return rec, &DataCorruptionError{Column: "ft_away", Err: err}
	}

	rec.Features.HomeTeamAvg = parseFloat(cell("avg_goal_home_team"))
	rec.Features.AwayTeamAvg = parseFloat(cell("avg_goal_away_team"))
	rec.Features.CombinedAvg = parseFloat(cell("avg_goal_combined"))
	rec.Features.HomeTeamHomeAvg = parseFloat(cell("avg_goal_home_team_home"))
	rec.Features.AwayTeamAwayAvg = parseFloat(cell("avg_goal_away_team_away"))
	rec.Features.CombinedHomeAway = parseFloat(cell("avg_goal_combined_home_away"))
	rec.Features.HomeNoGoalLast5 = parseFlag(cell("home_team_no_goal_last5"))
	rec.Features.AwayNoGoalLast5 = parseFlag(cell("away_team_no_goal_last5"))
	return rec, nil
}

// Append writes rec as one row, creating the file with a header if needed.
// Rows follow the existing header's column order so files written by other
// tools stay aligned. A last line left unterminated by another writer is
// closed first. The file is synced before Append returns.
func (d *CSVDataset) Append(rec MatchRecord) error {
	header, err := d.header()
	if err != nil {
		return err
	}

	f, err := os.OpenFile(d.path, os.O_CREATE|os.O_APPEND|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("open dataset for append: %w", err)
	}
	defer f.Close()

	if err := terminateLastLine(f); err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if header == nil {
		header = Columns
		if err := w.Write(header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	fields := rec.fields()
	row := make([]string, len(header))
	for i, col := range header {
		row[i] = fields[col]
	}
	if err := w.Write(row); err != nil {
		return fmt.Errorf("write row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush row: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync dataset: %w", err)
	}
	return nil
}

// header returns the existing header, or nil when the file is absent or empty.
func (d *CSVDataset) header() ([]string, error) {
	f, err := os.Open(d.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	header, err := csv.NewReader(f).Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, &DataCorruptionError{Path: d.path, Line: 1, Err: err}
	}
	return trimHeader(header), nil
}

func trimHeader(header []string) []string {
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], bom)
	}
	return header
}

// terminateLastLine writes a newline when a non-empty file does not end in one.
func terminateLastLine(f *os.File) error {
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat dataset: %w", err)
	}
	if info.Size() == 0 {
		return nil
	}
	last := make([]byte, 1)
	if _, err := f.ReadAt(last, info.Size()-1); err != nil {
		return fmt.Errorf("read dataset tail: %w", err)
	}
	if last[0] == '\n' {
		return nil
	}
	if _, err := f.Write([]byte("\n")); err != nil {
		return fmt.Errorf("terminate last row: %w", err)
	}
	return nil
}
