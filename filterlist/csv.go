package filterlist

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	sdkerrors "cosmossdk.io/errors"
	"github.com/pkg/errors"

	"allocation-agent/ipfshash"
)

// ErrMalformedInput covers an unreadable file or a header that does not carry
// the four recognized columns.
var ErrMalformedInput = sdkerrors.Register("allocation-agent", 3, "malformed filter list input")

const (
	colWhitelist  = "whitelist"
	colBlacklist  = "blacklist"
	colPinnedlist = "pinnedlist"
	colFrozenlist = "frozenlist"
)

// ParseFile reads the operator's filter-list CSV. The header row must name
// the four recognized columns in any order; unrecognized columns are ignored.
// Rows may be ragged, and absent or blank cells are skipped rather than
// treated as empty-string hashes.
func ParseFile(path string) (Lists, error) {
	f, err := os.Open(path)
	if err != nil {
		return Lists{}, sdkerrors.Wrap(ErrMalformedInput, err.Error())
	}
	defer f.Close()

	lists, err := parse(f)
	if err != nil {
		return Lists{}, errors.Wrapf(err, "parsing %s", path)
	}
	return lists, nil
}

func parse(r io.Reader) (Lists, error) {
	reader := csv.NewReader(r)
	// Ragged rows are legal.
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return Lists{}, sdkerrors.Wrap(ErrMalformedInput, "missing header row")
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{colWhitelist, colBlacklist, colPinnedlist, colFrozenlist} {
		if _, ok := columns[required]; !ok {
			return Lists{}, sdkerrors.Wrapf(ErrMalformedInput, "header lacks column %q", required)
		}
	}

	var lists Lists
	appendCell := func(record []string, column string, dst *[]ipfshash.IpfsHash) {
		idx := columns[column]
		if idx >= len(record) {
			return
		}
		cell := strings.TrimSpace(record[idx])
		if cell == "" {
			return
		}
		*dst = append(*dst, ipfshash.IpfsHash(cell))
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Lists{}, sdkerrors.Wrap(ErrMalformedInput, err.Error())
		}
		appendCell(record, colWhitelist, &lists.Whitelist)
		appendCell(record, colBlacklist, &lists.Blacklist)
		appendCell(record, colPinnedlist, &lists.Pinnedlist)
		appendCell(record, colFrozenlist, &lists.Frozenlist)
	}
	return lists, nil
}
