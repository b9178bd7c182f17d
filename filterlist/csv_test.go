package filterlist

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"allocation-agent/ipfshash"
)

func writeListFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lists.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseFile(t *testing.T) {
	w1, b1, p1, f1 := mkHash("w1"), mkHash("b1"), mkHash("p1"), mkHash("f1")
	w2 := mkHash("w2")

	content := strings.Join([]string{
		"whitelist,blacklist,pinnedlist,frozenlist",
		w1.String() + "," + b1.String() + "," + p1.String() + "," + f1.String(),
		w2.String() + ",,,",
	}, "\n")

	lists, err := ParseFile(writeListFile(t, content))
	require.NoError(t, err)
	assert.Equal(t, []ipfshash.IpfsHash{w1, w2}, lists.Whitelist)
	assert.Equal(t, []ipfshash.IpfsHash{b1}, lists.Blacklist)
	assert.Equal(t, []ipfshash.IpfsHash{p1}, lists.Pinnedlist)
	assert.Equal(t, []ipfshash.IpfsHash{f1}, lists.Frozenlist)
}

func TestParseFileBlankPinnedCells(t *testing.T) {
	p1, p2 := mkHash("p1"), mkHash("p2")

	// A blank cell in the pinnedlist column is skipped, not treated as an
	// empty-string hash; order of the non-blank entries is preserved.
	content := strings.Join([]string{
		"whitelist,blacklist,pinnedlist,frozenlist",
		",," + p1.String() + ",",
		",,,",
		",," + p2.String() + ",",
	}, "\n")

	lists, err := ParseFile(writeListFile(t, content))
	require.NoError(t, err)
	assert.Equal(t, []ipfshash.IpfsHash{p1, p2}, lists.Pinnedlist)
	assert.Empty(t, lists.Whitelist)
}

func TestParseFileRaggedRows(t *testing.T) {
	w1, f1 := mkHash("w1"), mkHash("f1")

	content := strings.Join([]string{
		"whitelist,blacklist,pinnedlist,frozenlist",
		w1.String(),
		",,," + f1.String(),
	}, "\n")

	lists, err := ParseFile(writeListFile(t, content))
	require.NoError(t, err)
	assert.Equal(t, []ipfshash.IpfsHash{w1}, lists.Whitelist)
	assert.Equal(t, []ipfshash.IpfsHash{f1}, lists.Frozenlist)
}

func TestParseFileIgnoresUnrecognizedColumns(t *testing.T) {
	w1 := mkHash("w1")

	content := strings.Join([]string{
		"notes,whitelist,blacklist,pinnedlist,frozenlist",
		"ignore me," + w1.String() + ",,,",
	}, "\n")

	lists, err := ParseFile(writeListFile(t, content))
	require.NoError(t, err)
	assert.Equal(t, []ipfshash.IpfsHash{w1}, lists.Whitelist)
}

func TestParseFileHeaderMismatch(t *testing.T) {
	content := strings.Join([]string{
		"whitelist,blacklist,pinnedlist",
		mkHash("w1").String() + ",,",
	}, "\n")

	_, err := ParseFile(writeListFile(t, content))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedInput)
	assert.Contains(t, err.Error(), "frozenlist")
}

func TestParseFileMissing(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedInput)
}
