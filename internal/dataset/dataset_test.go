// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/book-metasearch/internal/normalize"
)

func TestParseShapes(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want []normalize.Raw
	}{
		{
			"bare array",
			`[{"서명": "딥러닝 입문", "발행년도": 2023}]`,
			[]normalize.Raw{{"서명": "딥러닝 입문", "발행년도": "2023"}},
		},
		{
			"rows envelope",
			`{"rows": [{"Title": "Go"}], "meta": {"v": 1}}`,
			[]normalize.Raw{{"Title": "Go"}},
		},
		{
			"docs envelope",
			`{"docs": [{"제목": "파이썬"}]}`,
			[]normalize.Raw{{"제목": "파이썬"}},
		},
		{
			"first envelope key wins",
			`{"items": [{"t": "items"}], "data": [{"t": "data"}]}`,
			[]normalize.Raw{{"t": "data"}},
		},
		{
			"unrecognized object",
			`{"records": [{"t": "x"}]}`,
			[]normalize.Raw{},
		},
		{
			"scalar document",
			`42`,
			[]normalize.Raw{},
		},
		{
			"drops nulls and nested values, skips non-object rows",
			`[{"서명": "A", "저자": null, "tags": ["x"], "대출가능": true, "가격": 12000.5}, "junk"]`,
			[]normalize.Raw{{"서명": "A", "대출가능": "true", "가격": "12000.5"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse([]byte(tt.doc))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseMalformed(t *testing.T) {
	_, err := Parse([]byte(`[{"서명": `))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dataset.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"data": [{"서명": "딥러닝 입문"}, {"서명": "Go"}]}`), 0o644))

	rows, info, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, Info{Path: path, Exists: true, Count: 2}, info)
}

func TestLoadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.json")
	rows, info, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.False(t, info.Exists)
	assert.Zero(t, info.Count)
}

func TestLoadEmptyPath(t *testing.T) {
	rows, info, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Equal(t, Info{}, info)
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	rows, info, err := Load(path)
	assert.Error(t, err)
	assert.Empty(t, rows)
	assert.True(t, info.Exists)
	assert.NotEmpty(t, info.Error)
}
