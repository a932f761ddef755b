package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *Manifest {
	m := &Manifest{
		RunID:         "3b0c4e52-8d0e-4f4e-9d55-0b8f0a3c9a11",
		Seed:          42,
		PublisherIDs:  []string{"p1", "p2"},
		AuthorIDs:     []string{"a1"},
		BookIDs:       []string{"b1", "b2", "b3"},
		UserIDs:       []string{"u1"},
		StudentIDs:    []string{"s1"},
		StudentRoleID: "r1",
		DegreeIDs:     []string{"d1", "d2"},
	}
	m.Stamp(time.Date(2024, 5, 6, 7, 8, 9, 123456789, time.FixedZone("CST", -6*3600)))
	return m
}

func TestStamp(t *testing.T) {
	t.Parallel()

	m := sample()
	assert.Equal(t, "2024-05-06T13:08:09.123Z", m.GeneratedAt)

	parsed, err := m.Time()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 6, 13, 8, 9, 123000000, time.UTC), parsed.UTC())
}

func TestWriteReadRoundTrip(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"ids.json", "ids.yaml"} {
		name := name
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "out", name)
			want := sample()
			require.NoError(t, Write(path, "", want))

			got, err := Read(path)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestWriteJSONKeys(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "generated_ids.json")
	require.NoError(t, Write(path, FormatJSON, sample()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{"publisherIds", "authorIds", "bookIds", "userIds", "studentIds", "studentRoleId", "degreeIds", "generatedAt"} {
		assert.Contains(t, raw, key)
	}
	assert.NotContains(t, raw, "loanIds")
}

func TestWriteOverwrites(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "generated_ids.json")

	first := sample()
	first.BookIDs = []string{"old1", "old2", "old3", "old4"}
	require.NoError(t, Write(path, FormatJSON, first))

	second := sample()
	second.BookIDs = []string{"new"}
	require.NoError(t, Write(path, FormatJSON, second))

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, got.BookIDs)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestWriteUnknownFormat(t *testing.T) {
	t.Parallel()

	err := Write(filepath.Join(t.TempDir(), "ids.txt"), "xml", sample())
	assert.Error(t, err)
}

func TestReadMissing(t *testing.T) {
	t.Parallel()

	_, err := Read(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadIgnoresMismatchedExtension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		file   string
		format string
	}{
		{name: "yaml in json file", file: "generated_ids.json", format: FormatYAML},
		{name: "json in yaml file", file: "generated_ids.yml", format: FormatJSON},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), tt.file)
			want := sample()
			require.NoError(t, Write(path, tt.format, want))

			got, format, err := ReadFormat(path)
			require.NoError(t, err)
			assert.Equal(t, want, got)
			assert.Equal(t, tt.format, format)

			got, err = Read(path)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestRewriteKeepsFormat(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "generated_ids.json")
	require.NoError(t, Write(path, FormatYAML, sample()))

	m, format, err := ReadFormat(path)
	require.NoError(t, err)
	m.LoanIDs = append(m.LoanIDs, "l1", "l2")
	require.NoError(t, Write(path, format, m))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, DetectFormat(data))

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"l1", "l2"}, got.LoanIDs)
}

func TestFormatFromPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, FormatYAML, FormatFromPath("out/ids.yaml"))
	assert.Equal(t, FormatYAML, FormatFromPath("IDS.YML"))
	assert.Equal(t, FormatJSON, FormatFromPath("generated_ids.json"))
	assert.Equal(t, FormatJSON, FormatFromPath("generated_ids"))
}

func TestReadMalformed(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "generated_ids.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"bookIds": [`), 0644))

	_, err := Read(path)
	assert.ErrorContains(t, err, "failed to parse manifest")
}
