package dictionary

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFiltersAndNormalizes(t *testing.T) {
	d := New("team", " Cat ", "a", "don't", "naïve", "QI", "")

	assert.True(t, d.Contains("TEAM"))
	assert.True(t, d.Contains("CAT"))
	assert.True(t, d.Contains("QI"))
	assert.False(t, d.Contains("A"), "single letters are dropped")
	assert.False(t, d.Contains("DON'T"))
	assert.False(t, d.Contains("team"), "lookups expect uppercase")
	assert.Equal(t, 3, d.Len())
}

func TestLoadFileAndURL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "words.txt")
	require.NoError(t, os.WriteFile(path, []byte("team\nmeat\r\nmate\n"), 0o644))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("zebra\njazz\nteam\n"))
	}))
	defer srv.Close()

	d, err := Load(path, srv.URL)
	require.NoError(t, err)

	for _, w := range []string{"TEAM", "MEAT", "MATE", "ZEBRA", "JAZZ"} {
		assert.True(t, d.Contains(w), w)
	}
	assert.Equal(t, 5, d.Len())
}

func TestLoadFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	empty := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(empty, []byte("x\n1\n"), 0o644))

	cases := map[string][]string{
		"no sources":   nil,
		"missing file": {filepath.Join(t.TempDir(), "missing.txt")},
		"bad status":   {srv.URL},
		"empty result": {empty},
	}
	for name, sources := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(sources...)
			assert.Error(t, err)
		})
	}
}
