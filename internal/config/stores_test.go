package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeStores(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stores.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadStoresPreservesOrder(t *testing.T) {
	path := writeStores(t, `
stores:
  - name: "Buzz Cannabis - Mission Valley"
    code: MV
  - name: "Buzz Cannabis-La Mesa"
    code: LM
  - name: "Buzz Cannabis (National City)"
    code: NC
`)
	stores, err := LoadStores(path)
	require.NoError(t, err)
	require.Len(t, stores, 3)
	require.Equal(t, "MV", stores[0].Code)
	require.Equal(t, "LM", stores[1].Code)
	require.Equal(t, "NC", stores[2].Code)
	require.Equal(t, "Buzz Cannabis - Mission Valley", stores[0].Name)
}

func TestLoadStoresValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"duplicate code", "stores:\n  - name: A\n    code: MV\n  - name: B\n    code: MV\n"},
		{"duplicate name", "stores:\n  - name: A\n    code: MV\n  - name: A\n    code: LM\n"},
		{"empty code", "stores:\n  - name: A\n    code: \"\"\n"},
		{"empty name", "stores:\n  - name: \"\"\n    code: MV\n"},
		{"no stores", "stores: []\n"},
		{"not yaml", "{{{{\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadStores(writeStores(t, tc.body))
			require.Error(t, err)
		})
	}
}

func TestLoadStoresMissingFile(t *testing.T) {
	_, err := LoadStores(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
