package writer

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-scripts/providercrawl/internal/identity"
	"github.com/go-scripts/providercrawl/internal/types"
)

func record(name, phone string) types.ProviderRecord {
	return types.ProviderRecord{
		CompanyName: name,
		Suburb:      "SYDNEY",
		State:       "NSW",
		Postcode:    "2000",
		Telephone:   phone,
		SourceURL:   "https://www.myagedcare.gov.au/find-a-provider/x",
	}
}

func TestWriteRecordsAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output", "output.csv")
	w := New(path, log.New(io.Discard))
	assert.Equal(t, path, w.Path())

	require.NoError(t, w.WriteRecords([]types.ProviderRecord{record("SUNSHINE AGED CARE\nResidential", "02 8388 8000")}))
	require.NoError(t, w.WriteRecords([]types.ProviderRecord{record("BAYVIEW, CARE", "")}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"company_name,address,suburb,state,postcode,telephone,email,website\n"+
			"SUNSHINE AGED CARE,,SYDNEY,NSW,2000,02 8388 8000,,\n"+
			"\"BAYVIEW, CARE\",,SYDNEY,NSW,2000,,,\n",
		string(data))
}

func TestWriteRecordsEmptyBatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output.csv")
	w := New(path, log.New(io.Discard))

	require.NoError(t, w.WriteRecords(nil))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output.csv")
	w := New(path, log.New(io.Discard))
	require.NoError(t, w.WriteRecords([]types.ProviderRecord{
		record("A", "02 8388 8000"),
		record("B", ""),
		record("C", "1800-200-422"),
	}))

	set := identity.New()
	assert.Equal(t, 2, w.Seed(set))
	assert.True(t, set.IsDuplicate("(02) 8388 8000"))
	assert.True(t, set.IsDuplicate("1800 200 422"))
}

func TestSeedMissingFile(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "none.csv"), log.New(io.Discard))
	phones, err := w.ReadTelephones()
	require.NoError(t, err)
	assert.Empty(t, phones)
	assert.Equal(t, 0, w.Seed(identity.New()))
}

func TestSeedMalformedFile(t *testing.T) {
	tests := map[string]string{
		"bad quote":      "company_name,telephone\n\"unterminated,02 8388 8000\n",
		"missing column": "company_name,phone\nA,02 8388 8000\n",
		"ragged rows":    "company_name,telephone\nA,02 8388 8000,extra\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "output.csv")
			require.NoError(t, os.WriteFile(path, []byte(content), 0644))

			w := New(path, log.New(io.Discard))
			_, err := w.ReadTelephones()
			assert.Error(t, err)

			set := identity.New()
			assert.Equal(t, 0, w.Seed(set))
			assert.Equal(t, 0, set.Len())
		})
	}
}
