package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/huangsam/homerank/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateFormatter(t *testing.T) {
	tests := []struct {
		name      string
		precision int
		value     float64
		expected  string
	}{
		{
			name:      "precision 2",
			precision: 2,
			value:     3.14159,
			expected:  "3.14",
		},
		{
			name:      "precision 0",
			precision: 0,
			value:     3.14159,
			expected:  "3",
		},
		{
			name:      "precision 4",
			precision: 4,
			value:     0.61237,
			expected:  "0.6124",
		},
		{
			name:      "negative value",
			precision: 2,
			value:     -42.567,
			expected:  "-42.57",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fmtFloat := createFormatter(tt.precision)
			assert.Equal(t, tt.expected, fmtFloat(tt.value))
		})
	}
}

func TestFormatVector(t *testing.T) {
	assert.Equal(t, []string{"0.10", "1.00"}, formatVector([]float64{0.1, 1}, createFormatter(2)))
	assert.Empty(t, formatVector(nil, createFormatter(2)))
}

func TestRenderTable(t *testing.T) {
	var buf bytes.Buffer
	err := renderTable(&buf, "Ideal solutions", []string{"Criterion", "A+"}, [][]string{{"Kamar Tidur", "0.5000"}})
	require.NoError(t, err)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "Ideal solutions\n"))
	assert.Contains(t, out, "Kamar Tidur")
	assert.Contains(t, out, "0.5000")
}

// rankedRows is a two-item ranking with coded attributes, one of them out of range.
func rankedRows() []schema.RankedItem {
	return []schema.RankedItem{
		{
			Rank: 1, Score: 0.6, DistancePositive: 0.25, DistanceNegative: 0.375,
			Item: schema.Item{ID: "SBY-001", Index: 1, Cells: map[string]string{
				schema.ColumnCondition: "4",
				schema.ColumnInternet:  "1",
			}},
		},
		{
			Rank: 2, Score: 0.4, DistancePositive: 0.375, DistanceNegative: 0.25,
			Item: schema.Item{ID: "SBY-002", Index: 0, Cells: map[string]string{
				schema.ColumnCondition: "5",
				schema.ColumnInternet:  "0",
			}},
		},
	}
}

func labelRegistry() *schema.Registry {
	reg := schema.DefaultRegistry()
	reg.DisplayColumns = []string{schema.ColumnCondition, schema.ColumnInternet}
	return reg
}

func TestWriteJSON(t *testing.T) {
	tests := []struct {
		name     string
		data     any
		expected string
	}{
		{
			name: "enriched ranking",
			data: schema.EnrichRanking(rankedRows()[:1], labelRegistry()),
			expected: `[
  {
    "rank": 1,
    "id": "SBY-001",
    "score": 0.6,
    "label": "Good",
    "attributes": {
      "Kondisi Properti": "new",
      "Terjangkau Internet": "yes"
    },
    "distance_positive": 0.25,
    "distance_negative": 0.375
  }
]
`,
		},
		{
			name: "label table",
			data: schema.LabelsFor(schema.YesNoLabels),
			expected: `{
  "0": "no",
  "1": "yes"
}
`,
		},
		{
			name:     "unknown label",
			data:     schema.UnknownLabel,
			expected: `"-"` + "\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := writeJSON(&buf, tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, buf.String())
		})
	}
}

func TestWriteJSONError(t *testing.T) {
	var buf bytes.Buffer
	err := writeJSON(&buf, map[string]float64{"score": math.NaN()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to encode JSON")
}

func TestWriteCSVWithHeader(t *testing.T) {
	withCondition := append(append([]string(nil), rankingCSVHeader...), schema.ColumnCondition)

	tests := []struct {
		name     string
		header   []string
		rows     [][]string
		expected string
	}{
		{
			name:   "ranked rows",
			header: withCondition,
			rows: [][]string{
				{"1", "SBY-001", "0.6000", "Good", "0.2500", "0.3750", "new"},
				{"2", "SBY-002", "0.4000", "Fair", "0.3750", "0.2500", "-"},
			},
			expected: "rank,id,score,label,distance_positive,distance_negative,Kondisi Properti\n" +
				"1,SBY-001,0.6000,Good,0.2500,0.3750,new\n" +
				"2,SBY-002,0.4000,Fair,0.3750,0.2500,-\n",
		},
		{
			name:     "empty ranking",
			header:   rankingCSVHeader,
			rows:     [][]string{},
			expected: "rank,id,score,label,distance_positive,distance_negative\n",
		},
		{
			name:   "district with comma",
			header: []string{schema.ColumnPropertyCode, schema.ColumnDistrict},
			rows: [][]string{
				{"SBY-003", "Gubeng, Surabaya"},
			},
			expected: "Kode Properti,Kecamatan\nSBY-003,\"Gubeng, Surabaya\"\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := writeCSVWithHeader(&buf, tt.header, func(w *csv.Writer) error {
				for _, row := range tt.rows {
					if err := w.Write(row); err != nil {
						return err
					}
				}
				return nil
			})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, buf.String())
		})
	}
}

func TestWriteCSVWithHeaderError(t *testing.T) {
	var buf bytes.Buffer
	err := writeCSVWithHeader(&buf, rankingCSVHeader, func(w *csv.Writer) error {
		return assert.AnError
	})
	require.Error(t, err)
	assert.Equal(t, assert.AnError, err)
}

func TestWriteWithFile(t *testing.T) {
	reg := labelRegistry()
	fmtFloat := createFormatter(4)

	t.Run("stdout", func(t *testing.T) {
		called := false
		err := writeWithFile("", func(w io.Writer) error {
			called = true
			return writeRankingCSV(w, rankedRows(), reg, fmtFloat)
		}, "Wrote ranking")
		require.NoError(t, err)
		assert.True(t, called)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ranking.csv")
		err := writeWithFile(path, func(w io.Writer) error {
			return writeRankingCSV(w, rankedRows(), reg, fmtFloat)
		}, "Wrote ranking")
		require.NoError(t, err)

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		records, err := csv.NewReader(bytes.NewReader(content)).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, []string{"rank", "id", "score", "label", "distance_positive", "distance_negative", "Kondisi Properti", "Terjangkau Internet"}, records[0])
		assert.Equal(t, []string{"1", "SBY-001", "0.6000", "Good", "0.2500", "0.3750", "new", "yes"}, records[1])
		assert.Equal(t, []string{"2", "SBY-002", "0.4000", "Fair", "0.3750", "0.2500", "-", "no"}, records[2])
	})

	t.Run("writer error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ranking.csv")
		err := writeWithFile(path, func(w io.Writer) error {
			return assert.AnError
		}, "Wrote ranking")
		require.Error(t, err)
		assert.Equal(t, assert.AnError, err)
	})

	t.Run("invalid path", func(t *testing.T) {
		err := writeWithFile("/nonexistent/path/ranking.csv", func(w io.Writer) error {
			return nil
		}, "Wrote ranking")
		require.Error(t, err)
	})
}

func TestWriteEnrichedRankingToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ranking.json")
	err := writeWithFile(path, func(w io.Writer) error {
		return writeJSON(w, schema.EnrichRanking(rankedRows(), labelRegistry()))
	}, "Wrote ranking")
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	var got []schema.EnrichedRankedItem
	require.NoError(t, json.Unmarshal(content, &got))
	require.Len(t, got, 2)
	assert.Equal(t, "SBY-001", got[0].ID)
	assert.Equal(t, "new", got[0].Attributes[schema.ColumnCondition])
	assert.Equal(t, 2, got[1].Rank)
	assert.Equal(t, "Fair", got[1].Label)
	assert.Equal(t, schema.UnknownLabel, got[1].Attributes[schema.ColumnCondition])
	assert.Equal(t, "no", got[1].Attributes[schema.ColumnInternet])
}
