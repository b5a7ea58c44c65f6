package dataset

import (
	"fmt"
	"os"
	"testing"

	"github.com/go-kit/kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ChartDataset/internal/model"
)

func symbols(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("S%03d", i)
	}
	return out
}

func TestPartition_ExhaustiveAndDisjoint(t *testing.T) {
	for _, n := range []int{0, 1, 49, 50, 51, 137, 250} {
		in := symbols(n)
		chunks := Partition(in, ChunkSize)

		seen := make(map[string]int)
		next := 0
		for _, c := range chunks {
			assert.Equal(t, next, c.Index, "chunk index is the offset of its first symbol")
			assert.LessOrEqual(t, len(c.Symbols), ChunkSize)
			assert.NotEmpty(t, c.Symbols)
			for _, s := range c.Symbols {
				seen[s]++
			}
			next += len(c.Symbols)
		}
		assert.Len(t, seen, n)
		for s, count := range seen {
			assert.Equal(t, 1, count, "symbol %s", s)
		}
	}
}

func TestPartition_Indices(t *testing.T) {
	chunks := Partition(symbols(120), 50)
	require.Len(t, chunks, 3)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, 50, chunks[1].Index)
	assert.Equal(t, 100, chunks[2].Index)
	assert.Len(t, chunks[2].Symbols, 20)
}

func sample(sym string, label float64) model.Sample {
	pix := make([]byte, 4*3*3)
	for i := range pix {
		pix[i] = byte(i)
	}
	return model.Sample{
		Symbol: sym, Year: 2010, Month: 4, Label: label,
		Image: model.ImageBuffer{Width: 4, Height: 3, Channels: 3, Pix: pix},
	}
}

func TestStore_WriteReadComplete(t *testing.T) {
	s := NewStore(t.TempDir(), log.NewNopLogger())
	assert.False(t, s.Complete(50))

	in := []model.Sample{sample("AAPL", 1.5), sample("MSFT", -2.25)}
	require.NoError(t, s.Write(50, in))
	assert.True(t, s.Complete(50))

	_, err := os.Stat(s.Path(50) + ".tmp")
	assert.True(t, os.IsNotExist(err))

	out, err := s.Read(50)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "MSFT", out[1].Symbol)
	assert.Equal(t, -2.25, out[1].Label)
	assert.Equal(t, in[0].Image, out[0].Image)
}

func TestStore_EmptyChunkIsComplete(t *testing.T) {
	s := NewStore(t.TempDir(), log.NewNopLogger())
	require.NoError(t, s.Write(0, nil))
	assert.True(t, s.Complete(0))

	out, err := s.Read(0)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestStore_MalformedArtifactIsRemoved(t *testing.T) {
	s := NewStore(t.TempDir(), log.NewNopLogger())
	require.NoError(t, os.MkdirAll(s.Dir, 0755))
	require.NoError(t, os.WriteFile(s.Path(100), []byte("half a parquet file"), 0644))

	assert.False(t, s.Complete(100))
	_, err := os.Stat(s.Path(100))
	assert.True(t, os.IsNotExist(err))
}

func TestStore_CorruptedPageIsIncomplete(t *testing.T) {
	s := NewStore(t.TempDir(), log.NewNopLogger())
	// Full-size images so that the pixel pages make up most of the file.
	big := func(sym string, label float64) model.Sample {
		pix := make([]byte, 259*194*3)
		for i := range pix {
			pix[i] = byte(i * 7)
		}
		return model.Sample{
			Symbol: sym, Year: 2010, Month: 4, Label: label,
			Image: model.ImageBuffer{Width: 259, Height: 194, Channels: 3, Pix: pix},
		}
	}
	require.NoError(t, s.Write(0, []model.Sample{big("AAPL", 1.5), big("MSFT", -2)}))
	require.True(t, s.Complete(0))

	data, err := os.ReadFile(s.Path(0))
	require.NoError(t, err)
	mid := len(data) / 3
	for i := mid; i < mid+64 && i < len(data); i++ {
		data[i] ^= 0xFF
	}
	require.NoError(t, os.WriteFile(s.Path(0), data, 0644))

	assert.False(t, s.Complete(0))
	_, err = os.Stat(s.Path(0))
	assert.True(t, os.IsNotExist(err), "corrupted artifact removed for rebuild")
}
