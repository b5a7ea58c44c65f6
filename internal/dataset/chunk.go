package dataset

// ChunkSize is the number of symbols per output artifact.
const ChunkSize = 50

// Chunk is a contiguous group of symbols. Index is the position of the
// first symbol in the full list and names the chunk's artifact.
type Chunk struct {
	Index   int
	Symbols []string
}

// Partition splits symbols into consecutive chunks of at most size symbols.
// Every symbol lands in exactly one chunk.
func Partition(symbols []string, size int) []Chunk {
	if size <= 0 {
		size = ChunkSize
	}
	chunks := make([]Chunk, 0, (len(symbols)+size-1)/size)
	for i := 0; i < len(symbols); i += size {
		end := i + size
		if end > len(symbols) {
			end = len(symbols)
		}
		chunks = append(chunks, Chunk{Index: i, Symbols: symbols[i:end]})
	}
	return chunks
}
