package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"knowledge-qa-go/pkg/errs"
)

func TestSplit_BasicOverlap(t *testing.T) {
	chunks, err := Split("abcdefghij", 4, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"abcd", "defg", "ghij"}, chunks)
}

func TestSplit_ChunkCountFormula(t *testing.T) {
	// ceil((len - overlap) / (size - overlap)) = ceil((100-10)/(50-10)) = 3
	text := strings.Repeat("x", 100)
	chunks, err := Split(text, 50, 10)
	require.NoError(t, err)
	assert.Len(t, chunks, 3)
}

func TestSplit_Reconstruction(t *testing.T) {
	text := "The quick brown fox jumps over the lazy dog, again and again."
	overlap := 5
	chunks, err := Split(text, 20, overlap)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	var b strings.Builder
	b.WriteString(chunks[0])
	for _, c := range chunks[1:] {
		b.WriteString(string([]rune(c)[overlap:]))
	}
	assert.Equal(t, text, b.String())
}

func TestSplit_OverlapGreaterThanSizeTerminates(t *testing.T) {
	// overlap >= size 退化为无重叠切分，必须终止且产生 ceil(len/size) 个分块
	chunks, err := Split("abcdefghij", 3, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"abc", "def", "ghi", "j"}, chunks)
}

func TestSplit_NormalizesCRLF(t *testing.T) {
	chunks, err := Split("ab\r\ncd", 100, 0)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "ab\ncd", chunks[0])
}

func TestSplit_EmptyAndWhitespaceInput(t *testing.T) {
	chunks, err := Split("", 10, 2)
	require.NoError(t, err)
	assert.Empty(t, chunks)

	chunks, err = Split("   \n\t  ", 10, 2)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestSplit_InvalidSize(t *testing.T) {
	_, err := Split("hello", 0, 0)
	require.Error(t, err)
	var validationErr *errs.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestSplit_TextShorterThanSize(t *testing.T) {
	chunks, err := Split("short", 100, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"short"}, chunks)
}

func TestSplit_Deterministic(t *testing.T) {
	text := strings.Repeat("abcdef ", 40)
	first, err := Split(text, 30, 7)
	require.NoError(t, err)
	second, err := Split(text, 30, 7)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
