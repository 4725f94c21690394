// Package vectors holds helpers shared by the vector store adapters:
// similarity, BLOB encoding and the text that gets embedded for a document.
package vectors

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/normalisers/pdf"
)

// MaxEmbedInput bounds the bytes of document text sent to the embedder.
// Most embedding models truncate well below this anyway.
const MaxEmbedInput = 8000

// Cosine returns the cosine similarity of a and b, or 0 if either is a zero
// vector or their lengths differ.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Encode packs a vector as little-endian float32s.
func Encode(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// Decode is the inverse of Encode.
func Decode(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("vector blob length %d is not a multiple of 4", len(data))
	}
	v := make([]float32, len(data)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return v, nil
}

// EmbedInput is the text embedded for a document: title, summary and the
// start of the cleaned full text.
func EmbedInput(doc domain.Document) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{doc.Title, doc.Summary, pdf.CleanText(doc.Text)} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return truncate(strings.Join(parts, "\n\n"), MaxEmbedInput)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// CheckDimensions verifies every vector has the expected size.
func CheckDimensions(vecs [][]float32, want int) error {
	for i, v := range vecs {
		if len(v) != want {
			return fmt.Errorf("vector %d has %d dimensions, store expects %d", i, len(v), want)
		}
	}
	return nil
}
