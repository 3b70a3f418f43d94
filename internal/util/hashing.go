package util

import (
	"crypto/sha256"
	"strconv"
)

// HashVectors hashes the concatenation of the given vectors. The query
// cache keys a box by HashVectors(from, to).
func HashVectors(vecs ...[]float64) [32]byte {
	buffer := GetBytesBuffer()
	defer PutBytesBuffer(buffer)
	defer buffer.Reset()
	for i := range vecs {
		for j := range vecs[i] {
			buffer.WriteString(strconv.FormatFloat(vecs[i][j], 'g', 16, 64))
			buffer.WriteByte(';')
		}
		buffer.WriteByte('|')
	}
	return sha256.Sum256(buffer.Bytes())
}
