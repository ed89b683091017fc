package utils

import (
	"fmt"
	"strings"
)

// SplitText splits text into windows of chunkSize runes, each starting
// chunkSize-overlap runes after the previous one. Whitespace-only windows
// are skipped and every chunk is trimmed.
func SplitText(text string, chunkSize int, overlap int) ([]string, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be > 0, got %d", chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("chunk overlap must be >= 0 and < chunk size, got %d", overlap)
	}

	runes := []rune(text)
	totalLen := len(runes)
	step := chunkSize - overlap

	var chunks []string
	for i := 0; i < totalLen; i += step {
		end := i + chunkSize
		if end > totalLen {
			end = totalLen
		}

		chunk := strings.TrimSpace(string(runes[i:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
	}

	return chunks, nil
}
