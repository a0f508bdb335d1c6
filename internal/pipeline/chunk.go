package pipeline

import "strings"

// chunkText splits text into overlapping word-windows of size words, each
// pair of consecutive windows sharing overlap words. size must be > 0;
// overlap must be < size (checked by the caller via Options.Validate).
func chunkText(text string, size, overlap int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	step := size - overlap
	if step <= 0 {
		step = 1
	}

	var chunks []string
	for start := 0; start < len(words); start += step {
		end := start + size
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}
	}
	return chunks
}
