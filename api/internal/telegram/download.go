package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"quiz-json/api/internal/util"
)

func download(ctx context.Context, client *http.Client, url string, limit int64) ([]byte, error) {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, util.Truncate(string(b), 200))
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > limit {
		return nil, fmt.Errorf("image larger than %d bytes", limit)
	}
	return b, nil
}

// splitMessage cuts s into parts of at most n bytes, preferring line
// breaks and never splitting a UTF-8 sequence.
func splitMessage(s string, n int) []string {
	var parts []string
	for len(s) > n {
		if cut := strings.LastIndexByte(s[:n], '\n'); cut > 0 {
			parts = append(parts, s[:cut])
			s = s[cut+1:]
			continue
		}
		cut := n
		for cut > 0 && !isRuneStart(s[cut]) {
			cut--
		}
		parts = append(parts, s[:cut])
		s = s[cut:]
	}
	return append(parts, s)
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }
