package probeset

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
)

// HTTPProbe succeeds iff the request completes (any status code) before the
// deadline. When ContentHash is set, the body is read in full and its raw
// bytes are MD5-hashed; a mismatch is a failure even if the request itself
// succeeded.
type HTTPProbe struct {
	URL         string
	Method      string
	ContentHash string // lowercase hex, optional
}

func (p HTTPProbe) Check(ctx context.Context) error {
	method := p.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, p.URL, nil)
	if err != nil {
		return fmt.Errorf("http request %s: %w", p.URL, err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("http probe %s: %w", p.URL, err)
	}
	defer resp.Body.Close()

	if p.ContentHash == "" {
		_, err := io.Copy(io.Discard, resp.Body)
		return err
	}

	h := md5.New()
	if _, err := io.Copy(h, resp.Body); err != nil {
		return fmt.Errorf("http read body %s: %w", p.URL, err)
	}
	sum := hex.EncodeToString(h.Sum(nil))
	if sum != p.ContentHash {
		return fmt.Errorf("http content hash mismatch for %s: got %s want %s", p.URL, sum, p.ContentHash)
	}
	return nil
}
