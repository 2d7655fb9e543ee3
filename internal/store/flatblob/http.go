package flatblob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HTTPBlob is a public JSON bin (kvdb.io, npoint.io): GET reads the
// value, POST replaces it.
type HTTPBlob struct {
	URL    string
	Client *http.Client
}

func (h *HTTPBlob) client() *http.Client {
	if h.Client != nil {
		return h.Client
	}
	return http.DefaultClient
}

func (h *HTTPBlob) Load(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.client().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch posts: %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

func (h *HTTPBlob) Save(ctx context.Context, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.URL, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := h.client().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("failed to save posts: %s", resp.Status)
	}
	return nil
}

// KVRestBlob talks to a Vercel KV (Upstash) REST endpoint.
type KVRestBlob struct {
	URL    string
	Token  string
	Key    string
	Client *http.Client
}

func (k *KVRestBlob) client() *http.Client {
	if k.Client != nil {
		return k.Client
	}
	return http.DefaultClient
}

func (k *KVRestBlob) do(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+k.Token)
	return k.client().Do(req)
}

func (k *KVRestBlob) Load(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(k.URL, "/")+"/get/"+k.Key, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Cache-Control", "no-store")
	resp, err := k.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch from KV: %s", resp.Status)
	}
	var body struct {
		Result *string `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode KV response: %w", err)
	}
	if body.Result == nil {
		return nil, nil
	}
	return []byte(*body.Result), nil
}

func (k *KVRestBlob) Save(ctx context.Context, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(k.URL, "/")+"/set/"+k.Key, bytes.NewReader(data))
	if err != nil {
		return err
	}
	resp, err := k.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("failed to save data to KV store: %d %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}
