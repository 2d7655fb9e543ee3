package media

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const imgbbEndpoint = "https://api.imgbb.com/1/upload"

// ImgBB uploads images to imgbb.com. The public API has no delete call,
// so Delete is a no-op and uploaded images outlive their posts.
type ImgBB struct {
	APIKey   string
	Endpoint string
	Client   *http.Client
}

type imgbbResponse struct {
	Success bool `json:"success"`
	Data    struct {
		URL string `json:"url"`
	} `json:"data"`
}

func (i *ImgBB) Put(ctx context.Context, name, contentType string, data []byte) (string, error) {
	if i.APIKey == "" {
		return "", fmt.Errorf("imgbb: api key not configured")
	}
	endpoint := i.Endpoint
	if endpoint == "" {
		endpoint = imgbbEndpoint
	}
	form := url.Values{}
	form.Set("image", base64.StdEncoding.EncodeToString(data))
	if name != "" {
		form.Set("name", name)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"?key="+url.QueryEscape(i.APIKey), strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := i.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("imgbb upload: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("imgbb upload failed: %d %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var out imgbbResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("imgbb response: %w", err)
	}
	if out.Data.URL == "" {
		return "", fmt.Errorf("imgbb upload failed: invalid response")
	}
	return out.Data.URL, nil
}

func (i *ImgBB) Delete(context.Context, string) error {
	return nil
}

func (i *ImgBB) Owns(ref string) bool {
	u, err := url.Parse(ref)
	if err != nil {
		return false
	}
	return u.Host == "i.ibb.co" || strings.HasSuffix(u.Host, ".ibb.co")
}

func (i *ImgBB) Accepts(contentType string) bool {
	return strings.HasPrefix(contentType, "image/")
}
