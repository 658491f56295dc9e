package supabase

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

const (
	contentType     = "application/json"
	contentEncoding = "gzip"
	preferReturn    = "return=representation"
)

type Row map[string]any

// getRows makes a GET request against a table and returns the raw rows.
func (c *Client) getRows(ctx context.Context, table string, q url.Values) ([]Row, error) {
	var rows []Row
	if err := c.do(ctx, http.MethodGet, c.restURL(table), q, nil, &rows); err != nil {
		return nil, err
	}

	c.logger.Debug("got rows from backend", zap.String("table", table), zap.Int("rows", len(rows)))

	return rows, nil
}

func (c *Client) postRows(ctx context.Context, table string, body any) ([]Row, error) {
	var rows []Row
	if err := c.do(ctx, http.MethodPost, c.restURL(table), nil, body, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) deleteRows(ctx context.Context, table string, q url.Values) error {
	return c.do(ctx, http.MethodDelete, c.restURL(table), q, nil, nil)
}

func (c *Client) restURL(table string) string {
	return fmt.Sprintf("%s%s/%s", c.URL, restPath, table)
}

func (c *Client) do(ctx context.Context, method, rawURL string, q url.Values, body any, target any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return err
	}

	req = c.setHeaders(req)
	if body != nil {
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Prefer", preferReturn)
	}
	if q != nil {
		req.URL.RawQuery = q.Encode()
	}

	resp, err := c.request(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := readBody(resp)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseAPIError(resp.StatusCode, data)
	}

	if target == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func (c *Client) request(req *http.Request) (*http.Response, error) {
	c.logger.Debug("make request", zap.String("method", req.Method), zap.String("url", req.URL.String()))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}

	return resp, nil
}

func (c *Client) setHeaders(req *http.Request) *http.Request {
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.bearer()))
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", contentType)
	req.Header.Set("Accept-Encoding", contentEncoding)
	req.Header.Set("x-application-name", applicationName)

	return req
}

func readBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	return io.ReadAll(reader)
}

// decodeRows maps raw rows onto target using the json tags of its fields.
func decodeRows(rows any, target any) error {
	cfg := &mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "json",
		Squash:           true,
		WeaklyTypedInput: true,
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return err
	}
	if err := decoder.Decode(rows); err != nil {
		return fmt.Errorf("decode rows: %w", err)
	}
	return nil
}

func eq(value string) string {
	return "eq." + value
}
