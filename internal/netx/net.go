// Package netx moves attachment bytes to and from presigned object-storage URLs.
package netx

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultTimeout = 2 * time.Minute

type Transfer struct {
	client *resty.Client
}

func NewTransfer() *Transfer {
	return &Transfer{client: resty.New().SetTimeout(defaultTimeout)}
}

// Upload sends body to a presigned URL with the given method (normally PUT).
func (t *Transfer) Upload(ctx context.Context, method, url, contentType string, body []byte) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	resp, err := t.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", contentType).
		SetBody(body).
		Execute(method, url)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("upload failed: %s; body: %s", resp.Status(), resp.String())
	}
	return nil
}

// Download fetches the object behind a presigned GET URL.
func (t *Transfer) Download(ctx context.Context, url string) ([]byte, error) {
	resp, err := t.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("download failed: %s", resp.Status())
	}
	return resp.Body(), nil
}
