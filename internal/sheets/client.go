// Package sheets is a thin client for the Google Sheets v4 values API,
// exposing exactly the two capabilities the core needs: fetching a
// rectangular range and writing a single cell. Reads authenticate with an API
// key; writes use a bearer token from an injected TokenSource.
package sheets

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.uber.org/zap"
)

const defaultBaseURL = "https://sheets.googleapis.com"

// TokenSource supplies the bearer token for the authenticated write path.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource returning a fixed token, e.g. one minted out
// of band for a service account.
type StaticToken string

// Token returns the fixed token.
func (t StaticToken) Token(context.Context) (string, error) {
	if t == "" {
		return "", errors.New("no write token configured")
	}
	return string(t), nil
}

// Config holds the client configuration.
type Config struct {
	// SpreadsheetID identifies the backing spreadsheet document.
	SpreadsheetID string
	// APIKey authenticates read-only values.get calls.
	APIKey string
	// Tokens supplies credentials for values.update calls. Optional when the
	// client is only used for reads.
	Tokens TokenSource
	// BaseURL overrides the API endpoint, for tests. Defaults to the public
	// Sheets API host.
	BaseURL string
	// HTTPClient overrides the transport. Defaults to a client with a 15s
	// timeout.
	HTTPClient *http.Client
}

// Client talks to one spreadsheet.
type Client struct {
	cfg  Config
	http *http.Client
	lg   *zap.Logger
}

// New creates a Client for the configured spreadsheet.
func New(cfg Config, lg *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		cfg:  cfg,
		http: httpClient,
		lg:   lg,
	}
}

// FetchRange reads a rectangular range and returns its rows. Rows come back
// exactly as the API reports them, which may be ragged: trailing empty cells
// are omitted by the backend and callers must treat them as empty strings.
func (c *Client) FetchRange(ctx context.Context, sheetRange string) ([][]string, error) {
	u := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s?key=%s",
		c.cfg.BaseURL,
		url.PathEscape(c.cfg.SpreadsheetID),
		url.PathEscape(sheetRange),
		url.QueryEscape(c.cfg.APIKey),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}

	body, err := c.do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "get range %q", sheetRange)
	}

	rows, err := decodeValues(body)
	if err != nil {
		return nil, errors.Wrapf(err, "decode range %q", sheetRange)
	}

	c.lg.Debug("Fetched range", zap.String("range", sheetRange), zap.Int("rows", len(rows)))
	return rows, nil
}

// WriteCell updates a single cell with a raw (uninterpreted) value.
func (c *Client) WriteCell(ctx context.Context, cellRange, value string) error {
	if c.cfg.Tokens == nil {
		return errors.New("write path not configured")
	}
	token, err := c.cfg.Tokens.Token(ctx)
	if err != nil {
		return errors.Wrap(err, "get write token")
	}

	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("values")
	e.ArrStart()
	e.ArrStart()
	e.Str(value)
	e.ArrEnd()
	e.ArrEnd()
	e.ObjEnd()

	u := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s?valueInputOption=RAW",
		c.cfg.BaseURL,
		url.PathEscape(c.cfg.SpreadsheetID),
		url.PathEscape(cellRange),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u, bytes.NewReader(e.Bytes()))
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	if _, err := c.do(req); err != nil {
		return errors.Wrapf(err, "update cell %q", cellRange)
	}

	c.lg.Debug("Wrote cell", zap.String("range", cellRange), zap.String("value", value))
	return nil
}

// do executes the request and returns the response body, converting non-2xx
// responses into errors carrying the API's error message.
func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, errors.Wrap(err, "read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.Errorf("sheets api status %d: %s", resp.StatusCode, apiErrorMessage(body, resp.Status))
	}
	return body, nil
}

// apiErrorMessage extracts error.message from an API error body, falling back
// to the HTTP status line.
func apiErrorMessage(body []byte, fallback string) string {
	msg := fallback
	d := jx.DecodeBytes(body)
	_ = d.Obj(func(d *jx.Decoder, key string) error {
		if key != "error" {
			return d.Skip()
		}
		return d.Obj(func(d *jx.Decoder, key string) error {
			if key != "message" {
				return d.Skip()
			}
			s, err := d.Str()
			if err != nil {
				return err
			}
			msg = s
			return nil
		})
	})
	return msg
}

// decodeValues parses a values.get response into rows of cell strings.
// Non-string cells (numbers, booleans) are rendered to their literal text so
// the row parsers see one uniform representation.
func decodeValues(body []byte) ([][]string, error) {
	var rows [][]string
	d := jx.DecodeBytes(body)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "values" {
			return d.Skip()
		}
		return d.Arr(func(d *jx.Decoder) error {
			var row []string
			if err := d.Arr(func(d *jx.Decoder) error {
				cell, err := decodeCell(d)
				if err != nil {
					return err
				}
				row = append(row, cell)
				return nil
			}); err != nil {
				return err
			}
			rows = append(rows, row)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func decodeCell(d *jx.Decoder) (string, error) {
	switch d.Next() {
	case jx.String:
		return d.Str()
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return "", err
		}
		return string(n), nil
	case jx.Bool:
		b, err := d.Bool()
		if err != nil {
			return "", err
		}
		return strconv.FormatBool(b), nil
	case jx.Null:
		return "", d.Null()
	default:
		return "", d.Skip()
	}
}
