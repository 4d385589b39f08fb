// Package dropbox is a small Dropbox API v2 client implementing
// ports.RemoteStorage.
package dropbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/domain"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/infra/httpclient"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/infra/logger"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/ports"
)

// Client talks to the RPC endpoints under APIURL and the content endpoints
// under ContentURL.
type Client struct {
	token      string
	apiURL     string
	contentURL string
	exec       *httpclient.Executor
}

var _ ports.RemoteStorage = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithExecutor replaces the default executor.
func WithExecutor(e *httpclient.Executor) Option {
	return func(c *Client) {
		if e != nil {
			c.exec = e
		}
	}
}

// New builds a client from cfg. An empty token is a configuration error.
func New(cfg domain.DropboxConfig, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, &domain.OpError{
			Op:   "dropbox.new",
			Kind: domain.KindInvalidConfig,
			Err:  fmt.Errorf("dropbox.token is required: %w", domain.ErrInvalidConfig),
		}
	}
	def := domain.DefaultConfig().Dropbox
	c := &Client{
		token:      cfg.Token,
		apiURL:     firstNonEmpty(cfg.APIURL, def.APIURL),
		contentURL: firstNonEmpty(cfg.ContentURL, def.ContentURL),
		exec:       httpclient.NewExecutor(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.apiURL = strings.TrimRight(c.apiURL, "/")
	c.contentURL = strings.TrimRight(c.contentURL, "/")
	return c, nil
}

// metadata is the subset of the Dropbox file/folder metadata we read.
type metadata struct {
	Tag            string    `json:".tag"`
	Name           string    `json:"name"`
	PathDisplay    string    `json:"path_display"`
	PathLower      string    `json:"path_lower"`
	Size           int64     `json:"size"`
	ServerModified time.Time `json:"server_modified"`
	Rev            string    `json:"rev"`
	ContentHash    string    `json:"content_hash"`
}

func (m metadata) entry() ports.RemoteEntry {
	p := m.PathDisplay
	if p == "" {
		p = m.PathLower
	}
	return ports.RemoteEntry{
		Name:     m.Name,
		Path:     p,
		IsFolder: m.Tag == "folder",
		Size:     m.Size,
		Modified: m.ServerModified,
		Rev:      m.Rev,
		Hash:     m.ContentHash,
	}
}

type listFolderResult struct {
	Entries []metadata `json:"entries"`
	Cursor  string     `json:"cursor"`
	HasMore bool       `json:"has_more"`
}

// apiError is the body Dropbox returns with 409 and most 4xx responses.
type apiError struct {
	Summary string `json:"error_summary"`
}

// List returns the direct children of path, following cursors until the
// listing is complete.
func (c *Client) List(ctx context.Context, path string) ([]ports.RemoteEntry, error) {
	const op = "dropbox.list"

	var res listFolderResult
	if err := c.rpc(ctx, op, "files/list_folder", map[string]any{"path": apiPath(path)}, &res); err != nil {
		return nil, err
	}
	out := make([]ports.RemoteEntry, 0, len(res.Entries))
	for {
		for _, m := range res.Entries {
			out = append(out, m.entry())
		}
		if !res.HasMore {
			break
		}
		cursor := res.Cursor
		res = listFolderResult{}
		if err := c.rpc(ctx, op, "files/list_folder/continue", map[string]any{"cursor": cursor}, &res); err != nil {
			return nil, err
		}
	}
	logger.L().Debug("dropbox.list", "path", path, "entries", len(out))
	return out, nil
}

// Stat returns metadata for a single file or folder.
func (c *Client) Stat(ctx context.Context, path string) (ports.RemoteEntry, error) {
	var m metadata
	if err := c.rpc(ctx, "dropbox.stat", "files/get_metadata", map[string]any{"path": apiPath(path)}, &m); err != nil {
		return ports.RemoteEntry{}, err
	}
	return m.entry(), nil
}

// Download streams the file at path. The caller closes the reader.
func (c *Client) Download(ctx context.Context, path string) (io.ReadCloser, ports.RemoteEntry, error) {
	const op = "dropbox.download"

	arg, err := headerArg(map[string]any{"path": apiPath(path)})
	if err != nil {
		return nil, ports.RemoteEntry{}, &domain.OpError{Op: op, Kind: domain.KindInvalidArgument, Path: path, Err: err}
	}
	req, err := httpclient.BuildRequest(ctx, httpclient.RequestSpec{
		Method: http.MethodPost,
		URL:    c.contentURL + "/files/download",
		Headers: map[string]string{
			"Authorization":   "Bearer " + c.token,
			"Dropbox-API-Arg": arg,
		},
	})
	if err != nil {
		return nil, ports.RemoteEntry{}, err
	}

	resp, err := c.exec.Stream(ctx, req)
	if err != nil {
		return nil, ports.RemoteEntry{}, &domain.OpError{Op: op, Kind: domain.KindExecution, Path: path, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return nil, ports.RemoteEntry{}, statusError(op, path, resp.StatusCode, body)
	}

	var m metadata
	if raw := resp.Header.Get("Dropbox-API-Result"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			resp.Body.Close()
			return nil, ports.RemoteEntry{}, &domain.OpError{Op: op, Kind: domain.KindExecution, Path: path, Err: err}
		}
	}
	return resp.Body, m.entry(), nil
}

// Upload writes r to path, overwriting any existing file.
func (c *Client) Upload(ctx context.Context, path string, r io.Reader) (ports.RemoteEntry, error) {
	const op = "dropbox.upload"

	arg, err := headerArg(map[string]any{
		"path":       apiPath(path),
		"mode":       "overwrite",
		"autorename": false,
		"mute":       true,
	})
	if err != nil {
		return ports.RemoteEntry{}, &domain.OpError{Op: op, Kind: domain.KindInvalidArgument, Path: path, Err: err}
	}
	req, err := httpclient.BuildRequest(ctx, httpclient.RequestSpec{
		Method:      http.MethodPost,
		URL:         c.contentURL + "/files/upload",
		Body:        r,
		ContentType: "application/octet-stream",
		Headers: map[string]string{
			"Authorization":   "Bearer " + c.token,
			"Dropbox-API-Arg": arg,
		},
	})
	if err != nil {
		return ports.RemoteEntry{}, err
	}

	resp, err := c.exec.Stream(ctx, req)
	if err != nil {
		return ports.RemoteEntry{}, &domain.OpError{Op: op, Kind: domain.KindExecution, Path: path, Err: err}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return ports.RemoteEntry{}, &domain.OpError{Op: op, Kind: domain.KindExecution, Path: path, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return ports.RemoteEntry{}, statusError(op, path, resp.StatusCode, body)
	}

	var m metadata
	if err := json.Unmarshal(body, &m); err != nil {
		return ports.RemoteEntry{}, &domain.OpError{Op: op, Kind: domain.KindExecution, Path: path, Err: err}
	}
	logger.L().Info("dropbox.upload", "path", m.PathDisplay, "size", m.Size, "rev", m.Rev)
	return m.entry(), nil
}

// Delete removes the file or folder at path.
func (c *Client) Delete(ctx context.Context, path string) error {
	var res struct {
		Metadata metadata `json:"metadata"`
	}
	if err := c.rpc(ctx, "dropbox.delete", "files/delete_v2", map[string]any{"path": apiPath(path)}, &res); err != nil {
		return err
	}
	logger.L().Info("dropbox.delete", "path", res.Metadata.PathDisplay)
	return nil
}

// rpc posts a JSON argument to an RPC endpoint and decodes the JSON result.
func (c *Client) rpc(ctx context.Context, op, endpoint string, arg any, out any) error {
	req, err := httpclient.BuildRequest(ctx, httpclient.RequestSpec{
		Method:  http.MethodPost,
		URL:     c.apiURL + "/" + endpoint,
		JSON:    arg,
		Headers: map[string]string{"Authorization": "Bearer " + c.token},
	})
	if err != nil {
		return err
	}
	resp, err := c.exec.Do(ctx, req)
	if err != nil {
		return &domain.OpError{Op: op, Kind: domain.KindExecution, Path: endpoint, Err: err}
	}
	if resp.Status != http.StatusOK {
		return statusError(op, endpoint, resp.Status, resp.BodyBytes)
	}
	if err := json.Unmarshal(resp.BodyBytes, out); err != nil {
		return &domain.OpError{Op: op, Kind: domain.KindExecution, Path: endpoint, Err: err}
	}
	return nil
}

func statusError(op, path string, status int, body []byte) error {
	var ae apiError
	summary := ""
	if json.Unmarshal(body, &ae) == nil {
		summary = ae.Summary
	}
	if summary == "" {
		summary = strings.TrimSpace(string(body))
	}

	kind := domain.KindExecution
	var sentinel error = domain.ErrExecution
	switch {
	case strings.Contains(summary, "not_found"):
		kind, sentinel = domain.KindNotFound, domain.ErrNotFound
	case status == http.StatusBadRequest:
		kind, sentinel = domain.KindInvalidArgument, domain.ErrInvalidArgument
	case status == http.StatusUnauthorized:
		kind, sentinel = domain.KindInvalidConfig, domain.ErrInvalidConfig
	}
	logger.L().Debug("dropbox.error", "op", op, "status", status, "summary", summary)
	return &domain.OpError{Op: op, Kind: kind, Path: path, Err: fmt.Errorf("status %d: %s: %w", status, summary, sentinel)}
}

// apiPath maps the root to "" and makes everything else absolute.
func apiPath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || p == "/" {
		return ""
	}
	if !strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "id:") {
		p = "/" + p
	}
	return strings.TrimRight(p, "/")
}

// headerArg encodes v for the Dropbox-API-Arg header, which must be ASCII.
func headerArg(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	var b bytes.Buffer
	for _, r := range string(raw) {
		if r < utf8.RuneSelf {
			b.WriteRune(r)
			continue
		}
		if r > 0xFFFF {
			hi, lo := utf16.EncodeRune(r)
			fmt.Fprintf(&b, `\u%04x\u%04x`, hi, lo)
			continue
		}
		fmt.Fprintf(&b, `\u%04x`, r)
	}
	return b.String(), nil
}

func firstNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return a
	}
	return b
}
