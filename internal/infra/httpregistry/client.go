package httpregistry

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/domain"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/infra/httpclient"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/infra/logger"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/infra/xmlcodec"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/ports"
)

// Client reads one entry type from a remote registry façade.
type Client[T any] struct {
	base *url.URL
	typ  string
	exec *httpclient.Executor
}

var _ ports.RegistryReader[domain.License] = (*Client[domain.License])(nil)

// NewClient returns a client for entries of type typ served at baseURL.
// A nil executor gets the default one.
func NewClient[T any](baseURL, typ string, exec *httpclient.Executor) (*Client[T], error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
	if err != nil || u.Scheme == "" || u.Host == "" {
		if err == nil {
			err = fmt.Errorf("url must be absolute: %w", domain.ErrInvalidConfig)
		}
		return nil, &domain.OpError{Op: "httpregistry.client", Kind: domain.KindInvalidConfig, Path: baseURL, Err: err}
	}
	if exec == nil {
		exec = httpclient.NewExecutor()
	}
	return &Client[T]{base: u, typ: typ, exec: exec}, nil
}

func (c *Client[T]) Retrieve(ctx context.Context, id string) (domain.RegistryEntry[T], bool, error) {
	ref := &url.URL{Path: "registry/entry/" + url.PathEscape(id)}
	resp, err := c.get(ctx, c.base.ResolveReference(ref).String(), nil)
	if err != nil {
		return domain.RegistryEntry[T]{}, false, err
	}
	switch resp.Status {
	case http.StatusOK:
	case http.StatusNotFound:
		return domain.RegistryEntry[T]{}, false, nil
	default:
		return domain.RegistryEntry[T]{}, false, responseError("httpregistry.retrieve", id, resp)
	}

	e, err := xmlcodec.DecodeEntry[T](bytes.NewReader(resp.BodyBytes))
	if err != nil {
		return domain.RegistryEntry[T]{}, false, &domain.OpError{Op: "httpregistry.retrieve", Kind: domain.KindExecution, Path: id, Err: err}
	}
	// the id may belong to a registry of another type on the same server
	if c.typ != "" && e.Type != c.typ {
		return domain.RegistryEntry[T]{}, false, nil
	}
	return e, true, nil
}

func (c *Client[T]) Lookup(ctx context.Context, keys ...string) ([]domain.RegistryEntry[T], error) {
	const op = "httpregistry.lookup"

	q := url.Values{}
	for _, k := range keys {
		q.Add("key", k)
	}
	if c.typ != "" {
		q.Set("type", c.typ)
	}
	endpoint := c.base.ResolveReference(&url.URL{Path: "registry/entries"})
	resp, err := c.get(ctx, endpoint.String(), q)
	if err != nil {
		return nil, err
	}

	switch resp.Status {
	case http.StatusNotFound:
		return nil, nil
	case http.StatusOK:
		e, err := xmlcodec.DecodeEntry[T](bytes.NewReader(resp.BodyBytes))
		if err != nil {
			return nil, &domain.OpError{Op: op, Kind: domain.KindExecution, Err: err}
		}
		return []domain.RegistryEntry[T]{e}, nil
	case http.StatusMultipleChoices:
		refs, err := xmlcodec.Decode[xmlcodec.EntryRefs](bytes.NewReader(resp.BodyBytes))
		if err != nil {
			return nil, &domain.OpError{Op: op, Kind: domain.KindExecution, Err: err}
		}
		out := make([]domain.RegistryEntry[T], 0, len(refs.Refs))
		for _, ref := range refs.Refs {
			e, ok, err := c.Retrieve(ctx, ref.ID)
			if err != nil {
				return nil, err
			}
			if !ok {
				// removed between the lookup and the fetch
				logger.L().Debug("registry.client.ref_gone", "id", ref.ID, "href", ref.Href)
				continue
			}
			out = append(out, e)
		}
		domain.SortEntries(out)
		return out, nil
	default:
		return nil, responseError(op, strings.Join(keys, ","), resp)
	}
}

// Entries is a lookup with no keys.
func (c *Client[T]) Entries(ctx context.Context) ([]domain.RegistryEntry[T], error) {
	return c.Lookup(ctx)
}

func (c *Client[T]) Types(ctx context.Context) ([]string, error) {
	endpoint := c.base.ResolveReference(&url.URL{Path: "registry/types"})
	resp, err := c.get(ctx, endpoint.String(), nil)
	if err != nil {
		return nil, err
	}
	if resp.Status != http.StatusOK {
		return nil, responseError("httpregistry.types", "", resp)
	}
	ts, err := xmlcodec.Decode[xmlcodec.Types](bytes.NewReader(resp.BodyBytes))
	if err != nil {
		return nil, &domain.OpError{Op: "httpregistry.types", Kind: domain.KindExecution, Err: err}
	}
	return ts.Types, nil
}

func (c *Client[T]) get(ctx context.Context, u string, q url.Values) (httpclient.ResponseData, error) {
	req, err := httpclient.BuildRequest(ctx, httpclient.RequestSpec{
		URL:     u,
		Query:   q,
		Headers: map[string]string{"Accept": "application/xml"},
	})
	if err != nil {
		return httpclient.ResponseData{}, err
	}
	resp, err := c.exec.Do(ctx, req)
	if err != nil {
		return resp, &domain.OpError{Op: "httpregistry.get", Kind: domain.KindExecution, Path: u, Err: err}
	}
	return resp, nil
}

func responseError(op, path string, resp httpclient.ResponseData) error {
	kind := domain.KindExecution
	switch resp.Status {
	case http.StatusNotFound:
		kind = domain.KindNotFound
	case http.StatusBadRequest:
		kind = domain.KindInvalidArgument
	}
	if e, err := xmlcodec.Decode[xmlcodec.Error](bytes.NewReader(resp.BodyBytes)); err == nil && e.Code != 0 {
		return &domain.OpError{Op: op, Kind: kind, Path: path, Err: e}
	}
	return &domain.OpError{Op: op, Kind: kind, Path: path, Err: fmt.Errorf("unexpected status %d", resp.Status)}
}
