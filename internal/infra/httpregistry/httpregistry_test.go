package httpregistry

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/domain"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/infra/memregistry"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/infra/xmlcodec"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx := context.Background()

	licenses := memregistry.New[domain.License]()
	for _, e := range []domain.RegistryEntry[domain.License]{
		{ID: "lic-1", Type: domain.TypeLicense, Keys: []string{"CC-BY-4.0", "open"}, Entry: domain.License{Name: "Attribution 4.0", Tag: "CC-BY-4.0"}},
		{ID: "lic-2", Type: domain.TypeLicense, Keys: []string{"CC0-1.0", "open"}, Entry: domain.License{Name: "Public Domain", Tag: "CC0-1.0"}},
	} {
		_, err := licenses.Put(ctx, e)
		require.NoError(t, err)
	}

	schemes := memregistry.New[domain.MetadataScheme]()
	_, err := schemes.Put(ctx, domain.RegistryEntry[domain.MetadataScheme]{
		ID: "sch-1", Type: domain.TypeMetadataScheme, Keys: []string{"dc", "open"},
		Entry: domain.MetadataScheme{Name: "Dublin Core", SchemaURL: "http://purl.org/dc/elements/1.1/"},
	})
	require.NoError(t, err)

	s := NewServer()
	Mount[domain.License](s, domain.TypeLicense, licenses)
	Mount[domain.MetadataScheme](s, domain.TypeMetadataScheme, schemes)

	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestServer_Entry(t *testing.T) {
	ts := newTestServer(t)

	status, body := get(t, ts.URL+"/registry/entry/lic-1")
	require.Equal(t, http.StatusOK, status)
	e, err := xmlcodec.DecodeEntry[domain.License](strings.NewReader(body))
	require.NoError(t, err)
	require.Equal(t, "CC-BY-4.0", e.Entry.Tag)
	require.Equal(t, domain.TypeLicense, e.Type)

	status, body = get(t, ts.URL+"/registry/entry?id=sch-1")
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, body, `type="dataconservancy.types:MetadataScheme"`)

	status, body = get(t, ts.URL+"/registry/entry/nope")
	require.Equal(t, http.StatusNotFound, status)
	xerr, err := xmlcodec.Decode[xmlcodec.Error](strings.NewReader(body))
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, xerr.Code)

	status, _ = get(t, ts.URL+"/registry/entry")
	require.Equal(t, http.StatusBadRequest, status)
}

func TestServer_Entries(t *testing.T) {
	ts := newTestServer(t)

	status, _ := get(t, ts.URL+"/registry/entries?key=missing")
	require.Equal(t, http.StatusNotFound, status)

	status, body := get(t, ts.URL+"/registry/entries?key=open&key=CC0-1.0")
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, body, `id="lic-2"`)

	status, body = get(t, ts.URL+"/registry/entries?key=open")
	require.Equal(t, http.StatusMultipleChoices, status)
	refs, err := xmlcodec.Decode[xmlcodec.EntryRefs](strings.NewReader(body))
	require.NoError(t, err)
	require.Len(t, refs.Refs, 3)
	require.Equal(t, "lic-1", refs.Refs[0].ID)
	require.Equal(t, ts.URL+"/registry/entry/lic-1", refs.Refs[0].Href)

	status, body = get(t, ts.URL+"/registry/entries?key=open&type="+domain.TypeMetadataScheme)
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, body, `id="sch-1"`)
}

func TestServer_TypesAndHealth(t *testing.T) {
	ts := newTestServer(t)

	status, body := get(t, ts.URL+"/registry/types")
	require.Equal(t, http.StatusOK, status)
	types, err := xmlcodec.Decode[xmlcodec.Types](strings.NewReader(body))
	require.NoError(t, err)
	require.Equal(t, []string{domain.TypeLicense, domain.TypeMetadataScheme}, types.Types)

	status, body = get(t, ts.URL+"/healthz")
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "ok\n", body)
}

type failingReader struct {
	*memregistry.Registry[domain.License]
}

func (failingReader) Lookup(context.Context, ...string) ([]domain.RegistryEntry[domain.License], error) {
	return nil, &domain.OpError{Op: "test.lookup", Kind: domain.KindInvalidArgument, Err: errors.New("bad key")}
}

func TestServer_MapsErrorKinds(t *testing.T) {
	s := NewServer()
	Mount[domain.License](s, domain.TypeLicense, failingReader{Registry: memregistry.New[domain.License]()})
	ts := httptest.NewServer(s)
	defer ts.Close()

	status, body := get(t, ts.URL+"/registry/entries?key=x")
	require.Equal(t, http.StatusBadRequest, status)
	require.Contains(t, body, "bad key")
}

func TestClient(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	c, err := NewClient[domain.License](ts.URL, domain.TypeLicense, nil)
	require.NoError(t, err)

	e, ok, err := c.Retrieve(ctx, "lic-2")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Public Domain", e.Entry.Name)

	_, ok, err = c.Retrieve(ctx, "missing")
	require.NoError(t, err)
	require.False(t, ok)

	// same server, other type
	_, ok, err = c.Retrieve(ctx, "sch-1")
	require.NoError(t, err)
	require.False(t, ok)

	one, err := c.Lookup(ctx, "CC-BY-4.0")
	require.NoError(t, err)
	require.Len(t, one, 1)
	require.Equal(t, "lic-1", one[0].ID)

	many, err := c.Lookup(ctx, "open")
	require.NoError(t, err)
	require.Len(t, many, 2)
	require.Equal(t, "lic-1", many[0].ID)
	require.Equal(t, "lic-2", many[1].ID)

	none, err := c.Lookup(ctx, "nothing")
	require.NoError(t, err)
	require.Empty(t, none)

	all, err := c.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	types, err := c.Types(ctx)
	require.NoError(t, err)
	require.Contains(t, types, domain.TypeLicense)
}

func TestNewClient_RejectsRelativeURL(t *testing.T) {
	_, err := NewClient[domain.License]("registry.local", domain.TypeLicense, nil)
	require.True(t, domain.IsKind(err, domain.KindInvalidConfig), "got %v", err)
}
