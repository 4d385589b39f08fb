// Package httpregistry exposes registries over HTTP using the XML vocabulary
// from xmlcodec, and reads them back through Client.
package httpregistry

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/domain"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/infra/logger"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/infra/xmlcodec"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/ports"
)

const contentTypeXML = "application/xml; charset=utf-8"

// match is one lookup hit, able to render itself.
type match struct {
	id     string
	typ    string
	encode func(io.Writer) error
}

// backend erases the entry type of a mounted registry.
type backend interface {
	retrieve(ctx context.Context, id string) (match, bool, error)
	lookup(ctx context.Context, keys []string) ([]match, error)
	types(ctx context.Context) ([]string, error)
	serves(typ string) bool
}

type mounted[T any] struct {
	typ string
	reg ports.RegistryReader[T]
}

func toMatch[T any](e domain.RegistryEntry[T]) match {
	return match{
		id:     e.ID,
		typ:    e.Type,
		encode: func(w io.Writer) error { return xmlcodec.EncodeEntry(w, e) },
	}
}

func (m mounted[T]) retrieve(ctx context.Context, id string) (match, bool, error) {
	e, ok, err := m.reg.Retrieve(ctx, id)
	if err != nil || !ok {
		return match{}, false, err
	}
	return toMatch(e), true, nil
}

func (m mounted[T]) lookup(ctx context.Context, keys []string) ([]match, error) {
	entries, err := m.reg.Lookup(ctx, keys...)
	if err != nil {
		return nil, err
	}
	out := make([]match, 0, len(entries))
	for _, e := range entries {
		out = append(out, toMatch(e))
	}
	return out, nil
}

func (m mounted[T]) types(ctx context.Context) ([]string, error) {
	return m.reg.Types(ctx)
}

func (m mounted[T]) serves(typ string) bool {
	return typ == "" || typ == m.typ
}

// Server is the read-only registry façade.
type Server struct {
	backends []backend
	mux      *http.ServeMux
}

// NewServer returns a server with no registries mounted.
func NewServer() *Server {
	s := &Server{mux: http.NewServeMux()}
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /registry/entry/{id}", s.handleEntry)
	s.mux.HandleFunc("GET /registry/entry", s.handleEntry)
	s.mux.HandleFunc("GET /registry/entries", s.handleEntries)
	s.mux.HandleFunc("GET /registry/types", s.handleTypes)
	return s
}

// Mount adds reg under entry type typ. Lookups filtered by type only consult
// registries mounted under that type.
func Mount[T any](s *Server, typ string, reg ports.RegistryReader[T]) {
	s.backends = append(s.backends, mounted[T]{typ: typ, reg: reg})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(rec, r)
	logger.L().Info("registry.http",
		"method", r.Method,
		"path", r.URL.Path,
		"query", r.URL.RawQuery,
		"status", rec.status,
		"ms", time.Since(start).Milliseconds(),
	)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	logger.L().Info("registry.serve.start", "addr", addr)
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return &domain.OpError{Op: "httpregistry.serve", Kind: domain.KindExecution, Path: addr, Err: err}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.L().Info("registry.serve.stop", "addr", addr)
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok\n")
}

func (s *Server) handleEntry(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		id = r.URL.Query().Get("id")
	}
	if strings.TrimSpace(id) == "" {
		writeError(w, http.StatusBadRequest, "missing entry id")
		return
	}

	for _, b := range s.backends {
		m, ok, err := b.retrieve(r.Context(), id)
		if err != nil {
			writeErr(w, err)
			return
		}
		if ok {
			writeMatch(w, http.StatusOK, m)
			return
		}
	}
	writeError(w, http.StatusNotFound, fmt.Sprintf("no entry with id %q", id))
}

func (s *Server) handleEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	keys := q["key"]
	typ := q.Get("type")

	var matches []match
	for _, b := range s.backends {
		if !b.serves(typ) {
			continue
		}
		found, err := b.lookup(r.Context(), keys)
		if err != nil {
			writeErr(w, err)
			return
		}
		for _, m := range found {
			if typ != "" && m.typ != typ {
				continue
			}
			matches = append(matches, m)
		}
	}
	logger.L().Debug("registry.lookup", "keys", keys, "type", typ, "matches", len(matches))

	switch len(matches) {
	case 0:
		writeError(w, http.StatusNotFound, "no entry matches the supplied keys")
	case 1:
		writeMatch(w, http.StatusOK, matches[0])
	default:
		sort.Slice(matches, func(i, j int) bool { return matches[i].id < matches[j].id })
		refs := xmlcodec.EntryRefs{Refs: make([]xmlcodec.EntryRef, 0, len(matches))}
		for _, m := range matches {
			refs.Refs = append(refs.Refs, xmlcodec.EntryRef{
				ID:   m.id,
				Type: m.typ,
				Href: entryURL(r, m.id),
			})
		}
		writeDoc(w, http.StatusMultipleChoices, refs)
	}
}

func (s *Server) handleTypes(w http.ResponseWriter, r *http.Request) {
	var all []string
	for _, b := range s.backends {
		ts, err := b.types(r.Context())
		if err != nil {
			writeErr(w, err)
			return
		}
		all = append(all, ts...)
	}
	sort.Strings(all)
	writeDoc(w, http.StatusOK, xmlcodec.Types{Types: slices.Compact(all)})
}

func entryURL(r *http.Request, id string) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	u := url.URL{Scheme: scheme, Host: r.Host, Path: "/registry/entry/" + id}
	return u.String()
}

func writeMatch(w http.ResponseWriter, status int, m match) {
	var buf bytes.Buffer
	if err := m.encode(&buf); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", contentTypeXML)
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func writeDoc(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := xmlcodec.Encode(&buf, v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentTypeXML)
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeDoc(w, status, xmlcodec.Error{Code: status, Message: msg})
}

// writeErr maps an error kind to a status code.
func writeErr(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch domain.KindOf(err) {
	case domain.KindNotFound:
		status = http.StatusNotFound
	case domain.KindInvalidArgument:
		status = http.StatusBadRequest
	}
	logger.L().Warn("registry.http.error", "status", status, "err", err)
	writeError(w, status, err.Error())
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
