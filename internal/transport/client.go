package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"sort"
	"strings"
	"time"

	"cafedesk/internal/nav"
)

// Session is what the default chain needs from the session store.
type Session interface {
	TokenSource
	Deauthenticator
}

// Client sends requests relative to a base URL through a middleware chain.
// It does not retry and does not log.
type Client struct {
	base    string
	doer    Doer
	Timeout time.Duration
}

func New(baseURL string, d Doer) *Client {
	return &Client{base: strings.TrimRight(baseURL, "/"), doer: d}
}

// ForSession builds the standard chain: request id, bearer credential,
// 401 interception.
func ForSession(baseURL string, hc *http.Client, s Session, fallback nav.Navigator) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return New(baseURL, Chain(hc, RequestID(), Bearer(s), Unauthorized(s, fallback)))
}

func (c *Client) BaseURL() string { return c.base }

type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Body encodes a request payload.
type Body interface {
	Encode() (io.Reader, string, error)
}

type jsonBody struct{ v any }

func JSON(v any) Body { return jsonBody{v} }

func (b jsonBody) Encode() (io.Reader, string, error) {
	buf, err := json.Marshal(b.v)
	if err != nil {
		return nil, "", err
	}
	return bytes.NewReader(buf), "application/json", nil
}

// FilePart is one file in a multipart body.
type FilePart struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

type multipartBody struct {
	fields map[string]string
	files  []FilePart
}

// Multipart builds a multipart/form-data body. Fields are written in key order.
func Multipart(fields map[string]string, files ...FilePart) Body {
	return multipartBody{fields: fields, files: files}
}

func (b multipartBody) Encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	keys := make([]string, 0, len(b.fields))
	for k := range b.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := w.WriteField(k, b.fields[k]); err != nil {
			return nil, "", err
		}
	}
	for _, f := range b.files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.Field, f.Filename))
		ct := f.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

type Option func(*http.Request)

func WithQuery(q url.Values) Option {
	return func(r *http.Request) { r.URL.RawQuery = q.Encode() }
}

func WithHeader(k, v string) Option {
	return func(r *http.Request) { r.Header.Set(k, v) }
}

// Send performs one call. Any non-2xx status comes back as *Error.
func (c *Client) Send(ctx context.Context, method, path string, body Body, opts ...Option) (*Response, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	var rd io.Reader
	var ct string
	if body != nil {
		var err error
		if rd, ct, err = body.Encode(); err != nil {
			return nil, fmt.Errorf("%s %s: encode body: %w", method, path, err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if ct != "" {
		req.Header.Set("Content-Type", ct)
	}
	for _, o := range opts {
		o(req)
	}

	resp, err := c.doer.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: read body: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newError(method, path, resp.StatusCode, data)
	}
	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: data}, nil
}
