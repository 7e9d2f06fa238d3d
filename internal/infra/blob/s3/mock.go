package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const metaHeaderPrefix = "X-Amz-Meta-"

// NewMockForTests returns a Store wired to an in-memory fake S3 transport that
// understands Head, Get, Put, Delete and ListObjectsV2.
func NewMockForTests() *Store {
	return newStoreWithTransport("mock-bucket", newMockTransport(0))
}

func newStoreWithTransport(bucket string, rt http.RoundTripper) *Store {
	cfg, _ := config.LoadDefaultConfig(context.Background(),
		config.WithRegion("us-east-1"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("AKIA", "SECRET", "")),
	)
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.HTTPClient = &http.Client{Transport: rt}
		o.UsePathStyle = true
		o.BaseEndpoint = aws.String("https://mock.s3.local")
	})
	return &Store{client: client, bucket: bucket}
}

type mockObject struct {
	body        []byte
	contentType string
	metadata    http.Header
}

// mockTransport is a fake S3 endpoint. A non-zero pageSize truncates list
// responses to exercise continuation tokens.
type mockTransport struct {
	mu       sync.Mutex
	objects  map[string]mockObject
	pageSize int
}

func newMockTransport(pageSize int) *mockTransport {
	return &mockTransport{objects: make(map[string]mockObject), pageSize: pageSize}
}

func (m *mockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	parts := strings.SplitN(strings.TrimPrefix(req.URL.Path, "/"), "/", 2)
	key := ""
	if len(parts) == 2 {
		key = parts[1]
	}
	if req.Method == http.MethodGet && req.URL.Query().Get("list-type") == "2" {
		return m.list(req), nil
	}
	switch req.Method {
	case http.MethodHead:
		obj, ok := m.objects[key]
		if !ok {
			return respond(http.StatusNotFound, nil, http.Header{}), nil
		}
		return respond(http.StatusOK, nil, obj.headers()), nil
	case http.MethodGet:
		obj, ok := m.objects[key]
		if !ok {
			return respond(http.StatusNotFound, nil, http.Header{}), nil
		}
		return respond(http.StatusOK, obj.body, obj.headers()), nil
	case http.MethodPut:
		body, _ := io.ReadAll(req.Body)
		if decoded, ok := decodeAWSChunked(body); ok {
			body = decoded
		}
		if _, exists := m.objects[key]; !exists {
			md := http.Header{}
			for name, values := range req.Header {
				if strings.HasPrefix(http.CanonicalHeaderKey(name), metaHeaderPrefix) {
					md[http.CanonicalHeaderKey(name)] = values
				}
			}
			m.objects[key] = mockObject{body: body, contentType: req.Header.Get("Content-Type"), metadata: md}
		}
		return respond(http.StatusOK, nil, http.Header{"ETag": {`"etag"`}}), nil
	case http.MethodDelete:
		delete(m.objects, key)
		return respond(http.StatusNoContent, nil, http.Header{}), nil
	}
	return respond(http.StatusNotImplemented, nil, http.Header{}), nil
}

func (m *mockTransport) list(req *http.Request) *http.Response {
	q := req.URL.Query()
	prefix := q.Get("prefix")
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	start := 0
	if tok := q.Get("continuation-token"); tok != "" {
		start, _ = strconv.Atoi(tok)
	}
	end := len(keys)
	truncated := false
	if m.pageSize > 0 && start+m.pageSize < len(keys) {
		end = start + m.pageSize
		truncated = true
	}
	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?><ListBucketResult>`)
	fmt.Fprintf(&b, "<IsTruncated>%t</IsTruncated>", truncated)
	if truncated {
		fmt.Fprintf(&b, "<NextContinuationToken>%d</NextContinuationToken>", end)
	}
	for _, k := range keys[start:end] {
		fmt.Fprintf(&b, "<Contents><Key>%s</Key><Size>%d</Size><LastModified>2024-01-01T00:00:00Z</LastModified></Contents>", k, len(m.objects[k].body))
	}
	b.WriteString("</ListBucketResult>")
	return respond(http.StatusOK, []byte(b.String()), http.Header{"Content-Type": {"application/xml"}})
}

func (o mockObject) headers() http.Header {
	h := http.Header{
		"Content-Length": {strconv.Itoa(len(o.body))},
		"Content-Type":   {o.contentType},
		"ETag":           {`"etag"`},
		"Last-Modified":  {time.Now().UTC().Format(http.TimeFormat)},
	}
	for name, values := range o.metadata {
		h[name] = values
	}
	return h
}

func respond(status int, body []byte, header http.Header) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(bytes.NewReader(body)), Header: header}
}

// decodeAWSChunked unwraps a single-chunk aws-chunked payload:
// <hex size>\r\n<body>\r\n0\r\n[trailers].
func decodeAWSChunked(b []byte) ([]byte, bool) {
	head, rest, ok := bytes.Cut(b, []byte("\r\n"))
	if !ok {
		return nil, false
	}
	size, err := strconv.ParseInt(strings.SplitN(string(head), ";", 2)[0], 16, 64)
	if err != nil || size < 0 || int64(len(rest)) < size+2 {
		return nil, false
	}
	body := rest[:size]
	tail := rest[size:]
	if !bytes.HasPrefix(tail, []byte("\r\n0")) {
		return nil, false
	}
	return body, true
}
