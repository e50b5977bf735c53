package s3wire

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"s3wire/internal/sigv4"
	"s3wire/internal/stream"
)

// Get downloads an object into memory.
func (b *Bucket) Get(ctx context.Context, key string) (*Response, error) {
	return b.execute(ctx, &command{method: http.MethodGet, key: key})
}

// GetRange downloads the byte range [start, end] of an object. Pass end < 0
// to read from start to the end of the object.
func (b *Bucket) GetRange(ctx context.Context, key string, start, end int64) (*Response, error) {
	rng := fmt.Sprintf("bytes=%d-", start)
	if end >= 0 {
		rng = fmt.Sprintf("bytes=%d-%d", start, end)
	}
	headers := http.Header{}
	headers.Set("Range", rng)
	return b.execute(ctx, &command{method: http.MethodGet, key: key, headers: headers})
}

// GetToWriter streams an object to w one chunk at a time; memory use is
// bounded to a single chunk regardless of object size. A failure mid-stream
// aborts the download with no resume. The returned Response carries the
// status and headers with a nil body.
func (b *Bucket) GetToWriter(ctx context.Context, key string, w io.Writer) (*Response, error) {
	resp, err := b.executeStream(ctx, &command{method: http.MethodGet, key: key})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	n, err := stream.Copy(w, resp.Body, b.chunkSize)
	b.metrics.AddBytesReceived(n)
	if err != nil {
		return nil, fmt.Errorf("s3wire: download aborted after %d bytes: %w", n, err)
	}
	return &Response{StatusCode: resp.StatusCode, Headers: resp.Headers}, nil
}

// Put uploads an in-memory body. The payload is hashed into the signature
// and a Content-MD5 header is sent, so the request is replayable on retry.
func (b *Bucket) Put(ctx context.Context, key string, data []byte, contentType string) (*Response, error) {
	return b.execute(ctx, &command{
		method:      http.MethodPut,
		key:         key,
		body:        stream.Bytes(data),
		contentType: contentType,
		contentMD5:  true,
	})
}

// PutStream uploads from r. Pass length -1 when unknown; the body is then
// sent with chunked transfer encoding and an UNSIGNED-PAYLOAD hash. The
// reader is one-shot, so a failed attempt is never retried.
func (b *Bucket) PutStream(ctx context.Context, key string, r io.Reader, length int64, contentType string) (*Response, error) {
	return b.execute(ctx, &command{
		method:      http.MethodPut,
		key:         key,
		body:        stream.Reader(r, length),
		contentType: contentType,
	})
}

// PutFile uploads a file. The source seeks back to the start on retry.
func (b *Bucket) PutFile(ctx context.Context, key, path, contentType string) (*Response, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	src, err := stream.File(f)
	if err != nil {
		return nil, err
	}
	return b.execute(ctx, &command{
		method:      http.MethodPut,
		key:         key,
		body:        src,
		contentType: contentType,
	})
}

// Head fetches object metadata without the body. Check StatusCode on the
// result when the bucket passes errors through: metadata fields stay zero
// for non-2xx responses.
func (b *Bucket) Head(ctx context.Context, key string) (*ObjectInfo, error) {
	resp, err := b.execute(ctx, &command{method: http.MethodHead, key: key})
	if err != nil {
		return nil, err
	}
	info := &ObjectInfo{StatusCode: resp.StatusCode}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return info, nil
	}
	info.ContentType = resp.Headers.Get("Content-Type")
	info.ETag = resp.Headers.Get("ETag")
	if v := resp.Headers.Get("Content-Length"); v != "" {
		info.ContentLength, _ = strconv.ParseInt(v, 10, 64)
	}
	if v := resp.Headers.Get("Last-Modified"); v != "" {
		info.LastModified, _ = time.Parse(http.TimeFormat, v)
	}
	return info, nil
}

// Delete removes an object.
func (b *Bucket) Delete(ctx context.Context, key string) (*Response, error) {
	return b.execute(ctx, &command{method: http.MethodDelete, key: key})
}

// Copy performs a server-side copy of srcKey within this bucket to dstKey.
func (b *Bucket) Copy(ctx context.Context, srcKey, dstKey string) (*CopyObjectResult, error) {
	headers := http.Header{}
	headers.Set("x-amz-copy-source", "/"+sigv4.URIEncode(b.name, true)+"/"+sigv4.URIEncode(srcKey, false))
	resp, err := b.execute(ctx, &command{method: http.MethodPut, key: dstKey, headers: headers})
	if err != nil {
		return nil, err
	}
	var result CopyObjectResult
	if err := xml.Unmarshal(resp.Body, &result); err != nil {
		return nil, &ParseError{StatusCode: resp.StatusCode, Body: resp.Body, Err: err}
	}
	return &result, nil
}

// GetTagging fetches the object's tag set.
func (b *Bucket) GetTagging(ctx context.Context, key string) ([]Tag, error) {
	query := url.Values{}
	query.Set("tagging", "")
	resp, err := b.execute(ctx, &command{method: http.MethodGet, key: key, query: query})
	if err != nil {
		return nil, err
	}
	var tagging Tagging
	if err := xml.Unmarshal(resp.Body, &tagging); err != nil {
		return nil, &ParseError{StatusCode: resp.StatusCode, Body: resp.Body, Err: err}
	}
	return tagging.TagSet.Tags, nil
}

// PutTagging replaces the object's tag set. The XML body is covered by a
// Content-MD5 header as the service requires.
func (b *Bucket) PutTagging(ctx context.Context, key string, tags []Tag) (*Response, error) {
	body, err := xml.Marshal(Tagging{TagSet: TagSet{Tags: tags}})
	if err != nil {
		return nil, err
	}
	query := url.Values{}
	query.Set("tagging", "")
	return b.execute(ctx, &command{
		method:      http.MethodPut,
		key:         key,
		query:       query,
		body:        stream.Bytes(body),
		contentType: "application/xml",
		contentMD5:  true,
	})
}

// DeleteTagging removes all tags from an object.
func (b *Bucket) DeleteTagging(ctx context.Context, key string) (*Response, error) {
	query := url.Values{}
	query.Set("tagging", "")
	return b.execute(ctx, &command{method: http.MethodDelete, key: key, query: query})
}
