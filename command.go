package s3wire

import (
	"crypto/md5"
	"encoding/base64"
	"net/http"
	"net/url"

	"s3wire/internal/sigv4"
	"s3wire/internal/stream"
	"s3wire/internal/transport"
)

// DefaultChunkSize is the per-chunk transfer size for streamed bodies.
const DefaultChunkSize = stream.DefaultChunkSize

// command describes one logical operation before signing. A command is built
// fresh per call: the request timestamp is fixed at sign time, so a signed
// request is single-use.
type command struct {
	method      string
	key         string
	query       url.Values
	headers     http.Header
	body        stream.Source
	contentType string
	contentMD5  bool
}

// signedRequest turns a command into a wire-ready request. The payload hash
// is the SHA-256 of in-memory bodies and UNSIGNED-PAYLOAD for everything
// else; Content-MD5 is computed only for in-memory bodies when asked for.
func (b *Bucket) signedRequest(cmd *command) (*transport.Request, error) {
	query := url.Values{}
	for k, vs := range b.extraQuery {
		for _, v := range vs {
			query.Add(k, v)
		}
	}
	for k, vs := range cmd.query {
		for _, v := range vs {
			query.Add(k, v)
		}
	}

	headers := http.Header{}
	for k, vs := range b.extraHeaders {
		for _, v := range vs {
			headers.Add(k, v)
		}
	}
	for k, vs := range cmd.headers {
		for _, v := range vs {
			headers.Add(k, v)
		}
	}
	headers.Set("Host", b.host())
	if cmd.contentType != "" {
		headers.Set("Content-Type", cmd.contentType)
	}

	payloadHash := sigv4.EmptyPayloadHash
	contentLength := int64(0)
	if cmd.body != nil {
		contentLength = cmd.body.Len()
		if data, ok := stream.InMemory(cmd.body); ok {
			payloadHash = sigv4.PayloadHash(data)
			if cmd.contentMD5 {
				sum := md5.Sum(data)
				headers.Set("Content-MD5", base64.StdEncoding.EncodeToString(sum[:]))
			}
		} else {
			payloadHash = sigv4.UnsignedPayload
		}
	}
	u := b.urlFor(cmd.key, query)
	signReq := &sigv4.Request{
		Method:      cmd.method,
		Path:        b.encodedPath(cmd.key),
		Query:       query,
		Headers:     headers,
		PayloadHash: payloadHash,
		Time:        b.now(),
	}
	auth, err := sigv4.Sign(signReq, b.region.Name, b.creds.sigv4())
	if err != nil {
		return nil, err
	}
	headers.Set("Authorization", auth)
	// Added after signing so it stays out of the signed header set.
	headers.Set("Date", signReq.Time.UTC().Format(http.TimeFormat))

	return &transport.Request{
		Method:        cmd.method,
		URL:           u,
		Headers:       headers,
		ContentLength: contentLength,
	}, nil
}

// presignRequest builds the sigv4 view of a command for query-string
// authentication. Only the Host header is signed unless the caller supplies
// more.
func (b *Bucket) presignRequest(cmd *command) *sigv4.Request {
	query := url.Values{}
	for k, vs := range b.extraQuery {
		for _, v := range vs {
			query.Add(k, v)
		}
	}
	for k, vs := range cmd.query {
		for _, v := range vs {
			query.Add(k, v)
		}
	}
	headers := http.Header{}
	for k, vs := range cmd.headers {
		for _, v := range vs {
			headers.Add(k, v)
		}
	}
	headers.Set("Host", b.host())
	return &sigv4.Request{
		Method:  cmd.method,
		Path:    b.encodedPath(cmd.key),
		Query:   query,
		Headers: headers,
		Time:    b.now(),
	}
}
