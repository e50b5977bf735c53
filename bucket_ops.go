package s3wire

import (
	"context"
	"encoding/xml"
	"net/http"
	"net/url"
	"strconv"

	"s3wire/internal/stream"
)

// ListObjectsV2 fetches one listing page.
func (b *Bucket) ListObjectsV2(ctx context.Context, opts ListOptions) (*ListBucketResult, error) {
	query := url.Values{}
	query.Set("list-type", "2")
	if opts.Prefix != "" {
		query.Set("prefix", opts.Prefix)
	}
	if opts.Delimiter != "" {
		query.Set("delimiter", opts.Delimiter)
	}
	if opts.ContinuationToken != "" {
		query.Set("continuation-token", opts.ContinuationToken)
	}
	if opts.StartAfter != "" {
		query.Set("start-after", opts.StartAfter)
	}
	if opts.MaxKeys > 0 {
		query.Set("max-keys", strconv.Itoa(opts.MaxKeys))
	}

	resp, err := b.execute(ctx, &command{method: http.MethodGet, query: query})
	if err != nil {
		return nil, err
	}
	var result ListBucketResult
	if err := xml.Unmarshal(resp.Body, &result); err != nil {
		return nil, &ParseError{StatusCode: resp.StatusCode, Body: resp.Body, Err: err}
	}
	return &result, nil
}

// ListAll drives ListObjectsV2 through every continuation page and returns
// the combined object set.
func (b *Bucket) ListAll(ctx context.Context, prefix, delimiter string) ([]Object, error) {
	var objects []Object
	opts := ListOptions{Prefix: prefix, Delimiter: delimiter}
	for {
		page, err := b.ListObjectsV2(ctx, opts)
		if err != nil {
			return nil, err
		}
		objects = append(objects, page.Contents...)
		if !page.IsTruncated || page.NextContinuationToken == "" {
			return objects, nil
		}
		opts.ContinuationToken = page.NextContinuationToken
	}
}

// Location asks the service which region the bucket lives in. An empty
// constraint in the response means us-east-1.
func (b *Bucket) Location(ctx context.Context) (string, error) {
	query := url.Values{}
	query.Set("location", "")
	resp, err := b.execute(ctx, &command{method: http.MethodGet, query: query})
	if err != nil {
		return "", err
	}
	var loc locationResult
	if err := xml.Unmarshal(resp.Body, &loc); err != nil {
		return "", &ParseError{StatusCode: resp.StatusCode, Body: resp.Body, Err: err}
	}
	if loc.Location == "" {
		return "us-east-1", nil
	}
	return loc.Location, nil
}

// CreateBucket creates the bucket in the configured region.
func (b *Bucket) CreateBucket(ctx context.Context) (*Response, error) {
	return b.createBucket(ctx, "")
}

// CreateBucketWithACL creates the bucket with a canned ACL such as
// "private" or "public-read".
func (b *Bucket) CreateBucketWithACL(ctx context.Context, acl string) (*Response, error) {
	return b.createBucket(ctx, acl)
}

func (b *Bucket) createBucket(ctx context.Context, acl string) (*Response, error) {
	cmd := &command{method: http.MethodPut}
	if acl != "" {
		cmd.headers = http.Header{}
		cmd.headers.Set("x-amz-acl", acl)
	}
	if body := b.locationConstraintBody(); body != nil {
		cmd.body = stream.Bytes(body)
		cmd.contentType = "application/xml"
		cmd.contentMD5 = true
	}
	return b.execute(ctx, cmd)
}

// locationConstraintBody returns the CreateBucketConfiguration XML, or nil
// when the constraint must be omitted: us-east-1 rejects its own name, and
// some S3-compatible endpoints reject the body entirely.
func (b *Bucket) locationConstraintBody() []byte {
	if b.skipLocationConstraint || b.region.Name == "us-east-1" {
		return nil
	}
	body, err := xml.Marshal(createBucketConfig{LocationConstraint: b.region.Name})
	if err != nil {
		return nil
	}
	return body
}

// DeleteBucket removes the bucket. The service rejects this while the
// bucket still holds objects.
func (b *Bucket) DeleteBucket(ctx context.Context) (*Response, error) {
	return b.execute(ctx, &command{method: http.MethodDelete})
}
