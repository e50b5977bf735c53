package s3wire

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"s3wire/internal/sigv4"
)

// PresignGet computes a presigned download URL valid for expiry. query may
// carry extra parameters (response-content-disposition and friends); pass
// nil for none. Pure computation, no network I/O.
func (b *Bucket) PresignGet(key string, expiry time.Duration, query url.Values) (string, error) {
	return b.presignURL(&command{method: http.MethodGet, key: key, query: query}, expiry)
}

// PresignPut computes a presigned upload URL. Headers given here are
// included in the signature, so the uploader must send them verbatim.
func (b *Bucket) PresignPut(key string, expiry time.Duration, headers http.Header) (string, error) {
	return b.presignURL(&command{method: http.MethodPut, key: key, headers: headers}, expiry)
}

// PresignDelete computes a presigned deletion URL.
func (b *Bucket) PresignDelete(key string, expiry time.Duration) (string, error) {
	return b.presignURL(&command{method: http.MethodDelete, key: key}, expiry)
}

func (b *Bucket) presignURL(cmd *command, expiry time.Duration) (string, error) {
	req := b.presignRequest(cmd)
	signed, err := sigv4.Presign(req, b.region.Name, b.creds.sigv4(), expiry)
	if err != nil {
		return "", err
	}
	u := &url.URL{
		Scheme:   b.region.scheme(),
		Host:     b.host(),
		Path:     mustUnescape(req.Path),
		RawPath:  req.Path,
		RawQuery: sigv4.CanonicalQuery(signed),
	}
	return u.String(), nil
}

// PresignedPost is a browser-upload form description: POST the fields, in
// order with the file last, to URL as multipart/form-data.
type PresignedPost struct {
	URL    string
	Fields map[string]string
}

// PresignPost computes the signed POST policy for a form-based upload of
// key. extraFields become exact-match policy conditions and form fields
// (for example "Content-Type" or "success_action_status"); pass nil for
// none.
func (b *Bucket) PresignPost(key string, expiry time.Duration, extraFields map[string]string) (*PresignedPost, error) {
	if b.creds.AccessKey == "" || b.creds.SecretKey == "" {
		return nil, ErrMissingCredentials
	}
	if expiry <= 0 || expiry > sigv4.MaxPresignExpiry {
		return nil, fmt.Errorf("%w: got %s", ErrExpiry, expiry)
	}

	now := b.now().UTC()
	amzDate := now.Format("20060102T150405Z")
	scope := sigv4.Scope(now.Format("20060102"), b.region.Name)
	credential := b.creds.AccessKey + "/" + scope

	fields := map[string]string{
		"key":              key,
		"x-amz-algorithm":  sigv4.Algorithm,
		"x-amz-credential": credential,
		"x-amz-date":       amzDate,
	}
	if b.creds.SessionToken != "" {
		fields["x-amz-security-token"] = b.creds.SessionToken
	}

	conditions := []any{
		map[string]string{"bucket": b.name},
		map[string]string{"key": key},
		map[string]string{"x-amz-algorithm": sigv4.Algorithm},
		map[string]string{"x-amz-credential": credential},
		map[string]string{"x-amz-date": amzDate},
	}
	if b.creds.SessionToken != "" {
		conditions = append(conditions, map[string]string{"x-amz-security-token": b.creds.SessionToken})
	}
	for _, name := range sortedKeys(extraFields) {
		fields[name] = extraFields[name]
		conditions = append(conditions, map[string]string{name: extraFields[name]})
	}

	policy, err := json.Marshal(map[string]any{
		"expiration": now.Add(expiry).Format("2006-01-02T15:04:05Z"),
		"conditions": conditions,
	})
	if err != nil {
		return nil, err
	}
	encoded := base64.StdEncoding.EncodeToString(policy)
	fields["policy"] = encoded

	signingKey := sigv4.SigningKey(b.creds.SecretKey, now.Format("20060102"), b.region.Name, sigv4.ServiceS3)
	fields["x-amz-signature"] = sigv4.SignString(signingKey, encoded)

	u := &url.URL{Scheme: b.region.scheme(), Host: b.host(), Path: "/"}
	if b.pathStyle {
		u.Path = "/" + b.name
	}
	return &PresignedPost{URL: u.String(), Fields: fields}, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func mustUnescape(p string) string {
	decoded, err := url.PathUnescape(p)
	if err != nil {
		return p
	}
	return decoded
}
