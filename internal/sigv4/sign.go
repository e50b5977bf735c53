// Package sigv4 implements AWS Signature Version 4 request signing for the
// S3 service: canonical request construction, signing-key derivation, and
// both header-based and presigned query-string authentication.
package sigv4

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// Algorithm is the SigV4 algorithm identifier.
	Algorithm = "AWS4-HMAC-SHA256"

	// ServiceS3 is the service name used in the credential scope.
	ServiceS3 = "s3"

	// UnsignedPayload replaces the payload hash for bodies that are not
	// buffered before sending.
	UnsignedPayload = "UNSIGNED-PAYLOAD"

	// EmptyPayloadHash is the SHA-256 of a zero-length body.
	EmptyPayloadHash = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

	// MaxPresignExpiry is the service ceiling for presigned URL validity.
	MaxPresignExpiry = 604800 * time.Second

	timeFormatLong  = "20060102T150405Z"
	timeFormatShort = "20060102"
)

var (
	// ErrHeaderValue reports a header value that cannot be canonicalized.
	ErrHeaderValue = errors.New("sigv4: header value cannot be canonicalized")

	// ErrMissingCredentials reports an empty access or secret key.
	ErrMissingCredentials = errors.New("sigv4: access key and secret key required")

	// ErrExpiry reports a presign expiry outside (0, 604800] seconds.
	ErrExpiry = errors.New("sigv4: presign expiry must be within (0, 604800] seconds")
)

// Credentials carries the key material used to sign requests.
type Credentials struct {
	AccessKey    string
	SecretKey    string
	SessionToken string
}

// Request is the canonical view of one HTTP exchange to be signed. Path must
// already be percent-encoded exactly as it will appear on the wire; Headers
// must contain every header that should be signed, including Host. Sign and
// Presign add the x-amz-* material they introduce themselves.
type Request struct {
	Method      string
	Path        string
	Query       url.Values
	Headers     http.Header
	PayloadHash string
	Time        time.Time
}

// Sign computes header-based authentication for the request. It injects
// x-amz-date, x-amz-content-sha256 and, when present, x-amz-security-token
// into r.Headers, and returns the Authorization header value.
func Sign(r *Request, region string, creds Credentials) (string, error) {
	if creds.AccessKey == "" || creds.SecretKey == "" {
		return "", ErrMissingCredentials
	}
	if r.PayloadHash == "" {
		r.PayloadHash = UnsignedPayload
	}
	amzDate := r.Time.UTC().Format(timeFormatLong)
	dateStamp := r.Time.UTC().Format(timeFormatShort)

	r.Headers.Set("x-amz-date", amzDate)
	r.Headers.Set("x-amz-content-sha256", r.PayloadHash)
	if creds.SessionToken != "" {
		r.Headers.Set("x-amz-security-token", creds.SessionToken)
	}

	canonicalReq, signedHeaders, err := CanonicalRequest(r.Method, r.Path, CanonicalQuery(r.Query), r.Headers, r.PayloadHash)
	if err != nil {
		return "", err
	}
	scope := Scope(dateStamp, region)
	stringToSign := StringToSign(amzDate, scope, canonicalReq)
	key := SigningKey(creds.SecretKey, dateStamp, region, ServiceS3)
	signature := hex.EncodeToString(hmacSHA256(key, stringToSign))

	return fmt.Sprintf("%s Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		Algorithm, creds.AccessKey, scope, signedHeaders, signature), nil
}

// Presign computes query-string authentication. The returned values carry the
// full signed parameter set (including X-Amz-Signature) merged with r.Query;
// the payload hash is always UNSIGNED-PAYLOAD. No network I/O is performed.
func Presign(r *Request, region string, creds Credentials, expiry time.Duration) (url.Values, error) {
	if creds.AccessKey == "" || creds.SecretKey == "" {
		return nil, ErrMissingCredentials
	}
	if expiry <= 0 || expiry > MaxPresignExpiry {
		return nil, fmt.Errorf("%w: got %s", ErrExpiry, expiry)
	}
	amzDate := r.Time.UTC().Format(timeFormatLong)
	dateStamp := r.Time.UTC().Format(timeFormatShort)
	scope := Scope(dateStamp, region)

	_, signedHeaders, err := canonicalHeaders(r.Headers)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	for k, vs := range r.Query {
		for _, v := range vs {
			query.Add(k, v)
		}
	}
	query.Set("X-Amz-Algorithm", Algorithm)
	query.Set("X-Amz-Credential", creds.AccessKey+"/"+scope)
	query.Set("X-Amz-Date", amzDate)
	query.Set("X-Amz-Expires", strconv.FormatInt(int64(expiry/time.Second), 10))
	query.Set("X-Amz-SignedHeaders", signedHeaders)
	if creds.SessionToken != "" {
		query.Set("X-Amz-Security-Token", creds.SessionToken)
	}

	canonicalReq, _, err := CanonicalRequest(r.Method, r.Path, CanonicalQuery(query), r.Headers, UnsignedPayload)
	if err != nil {
		return nil, err
	}
	stringToSign := StringToSign(amzDate, scope, canonicalReq)
	key := SigningKey(creds.SecretKey, dateStamp, region, ServiceS3)
	query.Set("X-Amz-Signature", hex.EncodeToString(hmacSHA256(key, stringToSign)))

	return query, nil
}

// URIEncode percent-encodes s per the AWS SigV4 rules: unreserved characters
// (A-Z, a-z, 0-9, hyphen, period, underscore, tilde) pass through, everything
// else becomes uppercase %XX byte escapes. A forward slash is escaped only
// when encodeSlash is true.
func URIEncode(s string, encodeSlash bool) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9',
			c == '-', c == '.', c == '_', c == '~':
			b.WriteByte(c)
		case c == '/' && !encodeSlash:
			b.WriteByte(c)
		default:
			b.WriteString("%")
			b.WriteString(strings.ToUpper(hex.EncodeToString([]byte{c})))
		}
	}
	return b.String()
}

// CanonicalQuery serializes query parameters for signing: pairs sorted by raw
// key byte order (then value), each key and value AWS-encoded, joined with
// ampersands. Repeated keys are listed once per value.
func CanonicalQuery(query url.Values) string {
	if len(query) == 0 {
		return ""
	}
	type pair struct{ k, v string }
	pairs := make([]pair, 0, len(query))
	for k, vs := range query {
		for _, v := range vs {
			pairs = append(pairs, pair{k, v})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].k != pairs[j].k {
			return pairs[i].k < pairs[j].k
		}
		return pairs[i].v < pairs[j].v
	})
	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = URIEncode(p.k, true) + "=" + URIEncode(p.v, true)
	}
	return strings.Join(parts, "&")
}

// CanonicalRequest assembles the exact byte string hashed by the signer. It
// returns the canonical request and the semicolon-joined signed-headers list.
func CanonicalRequest(method, encodedPath, canonicalQuery string, headers http.Header, payloadHash string) (string, string, error) {
	headerBlock, signedHeaders, err := canonicalHeaders(headers)
	if err != nil {
		return "", "", err
	}
	if encodedPath == "" {
		encodedPath = "/"
	}
	canonical := strings.Join([]string{
		strings.ToUpper(method),
		encodedPath,
		canonicalQuery,
		headerBlock,
		signedHeaders,
		payloadHash,
	}, "\n")
	return canonical, signedHeaders, nil
}

// canonicalHeaders lower-cases and sorts header names, trims values, and joins
// repeated values with commas. The returned block carries one name:value line
// per header, each terminated by a newline.
func canonicalHeaders(headers http.Header) (string, string, error) {
	names := make([]string, 0, len(headers))
	values := make(map[string][]string, len(headers))
	for name, vs := range headers {
		lower := strings.ToLower(name)
		names = append(names, lower)
		values[lower] = vs
	}
	sort.Strings(names)

	var block, signed strings.Builder
	var prior string
	for _, name := range names {
		if name == prior {
			continue
		}
		prior = name
		trimmed := make([]string, len(values[name]))
		for i, v := range values[name] {
			if err := checkHeaderValue(v); err != nil {
				return "", "", fmt.Errorf("%w: header %q", err, name)
			}
			trimmed[i] = strings.TrimSpace(v)
		}
		block.WriteString(name)
		block.WriteString(":")
		block.WriteString(strings.Join(trimmed, ","))
		block.WriteString("\n")
		if signed.Len() > 0 {
			signed.WriteString(";")
		}
		signed.WriteString(name)
	}
	return block.String(), signed.String(), nil
}

func checkHeaderValue(v string) error {
	if !utf8.ValidString(v) {
		return ErrHeaderValue
	}
	for i := 0; i < len(v); i++ {
		if v[i] < 0x20 && v[i] != '\t' {
			return ErrHeaderValue
		}
	}
	return nil
}

// Scope returns the credential scope date/region/s3/aws4_request.
func Scope(dateStamp, region string) string {
	return strings.Join([]string{dateStamp, region, ServiceS3, "aws4_request"}, "/")
}

// StringToSign builds the value the derived key signs: the algorithm id, the
// request timestamp, the credential scope, and the canonical request digest.
func StringToSign(amzDate, scope, canonicalRequest string) string {
	sum := sha256.Sum256([]byte(canonicalRequest))
	return strings.Join([]string{
		Algorithm,
		amzDate,
		scope,
		hex.EncodeToString(sum[:]),
	}, "\n")
}

// SigningKey derives the per-request key by chaining HMAC-SHA256 over the
// date, region, service, and the aws4_request terminator.
func SigningKey(secret, dateStamp, region, service string) []byte {
	kDate := hmacSHA256([]byte("AWS4"+secret), dateStamp)
	kRegion := hmacSHA256(kDate, region)
	kService := hmacSHA256(kRegion, service)
	return hmacSHA256(kService, "aws4_request")
}

// SignString signs an arbitrary string (a POST policy document) with a
// derived key and returns the hex signature.
func SignString(key []byte, data string) string {
	return hex.EncodeToString(hmacSHA256(key, data))
}

// PayloadHash returns the hex SHA-256 of an in-memory body.
func PayloadHash(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

func hmacSHA256(key []byte, data string) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(data))
	return mac.Sum(nil)
}
