package s3wire

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"s3wire/internal/dispatch"
	"s3wire/internal/metrics"
	"s3wire/internal/sigv4"
	"s3wire/internal/transport"
)

// envNoLocationConstraint suppresses the CreateBucket location-constraint
// body for endpoints that reject it. Read once at bucket construction.
const envNoLocationConstraint = "S3WIRE_NO_LOCATION_CONSTRAINT"

// Bucket is the handle for one bucket on one endpoint. Configuration is
// fixed at construction (the setters are for setup time only); during
// operation execution a Bucket is read-only and safe for concurrent use.
type Bucket struct {
	name   string
	region Region
	creds  Credentials

	pathStyle              bool
	retries                int
	insecureTLS            bool
	extraHeaders           http.Header
	extraQuery             url.Values
	skipLocationConstraint bool
	failOnError            bool
	chunkSize              int
	rawKeySlashes          bool
	timeout                time.Duration

	logger  *slog.Logger
	tracer  trace.Tracer
	limiter *rate.Limiter
	metrics *metrics.Set

	backend    transport.Backend
	dispatcher *dispatch.Dispatcher

	now func() time.Time
}

// bucketConfig is the validated view of a Bucket under construction.
type bucketConfig struct {
	Name      string `validate:"required,min=3,max=255"`
	Region    string `validate:"required"`
	Endpoint  string `validate:"required"`
	Retries   int    `validate:"gte=0"`
	ChunkSize int    `validate:"gt=0"`
}

var validate = validator.New()

// Option adjusts a Bucket at construction.
type Option func(*Bucket)

// WithPathStyle addresses the bucket as endpoint/bucket/key instead of the
// default bucket.endpoint/key. Required for most non-AWS services.
func WithPathStyle() Option { return func(b *Bucket) { b.pathStyle = true } }

// WithRetries sets how many times a failed attempt is retried.
func WithRetries(n int) Option { return func(b *Bucket) { b.retries = n } }

// WithInsecureTLS disables certificate verification on the default backend.
func WithInsecureTLS() Option { return func(b *Bucket) { b.insecureTLS = true } }

// WithExtraHeaders adds default headers to every request. They are signed.
func WithExtraHeaders(h http.Header) Option {
	return func(b *Bucket) {
		for k, vs := range h {
			for _, v := range vs {
				b.extraHeaders.Add(k, v)
			}
		}
	}
}

// WithExtraQuery adds default query parameters to every request.
func WithExtraQuery(q url.Values) Option {
	return func(b *Bucket) {
		for k, vs := range q {
			for _, v := range vs {
				b.extraQuery.Add(k, v)
			}
		}
	}
}

// WithPassThroughErrors returns non-2xx responses as ordinary results
// carrying the raw status and body, instead of decoding them into a
// ServiceError.
func WithPassThroughErrors() Option { return func(b *Bucket) { b.failOnError = false } }

// WithChunkSize sets the per-chunk transfer size for streamed bodies.
func WithChunkSize(n int) Option { return func(b *Bucket) { b.chunkSize = n } }

// WithRawKeySlashes leaves literal slashes in object keys unencoded in the
// canonical URI, for services that reject %2F in paths. The default encodes
// them.
func WithRawKeySlashes() Option { return func(b *Bucket) { b.rawKeySlashes = true } }

// WithTimeout bounds each HTTP exchange on the default backend.
func WithTimeout(d time.Duration) Option { return func(b *Bucket) { b.timeout = d } }

// WithoutLocationConstraint suppresses the CreateBucket location-constraint
// body regardless of the environment toggle.
func WithoutLocationConstraint() Option { return func(b *Bucket) { b.skipLocationConstraint = true } }

// WithLogger routes dispatch logging to the given logger.
func WithLogger(l *slog.Logger) Option { return func(b *Bucket) { b.logger = l } }

// WithTracer emits one span per dispatched request.
func WithTracer(t trace.Tracer) Option { return func(b *Bucket) { b.tracer = t } }

// WithRateLimit throttles outbound attempts.
func WithRateLimit(l *rate.Limiter) Option { return func(b *Bucket) { b.limiter = l } }

// WithMetrics records request counts, retries, latencies and transferred
// bytes into the given set.
func WithMetrics(m *metrics.Set) Option { return func(b *Bucket) { b.metrics = m } }

// WithBackend replaces the default HTTP backend. Wrap a backend with
// SerializeBackend for cooperative one-at-a-time execution.
func WithBackend(be transport.Backend) Option { return func(b *Bucket) { b.backend = be } }

// NewBucket builds a validated Bucket handle. No network I/O is performed.
func NewBucket(name string, region Region, creds Credentials, opts ...Option) (*Bucket, error) {
	b := &Bucket{
		name:         name,
		region:       region,
		creds:        creds,
		retries:      dispatch.DefaultRetries,
		failOnError:  true,
		chunkSize:    DefaultChunkSize,
		extraHeaders: http.Header{},
		extraQuery:   url.Values{},
		now:          time.Now,
	}
	if os.Getenv(envNoLocationConstraint) != "" {
		b.skipLocationConstraint = true
	}
	for _, opt := range opts {
		opt(b)
	}

	cfg := bucketConfig{
		Name:      b.name,
		Region:    b.region.Name,
		Endpoint:  b.region.Endpoint,
		Retries:   b.retries,
		ChunkSize: b.chunkSize,
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("s3wire: invalid bucket configuration: %w", err)
	}

	if b.backend == nil {
		b.backend = transport.NewHTTP(transport.Options{
			Timeout:     b.timeout,
			InsecureTLS: b.insecureTLS,
		})
	}
	b.dispatcher = &dispatch.Dispatcher{
		Backend:   b.backend,
		Retries:   b.retries,
		ChunkSize: b.chunkSize,
		Limiter:   b.limiter,
		Logger:    b.logger,
		Metrics:   b.metrics,
		Tracer:    b.tracer,
	}
	return b, nil
}

// Name returns the bucket name.
func (b *Bucket) Name() string { return b.name }

// Region returns the configured region.
func (b *Bucket) Region() Region { return b.region }

// SetCredentials replaces the key material. Setup time only; callers must
// not race this with in-flight operations.
func (b *Bucket) SetCredentials(creds Credentials) { b.creds = creds }

// SetRetries replaces the retry count. Setup time only.
func (b *Bucket) SetRetries(n int) {
	b.retries = n
	b.dispatcher.Retries = n
}

// SetExtraHeader adds a default header sent and signed on every request.
// Setup time only.
func (b *Bucket) SetExtraHeader(key, value string) { b.extraHeaders.Set(key, value) }

// SetExtraQuery adds a default query parameter to every request. Setup time
// only.
func (b *Bucket) SetExtraQuery(key, value string) { b.extraQuery.Set(key, value) }

// host returns the request Host value for the configured addressing style.
func (b *Bucket) host() string {
	if b.pathStyle {
		return b.region.host()
	}
	return b.name + "." + b.region.host()
}

// encodedPath builds the canonical URI for key. The same bytes go on the
// wire, so the signature always matches what the server hashes.
func (b *Bucket) encodedPath(key string) string {
	path := "/"
	if b.pathStyle {
		path += sigv4.URIEncode(b.name, true)
		if key == "" {
			return path
		}
		path += "/"
	}
	return path + sigv4.URIEncode(key, !b.rawKeySlashes)
}

// urlFor assembles the wire URL for key and query. RawQuery is the canonical
// query serialization, keeping the sent bytes identical to the signed bytes.
func (b *Bucket) urlFor(key string, query url.Values) *url.URL {
	encoded := b.encodedPath(key)
	decoded, err := url.PathUnescape(encoded)
	if err != nil {
		decoded = encoded
	}
	return &url.URL{
		Scheme:   b.region.scheme(),
		Host:     b.host(),
		Path:     decoded,
		RawPath:  encoded,
		RawQuery: sigv4.CanonicalQuery(query),
	}
}
