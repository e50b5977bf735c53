// Package s3wire is a client for the S3 object-storage wire protocol,
// usable against AWS S3 and S3-compatible services (Minio, Wasabi, R2, GCS).
//
// A Bucket holds the endpoint, credentials and request policy. Operations on
// a Bucket build a canonically signed HTTP request (AWS Signature V4), send
// it through a retrying dispatcher, and classify the XML/HTTP response.
// Bodies stream in fixed-size chunks in both directions; whole objects are
// never buffered unless the caller asks for buffered results.
//
// Blocking methods are the core surface. Wrap the backend with
// SerializeBackend for one-request-at-a-time execution, or run any
// blocking call on a background goroutine with Async to get a cancelable
// handle.
package s3wire
