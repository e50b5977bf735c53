package s3wire

import (
	"fmt"
	"strings"
)

// Region names a signing region and the endpoint host requests are sent to.
// Endpoint may carry an explicit scheme ("http://localhost:9000"); without
// one, https is assumed.
type Region struct {
	Name     string
	Endpoint string
}

// awsEndpoints maps AWS region names to their S3 endpoints.
var awsEndpoints = map[string]string{
	"us-east-1":      "s3.amazonaws.com",
	"us-east-2":      "s3.us-east-2.amazonaws.com",
	"us-west-1":      "s3.us-west-1.amazonaws.com",
	"us-west-2":      "s3.us-west-2.amazonaws.com",
	"ca-central-1":   "s3.ca-central-1.amazonaws.com",
	"eu-west-1":      "s3.eu-west-1.amazonaws.com",
	"eu-west-2":      "s3.eu-west-2.amazonaws.com",
	"eu-west-3":      "s3.eu-west-3.amazonaws.com",
	"eu-central-1":   "s3.eu-central-1.amazonaws.com",
	"eu-north-1":     "s3.eu-north-1.amazonaws.com",
	"ap-northeast-1": "s3.ap-northeast-1.amazonaws.com",
	"ap-northeast-2": "s3.ap-northeast-2.amazonaws.com",
	"ap-southeast-1": "s3.ap-southeast-1.amazonaws.com",
	"ap-southeast-2": "s3.ap-southeast-2.amazonaws.com",
	"ap-south-1":     "s3.ap-south-1.amazonaws.com",
	"sa-east-1":      "s3.sa-east-1.amazonaws.com",
}

// RegionFromName resolves an AWS region name to its Region. Unknown names
// are an error; use CustomRegion for non-AWS endpoints.
func RegionFromName(name string) (Region, error) {
	endpoint, ok := awsEndpoints[name]
	if !ok {
		return Region{}, fmt.Errorf("s3wire: unknown region %q", name)
	}
	return Region{Name: name, Endpoint: endpoint}, nil
}

// CustomRegion builds a Region for an S3-compatible service. name is the
// value used in the credential scope; endpoint is the host, optionally with
// an explicit scheme.
func CustomRegion(name, endpoint string) Region {
	return Region{Name: name, Endpoint: endpoint}
}

// scheme returns the URL scheme for the region's endpoint.
func (r Region) scheme() string {
	if s, _, ok := strings.Cut(r.Endpoint, "://"); ok {
		return s
	}
	return "https"
}

// host returns the endpoint with any scheme prefix stripped.
func (r Region) host() string {
	if _, h, ok := strings.Cut(r.Endpoint, "://"); ok {
		return h
	}
	return r.Endpoint
}
