package s3wire

import (
	"encoding/xml"
	"time"
)

// ListBucketResult is the ListObjectsV2 response page.
type ListBucketResult struct {
	XMLName               xml.Name       `xml:"ListBucketResult"`
	Name                  string         `xml:"Name"`
	Prefix                string         `xml:"Prefix"`
	Delimiter             string         `xml:"Delimiter"`
	StartAfter            string         `xml:"StartAfter"`
	KeyCount              int            `xml:"KeyCount"`
	MaxKeys               int            `xml:"MaxKeys"`
	IsTruncated           bool           `xml:"IsTruncated"`
	ContinuationToken     string         `xml:"ContinuationToken"`
	NextContinuationToken string         `xml:"NextContinuationToken"`
	Contents              []Object       `xml:"Contents"`
	CommonPrefixes        []CommonPrefix `xml:"CommonPrefixes"`
}

// Object is one listing entry.
type Object struct {
	Key          string    `xml:"Key"`
	LastModified time.Time `xml:"LastModified"`
	ETag         string    `xml:"ETag"`
	Size         int64     `xml:"Size"`
	StorageClass string    `xml:"StorageClass"`
	Owner        *Owner    `xml:"Owner"`
}

// Owner identifies the object owner in listings.
type Owner struct {
	ID          string `xml:"ID"`
	DisplayName string `xml:"DisplayName"`
}

// CommonPrefix is a collapsed key group under the listing delimiter.
type CommonPrefix struct {
	Prefix string `xml:"Prefix"`
}

// Tagging is the object tag set, as sent and received on the ?tagging
// subresource.
type Tagging struct {
	XMLName xml.Name `xml:"Tagging"`
	TagSet  TagSet   `xml:"TagSet"`
}

// TagSet wraps the tag list.
type TagSet struct {
	Tags []Tag `xml:"Tag"`
}

// Tag is one key/value object tag.
type Tag struct {
	Key   string `xml:"Key"`
	Value string `xml:"Value"`
}

// CopyObjectResult is the body of a successful server-side copy.
type CopyObjectResult struct {
	XMLName      xml.Name  `xml:"CopyObjectResult"`
	ETag         string    `xml:"ETag"`
	LastModified time.Time `xml:"LastModified"`
}

// ObjectInfo carries the metadata a HEAD request returns. The metadata
// fields are populated only for 2xx responses; a bucket in pass-through
// mode can surface a non-2xx StatusCode here, which callers must check
// before trusting the rest.
type ObjectInfo struct {
	StatusCode    int
	ContentLength int64
	ContentType   string
	ETag          string
	LastModified  time.Time
}

// ListOptions narrow a ListObjectsV2 page.
type ListOptions struct {
	Prefix            string
	Delimiter         string
	ContinuationToken string
	StartAfter        string
	MaxKeys           int
}

// locationResult is the GetBucketLocation body. An empty value means
// us-east-1.
type locationResult struct {
	XMLName  xml.Name `xml:"LocationConstraint"`
	Location string   `xml:",chardata"`
}

// createBucketConfig is the CreateBucket request body.
type createBucketConfig struct {
	XMLName            xml.Name `xml:"CreateBucketConfiguration"`
	LocationConstraint string   `xml:"LocationConstraint"`
}
