package s3wire

import (
	"errors"
	"os"

	"s3wire/internal/sigv4"
)

// ErrNoCredentials reports that the environment carries no usable key pair.
var ErrNoCredentials = errors.New("s3wire: AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY not set")

// Credentials holds the key material used to sign requests. SessionToken is
// set only for temporary (STS) credentials.
type Credentials struct {
	AccessKey    string
	SecretKey    string
	SessionToken string
}

// EnvCredentials reads the standard AWS environment variables.
func EnvCredentials() (Credentials, error) {
	access := os.Getenv("AWS_ACCESS_KEY_ID")
	secret := os.Getenv("AWS_SECRET_ACCESS_KEY")
	if access == "" || secret == "" {
		return Credentials{}, ErrNoCredentials
	}
	return Credentials{
		AccessKey:    access,
		SecretKey:    secret,
		SessionToken: os.Getenv("AWS_SESSION_TOKEN"),
	}, nil
}

func (c Credentials) sigv4() sigv4.Credentials {
	return sigv4.Credentials{
		AccessKey:    c.AccessKey,
		SecretKey:    c.SecretKey,
		SessionToken: c.SessionToken,
	}
}
