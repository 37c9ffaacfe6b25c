// Package awsutils holds helpers shared by the components talking to AWS.
package awsutils

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

var s3Scheme = regexp.MustCompile(`^s3[an]?$`)

// IsS3URL reports whether path is a s3://, s3a:// or s3n:// URL.
func IsS3URL(path string) bool {
	i := strings.Index(path, "://")
	return i > 0 && s3Scheme.MatchString(path[:i])
}

// ParseS3URL extracts the bucket and the key from a s3[an]://BUCKET/KEY URL.
func ParseS3URL(path string) (bucket, key string, err error) {
	u, err := url.Parse(path)
	if err != nil {
		return "", "", err
	}
	if !s3Scheme.MatchString(u.Scheme) || u.Host == "" || len(u.Path) < 2 {
		return "", "", fmt.Errorf("%s unsupported, should be s3[a]://BUCKET/DIR_PATH/FILE_NAME", path)
	}
	return u.Host, u.Path[1:], nil
}

// NewS3 returns a S3 client for the given region. It's a variable so that
// tests can replace it with a mocked service.
var NewS3 = func(region string) (s3iface.S3API, error) {
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, fmt.Errorf("can't create aws session: %v", err)
	}
	return s3.New(sess), nil
}

// IsPermanent reports whether err is an S3 error that retrying won't fix.
func IsPermanent(err error) bool {
	if aerr, ok := err.(awserr.Error); ok {
		switch aerr.Code() {
		case s3.ErrCodeNoSuchBucket, s3.ErrCodeNoSuchKey, "AccessDenied", "NotFound":
			return true
		}
	}
	return false
}
