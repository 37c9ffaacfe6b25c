package kgtk

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	log "github.com/sirupsen/logrus"

	"github.com/AdRoll/ifexists"
	"github.com/AdRoll/ifexists/pkg/awsutils"
	"github.com/AdRoll/ifexists/pkg/zip_agnostic"
)

// Number of attempts made to fetch a remote file.
const fetchAttempts = 5

// Open opens the KGTK file at path and reads its header. path can be:
//   - "" or "-" for the standard input
//   - a s3://bucket/key URL
//   - a http:// or https:// URL
//   - a local file path
//
// Compressed files (gzip, zstd, lz4 or bzip2) are decompressed on the fly,
// whatever their name.
//
// Open is an ifexists.OpenFunc.
func Open(path string, role ifexists.Role, opts ifexists.ReaderOptions) (ifexists.RowReadCloser, error) {
	ctxLog := log.WithFields(log.Fields{"role": role, "path": path})

	stream, err := openStream(path, opts)
	if err != nil {
		return nil, &ifexists.Error{Kind: ifexists.IOFailure, Role: role, Msg: fmt.Sprintf("can't open %q", path), Err: err}
	}

	zr, err := zip_agnostic.NewReader(stream)
	if err != nil {
		stream.Close()
		return nil, &ifexists.Error{Kind: ifexists.IOFailure, Role: role, Msg: fmt.Sprintf("can't read %q", path), Err: err}
	}

	r, err := NewReader(zr, role, opts, zr, stream)
	if err != nil {
		zr.Close()
		stream.Close()
		return nil, err
	}

	ctxLog.WithField("columns", r.Header().Names()).Info("file opened")
	return r, nil
}

// openStream opens the raw byte stream at path.
func openStream(path string, opts ifexists.ReaderOptions) (io.ReadCloser, error) {
	switch {
	case path == "" || path == "-":
		return io.NopCloser(os.Stdin), nil
	case awsutils.IsS3URL(path):
		return openS3(path, opts.Region)
	case strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://"):
		return openHTTP(path)
	}
	return os.Open(path)
}

func openS3(path, region string) (io.ReadCloser, error) {
	bucket, key, err := awsutils.ParseS3URL(path)
	if err != nil {
		return nil, err
	}
	svc, err := awsutils.NewS3(region)
	if err != nil {
		return nil, err
	}

	var body io.ReadCloser
	err = awsutils.Retry(awsutils.DefaultBackoff, fetchAttempts, awsutils.IsPermanent, func() error {
		resp, err := svc.GetObject(&s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return err
		}
		body = resp.Body
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// httpStatusError is returned for unsuccessful http responses.
type httpStatusError struct {
	url    string
	status string
	code   int
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("GET %s: %s", e.url, e.status)
}

// permanent reports whether retrying the request won't change the response.
func (e *httpStatusError) permanent() bool {
	return e.code >= 400 && e.code < 500
}

func isPermanentHTTP(err error) bool {
	if herr, ok := err.(*httpStatusError); ok {
		return herr.permanent()
	}
	return false
}

func openHTTP(url string) (io.ReadCloser, error) {
	var body io.ReadCloser
	err := awsutils.Retry(awsutils.DefaultBackoff, fetchAttempts, isPermanentHTTP, func() error {
		resp, err := http.Get(url)
		if err != nil {
			return err
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return &httpStatusError{url: url, status: resp.Status, code: resp.StatusCode}
		}
		body = resp.Body
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}
