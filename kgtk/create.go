package kgtk

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/klauspost/compress/gzip"
	"github.com/pierrec/lz4/v3"
	log "github.com/sirupsen/logrus"
	zstd "github.com/valyala/gozstd"

	"github.com/AdRoll/ifexists"
	"github.com/AdRoll/ifexists/pkg/awsutils"
	"github.com/AdRoll/ifexists/pkg/zip_agnostic"
)

// Create creates the KGTK file at path and writes the header h to it. path
// can be:
//   - "" or "-" for the standard output
//   - a s3://bucket/key URL, the file is uploaded while it's being written
//   - a local file path
//
// The output is compressed according to the extension of path: .gz (gzip),
// .zst (zstd) or .lz4 (lz4).
//
// The output is always tab-separated. Rows having a value that contains a tab
// or a line break, which can happen with an input read with another column
// separator, fail to be written.
//
// Create is an ifexists.CreateFunc.
func Create(path string, h ifexists.Header, cfg ifexists.ConfigOutput) (ifexists.RowWriter, error) {
	sink, err := createSink(path, cfg)
	if err != nil {
		return nil, err
	}

	format := formatFromPath(path)
	cw, err := compress(sink, format, cfg)
	if err != nil {
		sink.Close()
		return nil, err
	}

	closeAll := func() error {
		err := cw.Close()
		if serr := sink.Close(); err == nil {
			err = serr
		}
		return err
	}

	w, err := NewWriter(cw, h, closeAll)
	if err != nil {
		closeAll()
		return nil, err
	}

	log.WithFields(log.Fields{"path": path, "compression": format.String()}).Info("output created")
	return w, nil
}

// formatFromPath returns the compression format matching the extension of
// path.
func formatFromPath(path string) zip_agnostic.Format {
	switch p := strings.ToLower(path); {
	case strings.HasSuffix(p, ".gz"):
		return zip_agnostic.Gzip
	case strings.HasSuffix(p, ".zst"):
		return zip_agnostic.Zstd
	case strings.HasSuffix(p, ".lz4"):
		return zip_agnostic.LZ4
	}
	return zip_agnostic.None
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func createSink(path string, cfg ifexists.ConfigOutput) (io.WriteCloser, error) {
	switch {
	case path == "" || path == "-":
		return nopWriteCloser{os.Stdout}, nil
	case awsutils.IsS3URL(path):
		return newS3Sink(path, cfg.Region)
	}
	return os.Create(path)
}

// compress returns a WriteCloser compressing into w. Closing it doesn't
// close w.
func compress(w io.Writer, format zip_agnostic.Format, cfg ifexists.ConfigOutput) (io.WriteCloser, error) {
	switch format {
	case zip_agnostic.Gzip:
		return gzip.NewWriterLevel(w, gzip.BestSpeed)
	case zip_agnostic.Zstd:
		zw := zstd.NewWriterParams(w, &zstd.WriterParams{CompressionLevel: cfg.ZstdCompressionLevel})
		return &zstdWriter{zw}, nil
	case zip_agnostic.LZ4:
		return lz4.NewWriter(w), nil
	case zip_agnostic.None:
		return nopWriteCloser{w}, nil
	}
	return nil, fmt.Errorf("unsupported output compression: %s", format)
}

// zstdWriter releases the zstd writer resources on Close.
type zstdWriter struct {
	*zstd.Writer
}

func (zw *zstdWriter) Close() error {
	err := zw.Writer.Close()
	zw.Writer.Release()
	return err
}

// s3Sink streams the data written to it into a S3 multipart upload.
type s3Sink struct {
	pw   *io.PipeWriter
	done chan error
}

func newS3Sink(path, region string) (*s3Sink, error) {
	bucket, key, err := awsutils.ParseS3URL(path)
	if err != nil {
		return nil, err
	}
	svc, err := awsutils.NewS3(region)
	if err != nil {
		return nil, err
	}
	uploader := s3manager.NewUploaderWithClient(svc)

	pr, pw := io.Pipe()
	s := &s3Sink{pw: pw, done: make(chan error, 1)}
	go func() {
		_, err := uploader.Upload(&s3manager.UploadInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
			Body:   pr,
		})
		if err != nil {
			err = fmt.Errorf("can't upload to %q: %v", path, err)
		}
		// Unblock the writer if the upload stopped before the end of the data.
		pr.CloseWithError(err)
		s.done <- err
	}()
	return s, nil
}

func (s *s3Sink) Write(p []byte) (int, error) { return s.pw.Write(p) }

// Close signals the end of the data and waits for the upload to complete.
func (s *s3Sink) Close() error {
	s.pw.Close()
	return <-s.done
}
