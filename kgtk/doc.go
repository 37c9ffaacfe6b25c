// Package kgtk reads and writes KGTK files: tab-separated files whose first
// line is a header naming the columns.
//
// Open and Create implement ifexists.OpenFunc and ifexists.CreateFunc, they
// deal with the standard streams, local files, S3 objects, http(s) URLs and
// compressed data.
package kgtk
