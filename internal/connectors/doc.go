// Package connectors holds document sources that feed the ingestion
// pipeline. Each connector knows how to enumerate and watch one kind of
// source; the filesystem connector backs "embediq serve --watch".
package connectors
