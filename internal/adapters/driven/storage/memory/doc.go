// Package memory provides in-process implementations of driven ports.
//
// VectorStore holds embedded documents for the lifetime of the process and
// is the default backend. ConfigStore backs tests that must not touch the
// user's config file.
package memory
