// Package connectors holds driven.DocumentSource implementations, one
// subpackage per external source. Each connector searches its source for
// candidate documents and downloads their full content on demand.
//
// Sources are constructed by the ai factory from domain.SourceSettings.
package connectors
