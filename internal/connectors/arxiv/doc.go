// Package arxiv implements driven.DocumentSource over the public arXiv API.
//
// Search queries the Atom feed at export.arxiv.org; Fetch downloads the PDF
// and hands it to a driven.TextExtractor. All requests share one rate
// limiter, since arXiv asks clients to wait three seconds between calls.
package arxiv
