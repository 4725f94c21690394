// Package normalisers holds driven.TextExtractor implementations that turn
// downloaded files into raw text. Extractors must keep line breaks, since
// the chunker detects section headers line by line.
package normalisers
