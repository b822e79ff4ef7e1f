// Package normalisers converts uploaded files into document text.
//
// Each sub-package handles one format and implements driven.Extractor.
// Registry dispatches on the file extension.
package normalisers
