// Export internal functions for testing
package store

import "github.com/freeeve/pgnbook/internal/book"

// EncodeBody exports encodeBody for testing
func EncodeBody(b *book.Book) ([]byte, error) {
	return encodeBody(b)
}

// DecodeBody exports decodeBody for testing
func DecodeBody(data []byte, b *book.Book) error {
	return decodeBody(data, b)
}
