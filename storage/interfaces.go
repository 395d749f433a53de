package storage

import "github.com/kh40/Vintage-Gear-Finder/models"

// ListingWriter is the interface any storage backend must satisfy.
type ListingWriter interface {
	Write(listings []models.Listing) error
	Close() error
}
