package model

import "time"

// Book is a catalog entry with an optional cover image hosted on the asset store.
// AssetHandle is the removal handle for the cover and is never sent to clients.
// CoverImageURL is empty if and only if AssetHandle is empty.
type Book struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	Description   string    `json:"description"`
	CoverImageURL string    `json:"coverImageUrl"`
	AssetHandle   string    `json:"-"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// HasCover reports whether the book references a remote asset.
func (b *Book) HasCover() bool {
	return b.AssetHandle != ""
}

// Cover is the URL and removal handle of an uploaded cover. The two are
// always written together.
type Cover struct {
	URL    string
	Handle string
}

// Image is a raw cover image submitted by a client.
type Image struct {
	Data        []byte
	ContentType string
	Filename    string
}
