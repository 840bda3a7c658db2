package domain

import "time"

// ImageAsset is an uploaded image. Assets are create-only; there is no update path.
type ImageAsset struct {
	Path       string
	Name       string
	Revision   string
	Size       int
	UploadedAt time.Time
}

// Snippet returns the markup an author pastes into a post body.
func (a *ImageAsset) Snippet() string {
	return `<img src="` + a.Path + `" alt="" />`
}
