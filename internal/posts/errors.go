package posts

import "errors"

var (
	ErrNotFound      = errors.New("post not found")
	ErrForbidden     = errors.New("not authorized")
	ErrMissingFields = errors.New("all fields are required")
	ErrInvalidType   = errors.New("type must be either 'lost' or 'found'")
	ErrMissingImage  = errors.New("no image file uploaded")
	ErrImageUpload   = errors.New("image upload failed")
)
