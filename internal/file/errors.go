package file

import "errors"

var (
	// ErrMissingFile indicates the request carried no "file" part.
	ErrMissingFile = errors.New("no file part")
	// ErrEmptyFilename indicates the file part had an empty filename.
	ErrEmptyFilename = errors.New("no selected file")
	// ErrExtensionNotAllowed signals an extension outside the upload allow-list.
	ErrExtensionNotAllowed = errors.New("file type not allowed")
	// ErrFileTooLarge signals that the upload exceeds configured limits.
	ErrFileTooLarge = errors.New("file too large")
	// ErrEmptyKey indicates a delete request without an object key.
	ErrEmptyKey = errors.New("object key is required")
)
