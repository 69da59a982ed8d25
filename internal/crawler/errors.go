package crawler

import "fmt"

// ParseError is an href that could not be resolved to a URL
type ParseError struct {
	Href string
	Page string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unparseable href %q on %s: %v", e.Href, e.Page, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// EmptyBodyError is a successful fetch that returned no body
type EmptyBodyError struct {
	URL string
}

func (e *EmptyBodyError) Error() string {
	return fmt.Sprintf("empty body from %s", e.URL)
}

// SoftNotFoundError is a successful fetch whose body matched a not-found test
type SoftNotFoundError struct {
	URL  string
	Test string
}

func (e *SoftNotFoundError) Error() string {
	return fmt.Sprintf("soft 404 at %s: body matched %s", e.URL, e.Test)
}

// DirectoryReadError is a filesystem failure while walking a directory
type DirectoryReadError struct {
	Path string
	Err  error
}

func (e *DirectoryReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

func (e *DirectoryReadError) Unwrap() error {
	return e.Err
}

// MissingFileError is a relative link in a local file whose target does not exist
type MissingFileError struct {
	Path string
	Err  error
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("missing file %s", e.Path)
}

func (e *MissingFileError) Unwrap() error {
	return e.Err
}
