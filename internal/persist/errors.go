package persist

import "fmt"

// LoadError reports a stored blob that could not be read or decoded.
type LoadError struct {
	Key string
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Key, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// SaveError reports a failed write of the collection.
type SaveError struct {
	Key string
	Err error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("save %s: %v", e.Key, e.Err)
}

func (e *SaveError) Unwrap() error {
	return e.Err
}

// ClearError reports a failed delete of the stored blob.
type ClearError struct {
	Key string
	Err error
}

func (e *ClearError) Error() string {
	return fmt.Sprintf("clear %s: %v", e.Key, e.Err)
}

func (e *ClearError) Unwrap() error {
	return e.Err
}
