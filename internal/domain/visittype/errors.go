package visittype

import "errors"

var (
	ErrConfigurationNotFound = errors.New("visit type configuration not found")
	ErrDuplicateTypeID       = errors.New("duplicate visit type id")
	ErrUnknownDefaultType    = errors.New("default type is not one of the configured visit types")
	ErrNegativePrice         = errors.New("visit type prices cannot be negative")
)
