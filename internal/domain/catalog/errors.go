package catalog

import "errors"

// Rule errors surfaced by catalog write operations. Business-rule checks run
// before any write and may be reported joined together when several rules
// fail at once.
var (
	ErrInvalidSegment = errors.New("invalid slug segment")
	ErrDepthExceeded  = errors.New("tree depth exceeded")

	ErrSlugNotAvailable          = errors.New("slug not available")
	ErrNameNotUniqueWithinParent = errors.New("name not unique within parent")
	ErrHierarchyChangeNotAllowed = errors.New("hierarchy change not allowed while category has children")
	ErrCannotArchiveWithChildren = errors.New("cannot archive category with children")
	ErrCategoryNotArchived       = errors.New("category must be archived before deletion")
	ErrProductNotArchived        = errors.New("product must be archived before deletion")

	ErrCategoryNotFound = errors.New("category not found")
	ErrProductNotFound  = errors.New("product not found")

	ErrImageNotFound         = errors.New("product image not found")
	ErrDuplicateImageIDs     = errors.New("duplicate image ids in request")
	ErrTooManyImages         = errors.New("too many images")
	ErrMultiplePrimaryImages = errors.New("at most one image may be primary")

	ErrInvalidPrice        = errors.New("price must be positive")
	ErrInvalidStatus       = errors.New("invalid publish status")
	ErrInvalidAvailability = errors.New("invalid availability status")
)
