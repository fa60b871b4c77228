package domain

// PagedResult is one page of a gateway listing, in gateway order.
type PagedResult[T any] struct {
	Items      []T
	TotalCount int64
	Page       int
	Size       int
	TotalPages int
}

// ValidatePage checks list paging arguments before any request is made.
func ValidatePage(page, size int) error {
	if page < 0 {
		return ValidationError("page must be >= 0")
	}
	if size <= 0 {
		return ValidationError("page size must be > 0")
	}
	return nil
}
