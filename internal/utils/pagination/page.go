package pagination

// Page is the envelope every offset-paginated read returns.
// Page is zero-based.
type Page[T any] struct {
	Items         []T
	Page          int
	Size          int
	TotalPages    int
	TotalElements int64
	HasNext       bool
	HasPrevious   bool
}

// Request is a normalized zero-based page request.
type Request struct {
	Page int
	Size int
}

// Normalize clamps a raw page request.
//
// Behavior:
//   - page < 0 → 0
//   - size <= 0 → def
//   - size > max → max (max <= 0 disables the cap)
func Normalize(page, size, def, max int) Request {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = def
	}
	if max > 0 && size > max {
		size = max
	}
	return Request{Page: page, Size: size}
}

// Offset is the number of rows to skip for this page.
func (r Request) Offset() int {
	return r.Page * r.Size
}

// New builds the envelope from one page of items and the total row count.
func New[T any](items []T, req Request, total int64) Page[T] {
	if items == nil {
		items = []T{}
	}

	totalPages := 0
	if req.Size > 0 {
		totalPages = int((total + int64(req.Size) - 1) / int64(req.Size))
	}

	return Page[T]{
		Items:         items,
		Page:          req.Page,
		Size:          req.Size,
		TotalPages:    totalPages,
		TotalElements: total,
		HasNext:       req.Page+1 < totalPages,
		HasPrevious:   req.Page > 0,
	}
}
