package views

const (
	ManagerPageSize = 6
	MenuPageSize    = 9
)

// Page is one window of a filtered list.
type Page[T any] struct {
	Items  []T
	Number int // 1-based, after clamping
	Total  int // number of pages, at least 1
	Count  int // filtered items across all pages
}

func (p Page[T]) HasPrev() bool { return p.Number > 1 }
func (p Page[T]) HasNext() bool { return p.Number < p.Total }

// PageCount is ceil(n/size), with an empty list still having one page.
func PageCount(n, size int) int {
	if size <= 0 || n <= 0 {
		return 1
	}
	return (n + size - 1) / size
}

// ClampPage forces page into [1, PageCount(n, size)].
func ClampPage(page, n, size int) int {
	if page < 1 {
		return 1
	}
	if total := PageCount(n, size); page > total {
		return total
	}
	return page
}

func Paginate[T any](items []T, page, size int) Page[T] {
	n := len(items)
	page = ClampPage(page, n, size)
	p := Page[T]{Number: page, Total: PageCount(n, size), Count: n}
	if size <= 0 {
		p.Items = items
		return p
	}
	start := (page - 1) * size
	if start >= n {
		return p
	}
	end := start + size
	if end > n {
		end = n
	}
	p.Items = items[start:end]
	return p
}
