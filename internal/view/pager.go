// Package view windows an entity list into pages with a text query on top.
// The same pager presents products, suppliers, and transactions.
package view

import "errors"

var ErrNoSuchRow = errors.New("view: no such row on current page")

// Pager pages over a source list. An empty query passes the source through
// unfiltered; otherwise the working set is the source filtered by the match
// predicate. Changing the query or the source resets to the first page.
type Pager[T any] struct {
	pageSize int
	match    func(item T, query string) bool

	source  []T
	query   string
	working []T
	current int

	onSelect func(T)
}

func NewPager[T any](pageSize int, match func(item T, query string) bool) *Pager[T] {
	if pageSize <= 0 {
		pageSize = 1
	}
	return &Pager[T]{pageSize: pageSize, match: match}
}

// OnSelect registers the row handler; it receives the full entity.
func (p *Pager[T]) OnSelect(fn func(T)) { p.onSelect = fn }

// SetSource replaces the underlying list and resets to page 0.
func (p *Pager[T]) SetSource(items []T) {
	p.source = items
	p.rebuild()
}

// SetQuery changes the text query and resets to page 0.
func (p *Pager[T]) SetQuery(query string) {
	p.query = query
	p.rebuild()
}

func (p *Pager[T]) Query() string { return p.query }

func (p *Pager[T]) rebuild() {
	p.current = 0
	if p.query == "" {
		p.working = p.source
		return
	}
	p.working = nil
	for _, item := range p.source {
		if p.match(item, p.query) {
			p.working = append(p.working, item)
		}
	}
}

// PageCount is ceil(len(working)/pageSize), never below 1.
func (p *Pager[T]) PageCount() int {
	n := (len(p.working) + p.pageSize - 1) / p.pageSize
	if n < 1 {
		return 1
	}
	return n
}

func (p *Pager[T]) CurrentPage() int { return p.current }

// Page returns the rows of the current page.
func (p *Pager[T]) Page() []T {
	start := p.current * p.pageSize
	if start >= len(p.working) {
		return nil
	}
	end := start + p.pageSize
	if end > len(p.working) {
		end = len(p.working)
	}
	return p.working[start:end]
}

// Next advances one page; a no-op on the last page.
func (p *Pager[T]) Next() {
	if p.current < p.PageCount()-1 {
		p.current++
	}
}

// Prev goes back one page; a no-op on the first page.
func (p *Pager[T]) Prev() {
	if p.current > 0 {
		p.current--
	}
}

// GoTo jumps to page n, clamped to [0, PageCount-1].
func (p *Pager[T]) GoTo(n int) {
	if n < 0 {
		n = 0
	}
	if max := p.PageCount() - 1; n > max {
		n = max
	}
	p.current = n
}

// Select invokes the registered handler with the row-th entity of the current
// page, opening its detail/edit flow.
func (p *Pager[T]) Select(row int) error {
	page := p.Page()
	if row < 0 || row >= len(page) {
		return ErrNoSuchRow
	}
	if p.onSelect != nil {
		p.onSelect(page[row])
	}
	return nil
}
