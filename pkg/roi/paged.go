package roi

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"net/url"
	"strconv"

	"github.com/fivetwenty-io/roi/internal/constants"
)

// PageFetcher issues the GET behind a cursor and returns the response body.
type PageFetcher interface {
	GetJSON(ctx context.Context, path string, query url.Values) ([]byte, error)
}

// ItemMapper converts one element of a page's items into a typed value.
type ItemMapper[T any] func(raw json.RawMessage) (T, error)

// JSONMapper decodes items with encoding/json, using T's UnmarshalJSON if it has one.
func JSONMapper[T any]() ItemMapper[T] {
	return func(raw json.RawMessage) (T, error) {
		var item T

		err := json.Unmarshal(raw, &item)

		return item, err
	}
}

// pageEnvelope is the body of every list endpoint. Pointers detect missing fields.
type pageEnvelope struct {
	Page         *int               `json:"page"`
	Limit        *int               `json:"limit"`
	TotalPages   *int               `json:"total_pages"`
	TotalRecords *int               `json:"total_records"`
	Links        *[]LinkObject      `json:"links"`
	Items        *[]json.RawMessage `json:"items"`
}

func (e *pageEnvelope) validate() error {
	switch {
	case e.Page == nil:
		return fmt.Errorf("%w: page", ErrMalformedPage)
	case e.Limit == nil:
		return fmt.Errorf("%w: limit", ErrMalformedPage)
	case e.TotalPages == nil:
		return fmt.Errorf("%w: total_pages", ErrMalformedPage)
	case e.TotalRecords == nil:
		return fmt.Errorf("%w: total_records", ErrMalformedPage)
	case e.Links == nil:
		return fmt.Errorf("%w: links", ErrMalformedPage)
	case e.Items == nil:
		return fmt.Errorf("%w: items", ErrMalformedPage)
	}

	return nil
}

// PagedResults is a cursor over a list endpoint. It always holds one fetched
// page; NextPage replaces that page rather than appending to it.
//
// A PagedResults must not be advanced from several goroutines at once.
type PagedResults[T any] struct {
	fetcher  PageFetcher
	endpoint string
	query    url.Values
	page     int
	limit    int
	mapItem  ItemMapper[T]

	current      int
	pageSize     int
	totalPages   int
	totalRecords int
	links        Links
	items        []T
	itemIndex    int
}

// NewPagedResults builds a cursor and fetches its first page. Zero values in
// params are left out of the query.
func NewPagedResults[T any](ctx context.Context, fetcher PageFetcher, endpoint string, query url.Values, params PageParams, mapItem ItemMapper[T]) (*PagedResults[T], error) {
	if mapItem == nil {
		mapItem = JSONMapper[T]()
	}

	owned := url.Values{}
	for key, values := range query {
		owned[key] = append([]string(nil), values...)
	}

	results := &PagedResults[T]{
		fetcher:  fetcher,
		endpoint: endpoint,
		query:    owned,
		page:     params.Page,
		limit:    params.Limit,
		mapItem:  mapItem,
	}

	err := results.Advance(ctx)
	if err != nil {
		return nil, err
	}

	return results, nil
}

// Advance fetches the page the cursor currently points at and replaces all
// page state with it.
func (p *PagedResults[T]) Advance(ctx context.Context) error {
	body, err := p.fetcher.GetJSON(ctx, p.endpoint, p.values())
	if err != nil {
		return fmt.Errorf("fetching %s: %w", p.endpoint, err)
	}

	var envelope pageEnvelope

	err = json.Unmarshal(body, &envelope)
	if err != nil {
		return fmt.Errorf("parsing %s page: %w", p.endpoint, err)
	}

	err = envelope.validate()
	if err != nil {
		return err
	}

	links, err := BuildLinks(*envelope.Links)
	if err != nil {
		return err
	}

	items := make([]T, 0, len(*envelope.Items))

	for i, raw := range *envelope.Items {
		item, err := p.mapItem(raw)
		if err != nil {
			return fmt.Errorf("parsing %s item %d: %w", p.endpoint, i, err)
		}

		items = append(items, item)
	}

	p.current = *envelope.Page
	p.pageSize = *envelope.Limit
	p.totalPages = *envelope.TotalPages
	p.totalRecords = *envelope.TotalRecords
	p.links = links
	p.items = items
	p.itemIndex = -1

	return nil
}

// HasNextPage reports whether the API linked a next page.
func (p *PagedResults[T]) HasNextPage() bool {
	return p.links.Has(constants.LinkRelNext)
}

// NextPage moves to the following page. It does nothing on the last page.
func (p *PagedResults[T]) NextPage(ctx context.Context) error {
	if !p.HasNextPage() {
		return nil
	}

	previous := p.page

	base := p.page
	if base == 0 {
		base = p.current
	}

	p.page = base + 1

	err := p.Advance(ctx)
	if err != nil {
		p.page = previous

		return err
	}

	return nil
}

// Collect gathers the items of the current page and every page after it.
// The cursor is left on the last page.
func (p *PagedResults[T]) Collect(ctx context.Context) ([]T, error) {
	all := append([]T(nil), p.items...)

	for range constants.MaxPages {
		if !p.HasNextPage() {
			return all, nil
		}

		err := p.NextPage(ctx)
		if err != nil {
			return all, err
		}

		all = append(all, p.items...)
	}

	return all, nil
}

// Page returns the page number the API reported.
func (p *PagedResults[T]) Page() int {
	return p.current
}

// Limit returns the page size the API reported.
func (p *PagedResults[T]) Limit() int {
	return p.pageSize
}

// TotalPages returns the number of pages.
func (p *PagedResults[T]) TotalPages() int {
	return p.totalPages
}

// TotalRecords returns the number of records across all pages.
func (p *PagedResults[T]) TotalRecords() int {
	return p.totalRecords
}

// Count returns the number of items on the current page.
func (p *PagedResults[T]) Count() int {
	return len(p.items)
}

// Items returns a copy of the current page's items.
func (p *PagedResults[T]) Items() []T {
	return append([]T(nil), p.items...)
}

// Item returns the item at index on the current page.
func (p *PagedResults[T]) Item(index int) (T, bool) {
	if index < 0 || index >= len(p.items) {
		var zero T

		return zero, false
	}

	return p.items[index], true
}

// NextItem reads the current page sequentially. It returns false once the
// page is exhausted; advancing the page starts over.
func (p *PagedResults[T]) NextItem() (T, bool) {
	if p.itemIndex < len(p.items) {
		p.itemIndex++
	}

	return p.Item(p.itemIndex)
}

// ItemIndex returns the index of the last item returned by NextItem.
func (p *PagedResults[T]) ItemIndex() int {
	return max(p.itemIndex, 0)
}

// All iterates over the current page's items.
func (p *PagedResults[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i, item := range p.items {
			if !yield(i, item) {
				return
			}
		}
	}
}

// Links returns the link relations of the current page.
func (p *PagedResults[T]) Links() Links {
	links := make(Links, len(p.links))
	for rel, href := range p.links {
		links[rel] = href
	}

	return links
}

// Link returns the URL for rel on the current page.
func (p *PagedResults[T]) Link(rel string) (string, bool) {
	return p.links.Get(rel)
}

func (p *PagedResults[T]) values() url.Values {
	values := url.Values{}
	for key, v := range p.query {
		values[key] = append([]string(nil), v...)
	}

	if p.page > 0 {
		values.Set("page", strconv.Itoa(p.page))
	}

	if p.limit > 0 {
		values.Set("limit", strconv.Itoa(p.limit))
	}

	return values
}
