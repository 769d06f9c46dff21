/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package types

import "math"

const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// PageRequest is a 1-based page window. Values below 1 fall back to
// DefaultPage and DefaultLimit.
type PageRequest struct {
	page  int
	limit int
}

// NewPageRequest constructs a PageRequest for the given page and page size.
func NewPageRequest(page int, limit int) *PageRequest {
	return &PageRequest{page: page, limit: limit}
}

// NewDefaultPageRequest returns the first page with DefaultLimit rows.
func NewDefaultPageRequest() *PageRequest {
	return NewPageRequest(DefaultPage, DefaultLimit)
}

func (p *PageRequest) GetPage() int {
	if p.page < 1 {
		return DefaultPage
	}
	return p.page
}

func (p *PageRequest) GetLimit() int {
	if p.limit < 1 {
		return DefaultLimit
	}
	return p.limit
}

// GetOffset returns the number of rows to skip: (page-1) * limit, saturating
// at math.MaxInt instead of overflowing.
func (p *PageRequest) GetOffset() int {
	skipped, limit := p.GetPage()-1, p.GetLimit()
	if skipped > math.MaxInt/limit {
		return math.MaxInt
	}
	return skipped * limit
}

// Pagination holds one page of rows and the total number of rows matching
// the query regardless of the window.
type Pagination[T any] struct {
	Data  []*T `json:"data"`
	Total int  `json:"total"`
	Page  int  `json:"page"`
	Limit int  `json:"limit"`
}

// NewPagination constructs an empty page for the request.
func NewPagination[T any](req *PageRequest) *Pagination[T] {
	return &Pagination[T]{
		Data:  make([]*T, 0),
		Page:  req.GetPage(),
		Limit: req.GetLimit(),
	}
}

// TotalPages returns ceil(Total / Limit).
func (p *Pagination[T]) TotalPages() int {
	if p.Limit < 1 {
		return 0
	}
	return (p.Total + p.Limit - 1) / p.Limit
}
