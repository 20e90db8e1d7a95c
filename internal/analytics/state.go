package analytics

import "shortlink-client/internal/domain"

// ListStatus is what the list body shows. The error banner is separate:
// a failed refetch keeps the previous items visible under the banner.
type ListStatus int

const (
	ListLoading ListStatus = iota
	ListEmpty
	ListReady
)

// ListState is the aggregate list view.
type ListState struct {
	Items   []domain.LinkSummary
	Loading bool
	Error   string
}

// Status reports which body the list view renders.
func (s ListState) Status() ListStatus {
	switch {
	case s.Loading:
		return ListLoading
	case len(s.Items) == 0:
		return ListEmpty
	default:
		return ListReady
	}
}

func (s ListState) clone() ListState {
	c := s
	c.Items = append([]domain.LinkSummary{}, s.Items...)
	return c
}

// LookupState is the single-code detail view.
type LookupState struct {
	Query   string
	Result  *domain.LinkDetail
	Loading bool
	Error   string
}

func (s LookupState) clone() LookupState {
	c := s
	c.Result = s.Result.Clone()
	return c
}
