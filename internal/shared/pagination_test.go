package shared_test

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/college-os/college-os/internal/shared"
)

func TestPagination(t *testing.T) {
	p := shared.NewPagination(0, 0, 45)
	require.Equal(t, 1, p.Page)
	require.Equal(t, 20, p.PerPage)
	require.Equal(t, 3, p.TotalPages)

	start, end := shared.NewPagination(3, 20, 45).Bounds()
	require.Equal(t, 40, start)
	require.Equal(t, 45, end)

	start, end = shared.NewPagination(9, 20, 45).Bounds()
	require.Equal(t, 45, start)
	require.Equal(t, 45, end)

	require.Equal(t, 100, shared.NewPagination(1, 1000, 5).PerPage)
}

func TestPaginationFromQuery(t *testing.T) {
	p := shared.PaginationFromQuery(url.Values{"page": {"2"}, "per_page": {"3"}}, 10)
	require.Equal(t, shared.Pagination{Page: 2, PerPage: 3, Total: 10, TotalPages: 4}, p)

	p = shared.PaginationFromQuery(url.Values{"page": {"x"}}, 0)
	require.Equal(t, 1, p.Page)
	require.Zero(t, p.TotalPages)
}
