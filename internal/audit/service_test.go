package audit

import (
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"
)

type stubTimelineRepo struct {
	rows     []TimelineRow
	lastCall WindowParams
}

func (s *stubTimelineRepo) AuditTimeline(_ context.Context, arg WindowParams) ([]TimelineRow, error) {
	s.lastCall = arg
	if int(arg.LimitRows) < len(s.rows) {
		return s.rows[:arg.LimitRows], nil
	}
	return s.rows, nil
}

func row(ts, actor, action, entity, entityID string) TimelineRow {
	at, _ := time.Parse(time.RFC3339, ts)
	return TimelineRow{At: at, Actor: actor, Action: action, Entity: entity, EntityID: entityID}
}

func TestServiceTimelinePaging(t *testing.T) {
	repo := &stubTimelineRepo{rows: []TimelineRow{
		row("2026-03-10T10:00:00Z", "1", "role.replaced", "role", "head"),
		row("2026-03-09T09:00:00Z", "1", "auth.login", "user", "1"),
		row("2026-03-08T08:00:00Z", "", "auth.login_failed", "identifier", "x@college.com"),
	}}
	svc := NewService(repo)
	result, err := svc.Timeline(context.Background(), TimelineFilters{
		From:     time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		To:       time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		Actor:    " 1 ",
		Page:     1,
		PageSize: 2,
	})
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)
	require.True(t, result.Paging.HasNext)
	require.Equal(t, 2, result.Paging.NextPage)
	require.Zero(t, result.Paging.PrevPage)
	require.EqualValues(t, 3, repo.lastCall.LimitRows)
	require.EqualValues(t, 0, repo.lastCall.OffsetRows)
	require.Equal(t, pgtype.Text{String: "1", Valid: true}, repo.lastCall.Actor)
	require.False(t, repo.lastCall.Entity.Valid)
	require.True(t, repo.lastCall.FromAt.Valid)
}

func TestServiceTimelineClampsPageSize(t *testing.T) {
	repo := &stubTimelineRepo{}
	svc := NewService(repo)
	result, err := svc.Timeline(context.Background(), TimelineFilters{Page: 3, PageSize: 500})
	require.NoError(t, err)
	require.NotNil(t, result.Rows)
	require.Equal(t, maxPageSize, result.Paging.PageSize)
	require.Equal(t, 2, result.Paging.PrevPage)
	require.EqualValues(t, 2*maxPageSize, repo.lastCall.OffsetRows)
	require.False(t, repo.lastCall.FromAt.Valid)
}

func TestServiceTimelineRejectsPagesPastOffsetRange(t *testing.T) {
	repo := &stubTimelineRepo{}
	svc := NewService(repo)

	_, err := svc.Timeline(context.Background(), TimelineFilters{Page: 100000000, PageSize: 50})
	require.ErrorIs(t, err, ErrPageOutOfRange)
	require.Zero(t, repo.lastCall.LimitRows, "repository must not be queried")

	_, err = svc.Timeline(context.Background(), TimelineFilters{Page: MaxPage, PageSize: 50})
	require.NoError(t, err)
	require.EqualValues(t, (MaxPage-1)*maxPageSize, repo.lastCall.OffsetRows)
}

func TestServiceWithoutRepository(t *testing.T) {
	_, err := NewService(nil).Timeline(context.Background(), TimelineFilters{})
	require.Error(t, err)
	_, err = NewService(nil).Export(context.Background(), TimelineFilters{})
	require.Error(t, err)
}

func TestServiceExportUsesCap(t *testing.T) {
	repo := &stubTimelineRepo{rows: []TimelineRow{row("2026-03-10T10:00:00Z", "1", "role.deleted", "role", "head")}}
	rows, err := NewService(repo).Export(context.Background(), TimelineFilters{Entity: "role"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.EqualValues(t, maxExportRows, repo.lastCall.LimitRows)
	require.Equal(t, "role", repo.lastCall.Entity.String)
}

func TestWriteCSV(t *testing.T) {
	r := row("2026-03-10T10:00:00Z", "1", "role.replaced", "role", "head")
	r.Meta = map[string]any{"created": false}
	out, err := WriteCSV([]TimelineRow{r})
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(string(out))).ReadAll()
	require.NoError(t, err)
	require.Equal(t, csvHeader, records[0])
	require.Equal(t, []string{"2026-03-10T10:00:00Z", "1", "role.replaced", "role", "head", `{"created":false}`}, records[1])
}
