package view_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Astemirdum/bookstore-storefront/storefront/internal/errs"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/view"
)

const listRoute = "GET /book/list"

func TestBookFeed_LoadsUntilShortPage(t *testing.T) {
	t.Parallel()
	e := newEnv(t, "")
	e.api.SeedBooks(13)
	feed := view.NewBookFeed(e.h.Books, e.clk, 8)
	t.Cleanup(feed.Close)
	ctx := context.Background()

	st, err := feed.LoadMore(ctx)
	require.NoError(t, err)
	require.Len(t, st.Books, 8)
	require.Equal(t, 8, st.Offset)
	require.True(t, st.HasMore)
	require.Empty(t, st.EndMessage)

	st, err = feed.LoadMore(ctx)
	require.NoError(t, err)
	require.Len(t, st.Books, 13)
	require.Equal(t, 13, st.Offset)
	require.False(t, st.HasMore)
	require.Equal(t, view.EndMessage, st.EndMessage)
	require.Equal(t, 2, e.api.Hits(listRoute))

	// exhausted feed sends nothing
	st, err = feed.LoadMore(ctx)
	require.NoError(t, err)
	require.Len(t, st.Books, 13)
	require.Equal(t, 2, e.api.Hits(listRoute))

	require.NoError(t, e.clk.WaitAdvance(3*time.Second, time.Second, 1))
	require.Eventually(t, func() bool {
		return feed.State().EndMessage == ""
	}, time.Second, 5*time.Millisecond)
}

func TestBookFeed_RejectsConcurrentLoad(t *testing.T) {
	t.Parallel()
	e := newEnv(t, "")
	e.api.SeedBooks(20)
	feed := view.NewBookFeed(e.h.Books, e.clk, 8)
	t.Cleanup(feed.Close)
	ctx := context.Background()

	release := e.api.Gate(listRoute)
	done := make(chan error, 1)
	go func() {
		_, err := feed.LoadMore(ctx)
		done <- err
	}()
	require.Eventually(t, func() bool { return feed.State().Loading }, time.Second, time.Millisecond)

	_, err := feed.LoadMore(ctx)
	require.ErrorIs(t, err, errs.ErrLoadInProgress)
	_, err = feed.Reload(ctx)
	require.ErrorIs(t, err, errs.ErrLoadInProgress)

	release()
	require.NoError(t, <-done)
	require.Len(t, feed.State().Books, 8)
	require.Equal(t, 1, e.api.Hits(listRoute))
}

func TestBookFeed_ReloadStartsOver(t *testing.T) {
	t.Parallel()
	e := newEnv(t, "")
	e.api.SeedBooks(10)
	feed := view.NewBookFeed(e.h.Books, e.clk, 8)
	t.Cleanup(feed.Close)
	ctx := context.Background()

	_, err := feed.LoadMore(ctx)
	require.NoError(t, err)
	st, err := feed.LoadMore(ctx)
	require.NoError(t, err)
	require.False(t, st.HasMore)

	e.api.SeedBooks(12)
	st, err = feed.Reload(ctx)
	require.NoError(t, err)
	require.Len(t, st.Books, 8)
	require.Equal(t, 8, st.Offset)
	require.True(t, st.HasMore)
	require.Empty(t, st.EndMessage)
	require.Equal(t, 3, e.api.Hits(listRoute))
}

func TestBookFeed_ErrorKeepsCursor(t *testing.T) {
	t.Parallel()
	e := newEnv(t, "")
	e.api.SeedBooks(8)
	feed := view.NewBookFeed(e.h.Books, e.clk, 8)
	t.Cleanup(feed.Close)

	e.api.Fail(listRoute, 500, "boom", 0)
	st, err := feed.LoadMore(context.Background())
	require.Error(t, err)
	require.Equal(t, 0, st.Offset)
	require.True(t, st.HasMore)
	require.False(t, st.Loading)

	e.api.Recover(listRoute)
	st, err = feed.LoadMore(context.Background())
	require.NoError(t, err)
	require.Len(t, st.Books, 8)
}
