package navigator_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rpggio/datapad/internal/domain/character"
	"github.com/rpggio/datapad/internal/domain/navigator"
	"github.com/rpggio/datapad/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// sparseSource serves every id in [1, max] except the absent ones.
type sparseSource struct {
	max     int
	absent  map[int]bool
	fetched []int
	all     []character.Character
}

func newSparseSource(max int, absent ...int) *sparseSource {
	src := &sparseSource{max: max, absent: map[int]bool{}}
	for _, id := range absent {
		src.absent[id] = true
	}
	return src
}

func (s *sparseSource) Fetch(_ context.Context, id int) (*character.Character, error) {
	s.fetched = append(s.fetched, id)
	if id < 1 || id > s.max || s.absent[id] {
		return nil, &character.FetchError{Kind: character.KindNotFound, ID: id}
	}
	return &character.Character{ID: id, Name: "character"}, nil
}

func (s *sparseSource) FetchAll(context.Context) ([]character.Character, error) {
	return s.all, nil
}

func TestNavigator_Wrap(t *testing.T) {
	svc := navigator.NewService(newSparseSource(88), navigator.Options{}, nil)

	cases := map[int]int{
		1:    1,
		88:   88,
		89:   1,
		0:    88,
		-1:   87,
		176:  88,
		177:  1,
		-88:  88,
		1000: 1000 % 88,
	}
	for in, want := range cases {
		require.Equal(t, want, svc.Wrap(in), "wrap(%d)", in)
	}
}

func TestNavigator_AdvanceSkipsAbsent(t *testing.T) {
	ctx := context.Background()
	src := newSparseSource(88, 5)
	svc := navigator.NewService(src, navigator.Options{MaxID: 88}, nil)

	res, err := svc.Advance(ctx, 4)
	require.NoError(t, err)
	require.Equal(t, 6, res.ID)
	require.Equal(t, 2, res.Fetches)
	require.Equal(t, []int{5, 6}, src.fetched)
}

func TestNavigator_AdvanceWrapsAtMax(t *testing.T) {
	ctx := context.Background()
	src := newSparseSource(88, 1, 2)
	svc := navigator.NewService(src, navigator.Options{MaxID: 88}, nil)

	res, err := svc.Advance(ctx, 88)
	require.NoError(t, err)
	require.Equal(t, 3, res.ID)
	require.Equal(t, []int{1, 2, 3}, src.fetched)
}

func TestNavigator_RetreatWrapsAtOne(t *testing.T) {
	ctx := context.Background()
	src := newSparseSource(88, 88)
	svc := navigator.NewService(src, navigator.Options{MaxID: 88}, nil)

	res, err := svc.Retreat(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 87, res.ID)
	require.Equal(t, []int{88, 87}, src.fetched)
}

func TestNavigator_FullCycleReturnsToStart(t *testing.T) {
	ctx := context.Background()
	svc := navigator.NewService(newSparseSource(88), navigator.Options{MaxID: 88}, nil)

	id := 17
	for i := 0; i < svc.MaxID(); i++ {
		res, err := svc.Advance(ctx, id)
		require.NoError(t, err)
		id = res.ID
	}
	require.Equal(t, 17, id)
}

func TestNavigator_RetreatInvertsAdvance(t *testing.T) {
	ctx := context.Background()
	svc := navigator.NewService(newSparseSource(88, 10, 11, 40), navigator.Options{MaxID: 88}, nil)

	for _, start := range []int{1, 9, 12, 39, 87, 88} {
		forward, err := svc.Advance(ctx, start)
		require.NoError(t, err)
		back, err := svc.Retreat(ctx, forward.ID)
		require.NoError(t, err)
		require.Equal(t, start, back.ID, "start %d", start)
	}
}

func TestNavigator_ScanIsBounded(t *testing.T) {
	ctx := context.Background()
	absent := make([]int, 0, 10)
	for id := 1; id <= 10; id++ {
		absent = append(absent, id)
	}
	src := newSparseSource(10, absent...)
	svc := navigator.NewService(src, navigator.Options{MaxID: 10}, nil)

	_, err := svc.Advance(ctx, 3)
	require.ErrorIs(t, err, navigator.ErrNoValidRecord)
	require.Len(t, src.fetched, 10)

	src.fetched = nil
	_, err = svc.JumpTo(ctx, 3)
	require.ErrorIs(t, err, navigator.ErrNoValidRecord)
	require.Len(t, src.fetched, 10)
}

func TestNavigator_OnlyPresentRecordIsReachedFromItself(t *testing.T) {
	ctx := context.Background()
	svc := navigator.NewService(newSparseSource(5, 1, 2, 4, 5), navigator.Options{MaxID: 5}, nil)

	res, err := svc.Advance(ctx, 3)
	require.NoError(t, err)
	require.Equal(t, 3, res.ID)
	require.Equal(t, 5, res.Fetches)
}

func TestNavigator_JumpToWrapsBeforeFetching(t *testing.T) {
	ctx := context.Background()
	src := newSparseSource(88)
	svc := navigator.NewService(src, navigator.Options{MaxID: 88}, nil)

	res, err := svc.JumpTo(ctx, 90)
	require.NoError(t, err)
	require.Equal(t, 2, res.ID)
	require.False(t, res.Fallback)

	res, err = svc.JumpTo(ctx, -3)
	require.NoError(t, err)
	require.Equal(t, 85, res.ID)
	require.Equal(t, []int{2, 85}, src.fetched)
}

func TestNavigator_JumpToFallback(t *testing.T) {
	ctx := context.Background()

	svc := navigator.NewService(newSparseSource(88, 17), navigator.Options{MaxID: 88}, nil)
	res, err := svc.JumpTo(ctx, 17)
	require.NoError(t, err)
	require.True(t, res.Fallback)
	require.Equal(t, 17, res.RequestedID)
	require.Equal(t, 18, res.ID)
	require.NotNil(t, res.Character)
	require.Equal(t, 18, res.Character.ID)
	require.Equal(t, 2, res.Fetches)
}

func TestNavigator_JumpToFallbackLegacyResult(t *testing.T) {
	ctx := context.Background()

	svc := navigator.NewService(newSparseSource(88, 17), navigator.Options{MaxID: 88, LegacyJumpResult: true}, nil)
	res, err := svc.JumpTo(ctx, 17)
	require.NoError(t, err)
	require.True(t, res.Fallback)
	require.Equal(t, 18, res.ID)
	require.Nil(t, res.Character)
}

func TestNavigator_TransportErrorAbortsScan(t *testing.T) {
	ctx := context.Background()
	src := &mocks.CharacterSource{}
	transport := &character.FetchError{Kind: character.KindTransport, ID: 6, Err: errors.New("connection reset")}

	src.On("Fetch", ctx, 5).Return(nil, &character.FetchError{Kind: character.KindNotFound, ID: 5})
	src.On("Fetch", ctx, 6).Return(nil, transport)

	svc := navigator.NewService(src, navigator.Options{MaxID: 88}, nil)
	_, err := svc.Advance(ctx, 4)
	require.ErrorIs(t, err, character.ErrTransport)
	src.AssertNumberOfCalls(t, "Fetch", 2)
}

func TestNavigator_ParseErrorIsSkipped(t *testing.T) {
	ctx := context.Background()
	src := &mocks.CharacterSource{}

	src.On("Fetch", ctx, 2).Return(nil, &character.FetchError{Kind: character.KindParse, ID: 2})
	src.On("Fetch", ctx, 3).Return(&character.Character{ID: 3, Name: "R2-D2"}, nil)

	svc := navigator.NewService(src, navigator.Options{}, nil)
	res, err := svc.Advance(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 3, res.ID)
	require.Equal(t, "R2-D2", res.Character.Name)
}

func TestNavigator_CanceledContextStopsScan(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &mocks.CharacterSource{}
	svc := navigator.NewService(src, navigator.Options{}, nil)
	_, err := svc.Advance(ctx, 1)
	require.ErrorIs(t, err, context.Canceled)
	src.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
}

func TestNavigator_SearchIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	src := newSparseSource(88)
	src.all = []character.Character{
		{ID: 1, Name: "Luke Skywalker"},
		{ID: 2, Name: "C-3PO"},
		{ID: 4, Name: "Darth Vader"},
	}
	svc := navigator.NewService(src, navigator.Options{}, nil)

	upper, err := svc.Search(ctx, "Luke Skywalker")
	require.NoError(t, err)
	lower, err := svc.Search(ctx, "luke skywalker")
	require.NoError(t, err)
	require.Equal(t, upper.ID, lower.ID)
	require.Equal(t, 1, lower.ID)

	res, err := svc.Search(ctx, "  DARTH vader ")
	require.NoError(t, err)
	require.Equal(t, 4, res.ID)
	require.Equal(t, "Darth Vader", res.Character.Name)
}

func TestNavigator_SearchMisses(t *testing.T) {
	ctx := context.Background()
	src := newSparseSource(88)
	src.all = []character.Character{{ID: 1, Name: "Luke Skywalker"}}
	svc := navigator.NewService(src, navigator.Options{}, nil)

	_, err := svc.Search(ctx, "Luke")
	require.ErrorIs(t, err, navigator.ErrNoMatch)

	_, err = svc.Search(ctx, "   ")
	require.ErrorIs(t, err, navigator.ErrInvalidInput)
}

func TestNavigator_SearchPropagatesCollectionFailure(t *testing.T) {
	ctx := context.Background()
	src := &mocks.CharacterSource{}
	src.On("FetchAll", ctx).Return(nil, &character.FetchError{Kind: character.KindTransport, Err: errors.New("timeout")})

	svc := navigator.NewService(src, navigator.Options{}, nil)
	_, err := svc.Search(ctx, "Yoda")
	require.ErrorIs(t, err, character.ErrTransport)
}
