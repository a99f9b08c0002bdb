package view

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kittclouds/constellation/internal/api"
	"github.com/kittclouds/constellation/pkg/driver"
	"github.com/kittclouds/constellation/pkg/graph"
	"github.com/kittclouds/constellation/pkg/highlight"
	"github.com/kittclouds/constellation/pkg/sched"
)

// countingSched records how many results the fetch goroutines have posted.
type countingSched struct {
	*sched.Manual
	posts atomic.Int32
}

func (c *countingSched) Post(fn func()) {
	c.Manual.Post(fn)
	c.posts.Add(1)
}

type reply struct {
	payload graph.Payload
	err     error
}

// seqFetcher answers call i with replies[i], blocking on release[i] first
// when present.
type seqFetcher struct {
	mu      sync.Mutex
	calls   int
	replies []reply
	release map[int]chan struct{}
}

func (f *seqFetcher) GetGraph(ctx context.Context) (graph.Payload, error) {
	f.mu.Lock()
	i := f.calls
	f.calls++
	r := f.replies[i]
	gate := f.release[i]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return r.payload, r.err
}

func intPtr(v int) *int { return &v }

// chain: w1 - s1 - w2, plus orphan w3.
func chainPayload() graph.Payload {
	return graph.Payload{
		Nodes: []graph.Node{
			{ID: "w1", Label: "ocean", Kind: graph.KindWord, ReviewCount: intPtr(3)},
			{ID: "w2", Label: "river", Kind: graph.KindWord},
			{ID: "s1", Label: "The river meets the ocean.", Kind: graph.KindSentence},
			{ID: "w3", Label: "alone", Kind: graph.KindWord},
		},
		Edges: []graph.Edge{
			{From: "w1", To: "s1"},
			{From: "w2", To: "s1"},
		},
	}
}

func newTestView(t *testing.T, f Fetcher, opts ...Option) (*Controller, *countingSched) {
	t.Helper()
	s := &countingSched{Manual: sched.NewManual(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))}
	v := New(s, f, opts...)
	t.Cleanup(v.Close)
	return v, s
}

// settle waits for n fetch results to be posted and runs them.
func settle(t *testing.T, s *countingSched, n int32) {
	t.Helper()
	require.Eventually(t, func() bool { return s.posts.Load() >= n }, 2*time.Second, time.Millisecond)
	s.Flush()
}

func loadedView(t *testing.T, p graph.Payload, opts ...Option) (*Controller, *countingSched) {
	t.Helper()
	v, s := newTestView(t, &seqFetcher{replies: []reply{{payload: p}}}, opts...)
	v.Mount(1000, 800)
	require.NoError(t, v.Load(context.Background()))
	settle(t, s, 1)
	st, msg := v.Status()
	require.Equal(t, StatusReady, st, msg)
	return v, s
}

func TestLoadReady(t *testing.T) {
	var statuses []Status
	v, _ := loadedView(t, chainPayload(), WithOnStatus(func(s Status, _ string) { statuses = append(statuses, s) }))

	assert.Equal(t, []Status{StatusLoading, StatusReady}, statuses)
	assert.Len(t, v.VisibleNodes(), 4)
	assert.Len(t, v.VisibleLinks(), 2)

	nodes, edges := v.Counts()
	assert.Equal(t, 4, nodes)
	assert.Equal(t, 2, edges)

	for _, n := range v.VisibleNodes() {
		assert.Equal(t, n.ID == "w3", n.Fixed, n.ID)
		assert.Equal(t, n.ID == "w3", v.Simulation().Body(n.ID).Pinned, n.ID)
	}
}

func TestForcesInstalledThenFrozen(t *testing.T) {
	v, s := loadedView(t, chainPayload())
	sim := v.Simulation()

	assert.ElementsMatch(t,
		[]string{driver.ForceCenter, driver.ForceAttract, driver.ForceCharge, driver.ForceLink},
		sim.Forces())
	assert.True(t, v.Driver().Armed())

	// (4 nodes + 2 edges) * 100ms
	s.Advance(599 * time.Millisecond)
	assert.False(t, v.Driver().Frozen())
	s.Advance(time.Millisecond)
	assert.True(t, v.Driver().Frozen())
	assert.Equal(t, []string{driver.ForceAttract}, sim.Forces())
}

func TestFitOncePerLoad(t *testing.T) {
	v, s := loadedView(t, chainPayload())
	cam := v.Simulation().Camera()

	s.Advance(driver.FitDelay - time.Millisecond)
	assert.Equal(t, 0, cam.Fits())
	s.Advance(time.Millisecond)
	assert.Equal(t, 1, cam.Fits())
	s.Advance(10 * time.Second)
	assert.Equal(t, 1, cam.Fits())
}

func TestLateMountStillFitsOnce(t *testing.T) {
	v, s := newTestView(t, &seqFetcher{replies: []reply{{payload: chainPayload()}}})
	require.NoError(t, v.Load(context.Background()))
	settle(t, s, 1)

	s.Advance(3 * time.Second)
	cam := v.Simulation().Camera()
	assert.Equal(t, 0, cam.Fits())
	assert.False(t, v.Driver().Frozen())
	assert.Empty(t, v.Simulation().Forces())

	v.Mount(800, 600)
	s.Advance(driver.PollInterval)
	assert.Equal(t, 1, cam.Fits())
	assert.Contains(t, v.Simulation().Forces(), driver.ForceCharge)

	s.Advance(10 * time.Second)
	assert.Equal(t, 1, cam.Fits())
	assert.True(t, v.Driver().Frozen())
}

func TestFetchErrorShowsMessage(t *testing.T) {
	fail := &api.APIError{StatusCode: 500, Message: "database unavailable"}
	v, s := newTestView(t, &seqFetcher{replies: []reply{{err: fail}}})
	require.NoError(t, v.Load(context.Background()))
	settle(t, s, 1)

	st, msg := v.Status()
	assert.Equal(t, StatusError, st)
	assert.Equal(t, "database unavailable", msg)
	assert.False(t, v.Driver().Armed())
}

func TestMalformedPayloadIsAnError(t *testing.T) {
	bad := graph.Payload{
		Nodes: []graph.Node{{ID: "w1", Kind: graph.KindWord}},
		Edges: []graph.Edge{{From: "w1", To: "ghost"}},
	}
	v, s := newTestView(t, &seqFetcher{replies: []reply{{payload: bad}}})
	require.NoError(t, v.Load(context.Background()))
	settle(t, s, 1)

	st, msg := v.Status()
	assert.Equal(t, StatusError, st)
	assert.Contains(t, msg, "ghost")
	assert.Empty(t, v.VisibleNodes())
}

func TestStaleLoadIsDropped(t *testing.T) {
	older := graph.Payload{Nodes: []graph.Node{{ID: "old", Kind: graph.KindWord}}}
	gate := make(chan struct{})
	f := &seqFetcher{
		replies: []reply{{payload: older}, {payload: chainPayload()}},
		release: map[int]chan struct{}{0: gate},
	}
	v, s := newTestView(t, f)
	v.Mount(800, 600)

	require.NoError(t, v.Load(context.Background()))
	require.Eventually(t, func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.calls == 1
	}, 2*time.Second, time.Millisecond)

	require.NoError(t, v.Load(context.Background()))
	settle(t, s, 1)
	require.Len(t, v.VisibleNodes(), 4)

	close(gate)
	settle(t, s, 2)
	st, _ := v.Status()
	assert.Equal(t, StatusReady, st)
	assert.Len(t, v.VisibleNodes(), 4)
}

func TestCloseDropsPendingLoad(t *testing.T) {
	gate := make(chan struct{})
	redraws := 0
	v, s := newTestView(t,
		&seqFetcher{replies: []reply{{payload: chainPayload()}}, release: map[int]chan struct{}{0: gate}},
		WithOnRedraw(func() { redraws++ }))

	require.NoError(t, v.Load(context.Background()))
	v.Close()
	before := redraws

	close(gate)
	settle(t, s, 1)
	st, _ := v.Status()
	assert.Equal(t, StatusLoading, st)
	assert.Nil(t, v.Simulation())
	assert.Equal(t, before, redraws)
	assert.Zero(t, s.Pending())
	assert.ErrorIs(t, v.Load(context.Background()), ErrClosed)
}

func TestEmptyGraphIsReadyAndUnarmed(t *testing.T) {
	v, s := loadedView(t, graph.Payload{})

	assert.Empty(t, v.VisibleNodes())
	assert.False(t, v.Driver().Armed())
	s.Advance(5 * time.Second)
	assert.Equal(t, 0, v.Simulation().Camera().Fits())
	assert.Zero(t, s.Pending())

	f := v.Frame(sched.NowMillis(s))
	assert.Empty(t, f.Commands)
	assert.Empty(t, f.Links)
}

func TestClickHighlightsNeighborsThenExpires(t *testing.T) {
	v, s := loadedView(t, chainPayload())

	v.Click("s1")
	h := v.Highlight()
	assert.Equal(t, "s1", h.ActiveNodeID)
	assert.True(t, h.HasNode("w1"))
	assert.True(t, h.HasNode("w2"))
	assert.False(t, h.HasNode("w3"))

	s.Advance(highlight.DefaultTTL)
	assert.False(t, v.Highlight().Active())
}

func TestClickAtHitsNodeUnderPointer(t *testing.T) {
	v, s := loadedView(t, chainPayload())

	var target graph.VisibleNode
	for _, n := range v.VisibleNodes() {
		if n.ID == "w3" {
			target = n
		}
	}
	sx, sy := v.Simulation().Camera().ToScreen(s.Now(), target.X, target.Y)

	id, ok := v.ClickAt(sx+2, sy-2)
	require.True(t, ok)
	assert.Equal(t, "w3", id)
	assert.Equal(t, "w3", v.Highlight().ActiveNodeID)

	_, ok = v.ClickAt(-5000, -5000)
	assert.False(t, ok)
	assert.Equal(t, "w3", v.Highlight().ActiveNodeID)
}

func TestHover(t *testing.T) {
	redraws := 0
	v, _ := loadedView(t, chainPayload(), WithOnRedraw(func() { redraws++ }))

	before := redraws
	v.Hover("w1")
	assert.Equal(t, "w1", v.Hovered())
	assert.Equal(t, before+1, redraws)
	v.Hover("w1")
	assert.Equal(t, before+1, redraws)
	assert.False(t, v.Highlight().Active())
}

func TestSetMaxVisible(t *testing.T) {
	v, _ := loadedView(t, chainPayload())

	require.NoError(t, v.SetMaxVisible(3))
	assert.Len(t, v.VisibleNodes(), 3)
	assert.True(t, v.Driver().Armed())

	require.NoError(t, v.SetMaxVisible(0))
	assert.Len(t, v.VisibleNodes(), 4)

	assert.Error(t, v.SetMaxVisible(-1))
}

func TestSetMaxVisibleKeepsCamera(t *testing.T) {
	v, s := loadedView(t, chainPayload())
	s.Advance(driver.FitDelay + driver.FitDuration)
	cam := v.Simulation().Camera()
	require.Equal(t, 1, cam.Fits())
	target := cam.Target()

	require.NoError(t, v.SetMaxVisible(3))
	assert.Same(t, cam, v.Simulation().Camera())
	assert.Equal(t, target, cam.At(s.Now()))

	s.Advance(10 * time.Second)
	assert.Equal(t, 1, cam.Fits())
	assert.Equal(t, target, cam.Target())
	assert.True(t, v.Driver().Fitted())
	assert.True(t, v.Driver().Frozen())
}

func TestFramePaintsEveryNodeAndLink(t *testing.T) {
	v, s := loadedView(t, chainPayload())

	f := v.Frame(sched.NowMillis(s))
	assert.Len(t, f.Links, 2)
	assert.GreaterOrEqual(t, len(f.Commands), 4)
	assert.Equal(t, 1, v.Simulation().Ticks())
	assert.Equal(t, 1000.0, f.Width)
	assert.Equal(t, 800.0, f.Height)
}

func TestFrameOnSchedulerClockShowsFittedCamera(t *testing.T) {
	v, s := loadedView(t, chainPayload())
	s.Advance(driver.FitDelay + driver.FitDuration)

	target := v.Simulation().Camera().Target()
	f := v.Frame(sched.NowMillis(s))
	assert.Equal(t, target.K, f.Scale)
	assert.Equal(t, target.X, f.CenterX)
	assert.Equal(t, target.Y, f.CenterY)
}

func TestPulserRedrawsWhileLoaded(t *testing.T) {
	redraws := 0
	v, s := loadedView(t, chainPayload(), WithOnRedraw(func() { redraws++ }))

	before := redraws
	s.Advance(time.Second)
	assert.GreaterOrEqual(t, redraws-before, 10)

	v.Close()
	before = redraws
	s.Advance(time.Second)
	assert.Equal(t, before, redraws)
}

func TestSnapshot(t *testing.T) {
	v, s := loadedView(t, chainPayload())

	snap := v.Snapshot()
	assert.Equal(t, s.Now(), snap.SavedAt)
	assert.Len(t, snap.Nodes, 4)
	assert.ElementsMatch(t, []string{"w1->s1", "w2->s1"}, snap.Links)

	w3, ok := snap.Position("w3")
	require.True(t, ok)
	assert.True(t, w3.Fixed)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "loading", StatusLoading.String())
	assert.Equal(t, "error", StatusError.String())
	assert.Equal(t, "ready", StatusReady.String())
	assert.Equal(t, "Status(9)", Status(9).String())
}

func TestSettle(t *testing.T) {
	v, m, err := Settle(context.Background(), &seqFetcher{replies: []reply{{payload: chainPayload()}}}, 800, 600, 0)
	require.NoError(t, err)
	defer v.Close()

	assert.True(t, v.Driver().Frozen())
	assert.True(t, v.Driver().Fitted())
	cam := v.Simulation().Camera()
	assert.Equal(t, 1, cam.Fits())
	assert.Equal(t, cam.Target(), cam.At(m.Now()))
	assert.Len(t, v.Snapshot().Nodes, 4)
}

func TestSettleErrors(t *testing.T) {
	_, _, err := Settle(context.Background(),
		&seqFetcher{replies: []reply{{err: &api.APIError{StatusCode: 502, Message: "bad gateway"}}}}, 800, 600, 0)
	assert.ErrorContains(t, err, "bad gateway")

	_, _, err = Settle(context.Background(), &seqFetcher{replies: []reply{{payload: chainPayload()}}}, 800, 600, 3)
	assert.ErrorIs(t, err, ErrNotSettled)
}

func TestSettleLargeGraphWithinSmallBudget(t *testing.T) {
	var p graph.Payload
	for i := 0; i < 200; i++ {
		p.Nodes = append(p.Nodes, graph.Node{ID: fmt.Sprintf("w%d", i), Label: fmt.Sprintf("word %d", i), Kind: graph.KindWord})
	}
	start := time.Now()

	// The freeze lands 20s in, far past 150 frames of 16ms.
	v, m, err := Settle(context.Background(), &seqFetcher{replies: []reply{{payload: p}}}, 800, 600, 150)
	require.NoError(t, err)
	defer v.Close()

	assert.True(t, v.Driver().Frozen())
	assert.True(t, v.Driver().Fitted())
	assert.False(t, v.Simulation().Active())
	assert.GreaterOrEqual(t, m.Now().Sub(start), 20*time.Second)
	cam := v.Simulation().Camera()
	assert.Equal(t, cam.Target(), cam.At(m.Now()))
}

func TestSettleEmptyGraph(t *testing.T) {
	v, _, err := Settle(context.Background(), &seqFetcher{replies: []reply{{payload: graph.Payload{}}}}, 800, 600, 0)
	require.NoError(t, err)
	defer v.Close()
	assert.False(t, v.Driver().Armed())
}

func TestSettleKeepsAPIError(t *testing.T) {
	_, _, err := Settle(context.Background(),
		&seqFetcher{replies: []reply{{err: &api.APIError{StatusCode: 401, Message: "Not authenticated"}}}}, 800, 600, 0)
	assert.True(t, api.IsAuthError(err))
	assert.Equal(t, 401, api.StatusCode(err))
}
