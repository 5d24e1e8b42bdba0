package display

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/regconsole/internal/render"
	"github.com/dshills/regconsole/internal/schema"
)

// gatedSource blocks each Fetch until release is closed.
type gatedSource struct {
	calls   atomic.Int32
	release chan struct{}
	records []schema.Record
	err     error
}

func (g *gatedSource) Fetch(ctx context.Context) ([]schema.Record, error) {
	g.calls.Add(1)
	if g.release != nil {
		select {
		case <-g.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return g.records, g.err
}

func decode(t *testing.T, doc string) []schema.Record {
	t.Helper()
	recs, err := schema.DecodeRecords(strings.NewReader(doc))
	require.NoError(t, err)
	return recs
}

const twoRecords = `[
  {"bill":"A","jurisdiction":"US","docket":"D1","status":"pending","confidence":0.8,
   "lastUpdated":"2024-01-01","sourceUrls":["http://x"],
   "fields":{"f1":{"answer":"yes","confidence":0.9}},"tags":[["t1","cat1"]]},
  {"bill":"B","jurisdiction":"EU","docket":"D2","status":"final","confidence":0.6,
   "lastUpdated":"2024-03-01","sourceUrls":["http://y"],
   "fields":{"f1":{"answer":"no","confidence":0.7}},"tags":[["t2","cat2"]]}
]`

func textRenderer(t *testing.T) render.Renderer {
	t.Helper()
	r, err := render.NewRenderer("text")
	require.NoError(t, err)
	return r
}

func TestDisplay_EmptyBeforeResolve(t *testing.T) {
	src := &gatedSource{release: make(chan struct{}), records: decode(t, twoRecords)}
	d := New(src, textRenderer(t))

	done := make(chan error, 1)
	go func() { done <- d.Mount(context.Background()) }()

	out, err := d.Render()
	require.NoError(t, err)
	assert.Equal(t, render.Title+"\n", string(out))
	assert.Equal(t, StateEmpty, d.State())

	close(src.release)
	require.NoError(t, <-done)
	assert.Equal(t, StateLoaded, d.State())
}

func TestDisplay_LoadsInOrder(t *testing.T) {
	src := &gatedSource{records: decode(t, twoRecords)}
	var changes []State
	d := New(src, textRenderer(t), WithOnChange(func(s State) { changes = append(changes, s) }))

	require.NoError(t, d.Mount(context.Background()))
	out, err := d.Render()
	require.NoError(t, err)

	s := string(out)
	assert.Equal(t, 1, strings.Count(s, "A (US)"))
	assert.Equal(t, 1, strings.Count(s, "B (EU)"))
	assert.Less(t, strings.Index(s, "A (US)"), strings.Index(s, "B (EU)"))
	assert.Equal(t, []State{StateLoaded}, changes)
	assert.Len(t, d.Records(), 2)
}

func TestDisplay_SingleFetchPerMount(t *testing.T) {
	src := &gatedSource{records: decode(t, twoRecords)}
	d := New(src, textRenderer(t))

	require.NoError(t, d.Mount(context.Background()))
	assert.ErrorIs(t, d.Mount(context.Background()), ErrAlreadyMounted)
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestDisplay_FetchFailureStaysEmpty(t *testing.T) {
	boom := errors.New("connection refused")
	src := &gatedSource{err: boom}
	d := New(src, textRenderer(t))

	assert.ErrorIs(t, d.Mount(context.Background()), boom)
	assert.Equal(t, StateEmpty, d.State())
	out, err := d.Render()
	require.NoError(t, err)
	assert.NotContains(t, string(out), "Docket:")
}

func TestDisplay_CancelledFetchStaysEmpty(t *testing.T) {
	src := &gatedSource{release: make(chan struct{})}
	d := New(src, textRenderer(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, d.Mount(ctx), context.Canceled)
	assert.Equal(t, StateEmpty, d.State())
}

func TestDisplay_ResultAfterUnmountDropped(t *testing.T) {
	src := &gatedSource{release: make(chan struct{}), records: decode(t, twoRecords)}
	called := false
	d := New(src, textRenderer(t), WithOnChange(func(State) { called = true }))

	done := make(chan error, 1)
	go func() { done <- d.Mount(context.Background()) }()
	d.Unmount()
	close(src.release)

	require.NoError(t, <-done)
	assert.Equal(t, StateEmpty, d.State())
	assert.Empty(t, d.Records())
	assert.False(t, called)
}

func TestDisplay_RenderIdempotent(t *testing.T) {
	d := New(&gatedSource{records: decode(t, twoRecords)}, textRenderer(t))
	require.NoError(t, d.Mount(context.Background()))

	first, err := d.Render()
	require.NoError(t, err)
	second, err := d.Render()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDisplay_MissingTagsFailsRender(t *testing.T) {
	recs := decode(t, `[{"bill":"A","sourceUrls":["u"],"fields":{}}]`)
	d := New(&gatedSource{records: recs}, textRenderer(t))
	require.NoError(t, d.Mount(context.Background()))

	_, err := d.Render()
	var se *schema.ShapeError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, schema.KeyTags, se.Key)
}
