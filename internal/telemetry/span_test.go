package telemetry

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

func TestStartRoot(t *testing.T) {
	te := NewTestEmitter(nil)
	ctx := context.Background()

	_, _, err := te.StartRoot(ctx, "")
	assert.ErrorIs(t, err, ErrEmptyName)

	ctx1, a, err := te.StartRoot(ctx, "main_operation", attribute.Int("iteration", 1))
	require.NoError(t, err)
	_, b, err := te.StartRoot(ctx1, "main_operation")
	require.NoError(t, err)

	assert.NotEqual(t, a.TraceID(), b.TraceID(), "a root nested in another root's context still starts a new trace")
	require.NoError(t, b.End(StatusOK, ""))
	require.NoError(t, a.End(StatusOK, ""))

	roots := te.Roots()
	require.Len(t, roots, 2)
	for _, r := range roots {
		assert.False(t, r.Parent().IsValid())
	}
}

func TestStartChild_SharesTrace(t *testing.T) {
	te := NewTestEmitter(nil)

	ctx, root, err := te.StartRoot(context.Background(), "main_operation")
	require.NoError(t, err)
	childCtx, child, err := te.StartChild(ctx, root, "validate_data")
	require.NoError(t, err)
	_, grandchild, err := te.StartChild(childCtx, child, "lookup")
	require.NoError(t, err)

	assert.Equal(t, root.TraceID(), child.TraceID())
	assert.Equal(t, root.TraceID(), grandchild.TraceID())
	assert.NotEqual(t, root.SpanID(), child.SpanID())

	require.NoError(t, grandchild.End(StatusOK, ""))
	require.NoError(t, child.End(StatusOK, ""))
	require.NoError(t, root.End(StatusOK, ""))

	rootSpan := te.SpanByName("main_operation")
	childSpan := te.SpanByName("validate_data")
	require.NotNil(t, rootSpan)
	require.NotNil(t, childSpan)
	assert.Equal(t, rootSpan.SpanContext().SpanID(), childSpan.Parent().SpanID())
	assert.Len(t, te.ChildrenOf(rootSpan), 1)

	for _, s := range te.Spans() {
		assert.False(t, s.EndTime().Before(s.StartTime()), "span %s ends before it starts", s.Name())
	}
	assert.False(t, rootSpan.EndTime().Before(childSpan.EndTime()))
}

func TestStartChild_Errors(t *testing.T) {
	te := NewTestEmitter(nil)
	ctx := context.Background()

	_, _, err := te.StartChild(ctx, nil, "orphan")
	assert.ErrorIs(t, err, ErrNoParent)

	_, root, err := te.StartRoot(ctx, "main_operation")
	require.NoError(t, err)
	_, _, err = te.StartChild(ctx, root, "")
	assert.ErrorIs(t, err, ErrEmptyName)

	require.NoError(t, root.End(StatusOK, ""))
	_, _, err = te.StartChild(ctx, root, "late")
	assert.ErrorIs(t, err, ErrParentEnded)
}

func TestSpan_SetAttribute(t *testing.T) {
	te := NewTestEmitter(nil)
	_, span, err := te.StartRoot(context.Background(), "main_operation")
	require.NoError(t, err)

	require.NoError(t, span.SetAttribute("user.id", "user_42"))
	require.NoError(t, span.SetAttribute("iteration", 3))
	require.NoError(t, span.SetAttribute("ratio", float32(0.5)))
	require.NoError(t, span.SetAttribute("ok", true))
	require.NoError(t, span.SetAttribute("bytes", uint64(4096)))
	require.NoError(t, span.SetAttribute("count", uint(7)))
	require.NoError(t, span.SetAttribute("huge", uint64(math.MaxUint64)))

	err = span.SetAttribute("tags", []string{"a"})
	assert.ErrorIs(t, err, ErrUnsupportedValue)
	assert.ErrorIs(t, span.SetAttribute("", "x"), ErrEmptyKey)

	require.NoError(t, span.End(StatusOK, ""))
	assert.ErrorIs(t, span.SetAttribute("late", "x"), ErrSpanEnded)
	assert.ErrorIs(t, span.RecordError(errors.New("boom")), ErrSpanEnded)

	got := map[attribute.Key]attribute.Value{}
	for _, kv := range te.Spans()[0].Attributes() {
		got[kv.Key] = kv.Value
	}
	assert.Equal(t, "user_42", got["user.id"].AsString())
	assert.Equal(t, int64(3), got["iteration"].AsInt64())
	assert.Equal(t, 0.5, got["ratio"].AsFloat64())
	assert.True(t, got["ok"].AsBool())
	assert.Equal(t, int64(4096), got["bytes"].AsInt64())
	assert.Equal(t, int64(7), got["count"].AsInt64())
	assert.Equal(t, "18446744073709551615", got["huge"].AsString())
	assert.NotContains(t, got, attribute.Key("late"))
}

func TestSpan_EndDiscipline(t *testing.T) {
	te := NewTestEmitter(nil)
	ctx, root, err := te.StartRoot(context.Background(), "main_operation")
	require.NoError(t, err)
	_, child, err := te.StartChild(ctx, root, "store_data")
	require.NoError(t, err)

	assert.ErrorIs(t, root.End(StatusOK, ""), ErrOpenChildren)
	assert.False(t, root.Ended())

	require.NoError(t, child.End(StatusError, "storage_error"))
	assert.ErrorIs(t, child.End(StatusOK, ""), ErrSpanEnded)
	require.NoError(t, root.End(StatusError, "processing failed"))
	assert.True(t, root.Ended())

	childSpan := te.SpanByName("store_data")
	require.NotNil(t, childSpan)
	assert.Equal(t, codes.Error, childSpan.Status().Code)
	assert.Equal(t, "storage_error", childSpan.Status().Description)
	assert.Len(t, te.Spans(), 2)
}

func TestSpan_OKStatus(t *testing.T) {
	te := NewTestEmitter(nil)
	_, root, err := te.StartRoot(context.Background(), "main_operation")
	require.NoError(t, err)
	require.NoError(t, root.End(StatusOK, "ignored"))

	assert.Equal(t, codes.Ok, te.Spans()[0].Status().Code)
	assert.Equal(t, "ok", StatusOK.String())
	assert.Equal(t, "error", StatusError.String())
}
