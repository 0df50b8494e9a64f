package grpc_control

import (
	"context"
	"io"
	"net"
	"sync"
	"testing"

	"quake-observer/src/dashboard"
	"quake-observer/src/helpers"
	"quake-observer/src/logger"
	"quake-observer/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type fakeRegistry struct {
	mu      sync.Mutex
	filter  models.MFilterSnapshot
	retries int
	limit   int
}

func (r *fakeRegistry) List() []models.MSessionStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return []models.MSessionStatus{{SessionID: "s1", Filter: r.filter, Cycles: 2}}
}

func (r *fakeRegistry) Status(id string) (models.MSessionStatus, error) {
	if id != "s1" {
		return models.MSessionStatus{}, dashboard.ErrUnknownSession
	}
	return r.List()[0], nil
}

func (r *fakeRegistry) UpdateFilter(id string, patch models.MFilterPatch) (models.MFilterSnapshot, error) {
	if id != "s1" {
		return models.MFilterSnapshot{}, dashboard.ErrUnknownSession
	}
	if patch.MaxDepth != nil && *patch.MaxDepth < 0 {
		return models.MFilterSnapshot{}, helpers.NewInvalidFilterValueError(models.ParamMaxDepth, *patch.MaxDepth)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filter = r.filter.Apply(patch)
	return r.filter, nil
}

func (r *fakeRegistry) Retry(id string) error {
	if id != "s1" {
		return dashboard.ErrUnknownSession
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.retries >= r.limit {
		return dashboard.ErrRetryRateLimited
	}
	r.retries++
	return nil
}

// -----------------------------------------------------------------------------

func newClient(t *testing.T, reg *fakeRegistry) *ControlClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	RegisterControlServer(srv, NewControlService(reg, logger.NewLoggerWithWriter(nil, "Test", io.Discard)))
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewControlClient(conn)
}

func fp(v float64) *float64 { return &v }

func TestControl_ListAndStatus(t *testing.T) {
	reg := &fakeRegistry{filter: models.MFilterSnapshot{MinMagnitude: 1, MaxDepth: 40, TimeRangeHours: 24}}
	c := newClient(t, reg)
	ctx := context.Background()

	list, err := c.ListSessions(ctx)
	require.NoError(t, err)
	sessions := list.GetFields()["sessions"].GetListValue().GetValues()
	require.Len(t, sessions, 1)
	assert.Equal(t, "s1", sessions[0].GetStructValue().GetFields()["session_id"].GetStringValue())

	st, err := c.GetStatus(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2.0, st.GetFields()["cycles"].GetNumberValue())
	assert.Equal(t, 40.0, st.GetFields()["filter"].GetStructValue().GetFields()["max_depth"].GetNumberValue())

	_, err = c.GetStatus(ctx, "missing")
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestControl_UpdateFilter(t *testing.T) {
	reg := &fakeRegistry{filter: models.MFilterSnapshot{MinMagnitude: 1, MaxDepth: 40, TimeRangeHours: 24}}
	c := newClient(t, reg)
	ctx := context.Background()

	out, err := c.UpdateFilter(ctx, "s1", models.MFilterPatch{MinMagnitude: fp(4)})
	require.NoError(t, err)
	assert.Equal(t, 4.0, out.GetFields()["min_magnitude"].GetNumberValue())
	assert.Equal(t, 40.0, out.GetFields()["max_depth"].GetNumberValue())

	_, err = c.UpdateFilter(ctx, "s1", models.MFilterPatch{MaxDepth: fp(-1)})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = c.UpdateFilter(ctx, "", models.MFilterPatch{MaxDepth: fp(10)})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestControl_RetryLimits(t *testing.T) {
	reg := &fakeRegistry{limit: 1}
	c := newClient(t, reg)
	ctx := context.Background()

	require.NoError(t, c.Retry(ctx, "s1"))
	assert.Equal(t, codes.ResourceExhausted, status.Code(c.Retry(ctx, "s1")))
	assert.Equal(t, codes.NotFound, status.Code(c.Retry(ctx, "other")))
}

func TestToStatus_Codes(t *testing.T) {
	cases := map[error]codes.Code{
		dashboard.ErrUnknownSession:                                  codes.NotFound,
		dashboard.ErrRetryRateLimited:                                codes.ResourceExhausted,
		dashboard.ErrSessionClosed:                                   codes.FailedPrecondition,
		helpers.NewInvalidFilterValueError(models.ParamMaxDepth, -1): codes.InvalidArgument,
	}
	for err, want := range cases {
		assert.Equal(t, want, status.Code(toStatus(err)), err.Error())
	}
}
