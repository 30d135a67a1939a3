package user_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vaultbridge/internal/events"
	"vaultbridge/internal/kyc"
	"vaultbridge/internal/user"
	"vaultbridge/internal/user/store"
	id "vaultbridge/pkg/domain"
	dErrors "vaultbridge/pkg/domain-errors"
)

type fakeStatusReader struct {
	status kyc.Status
	err    error
	calls  int
}

func (f *fakeStatusReader) GetStatus(_ context.Context, _ string) (kyc.Status, error) {
	f.calls++
	return f.status, f.err
}

func seedUser(t *testing.T, st user.Store, u user.User) user.User {
	t.Helper()
	if u.ID.IsZero() {
		u.ID = id.NewUserID()
	}
	if u.KYCStatus == "" {
		u.KYCStatus = kyc.KYCNotStarted
	}
	if u.TOSStatus == "" {
		u.TOSStatus = kyc.TOSPending
	}
	u.CreatedAt = time.Now().UTC()
	require.NoError(t, st.Create(context.Background(), u))
	return u
}

type recordingEmitter struct {
	emitted []events.Event
}

func (r *recordingEmitter) Emit(_ context.Context, e events.Event) {
	r.emitted = append(r.emitted, e)
}

func newReconciler(st user.Store, reader user.StatusReader) *user.Service {
	return user.NewService(st, reader, events.NopEmitter{}, nil, slog.New(slog.DiscardHandler))
}

func TestService_RefreshStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("approved statuses derive verified and persist", func(t *testing.T) {
		st := store.NewMemoryStore()
		u := seedUser(t, st, user.User{FullName: "Jane Doe", Email: "jane@x.com", KYCLinkID: "link_1"})
		reader := &fakeStatusReader{status: kyc.Status{
			KYCStatus:  kyc.KYCApproved,
			TOSStatus:  kyc.TOSApproved,
			CustomerID: "cust_1",
		}}

		result, err := newReconciler(st, reader).RefreshStatus(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, kyc.KYCApproved, result.KYCStatus)
		assert.Equal(t, kyc.TOSApproved, result.TOSStatus)
		assert.True(t, result.IsVerified)

		stored, err := st.FindByID(ctx, u.ID)
		require.NoError(t, err)
		assert.True(t, stored.IsVerified)
		assert.Equal(t, "cust_1", stored.BridgeCustomerID, "customer id persisted the first time it appears")
	})

	t.Run("partial approval never verifies", func(t *testing.T) {
		st := store.NewMemoryStore()
		u := seedUser(t, st, user.User{Email: "jane@x.com", KYCLinkID: "link_1"})
		reader := &fakeStatusReader{status: kyc.Status{
			KYCStatus: kyc.KYCApproved,
			TOSStatus: kyc.TOSPending,
		}}

		result, err := newReconciler(st, reader).RefreshStatus(ctx, u.ID)
		require.NoError(t, err)
		assert.False(t, result.IsVerified)
	})

	t.Run("refresh is idempotent without external change", func(t *testing.T) {
		st := store.NewMemoryStore()
		u := seedUser(t, st, user.User{Email: "jane@x.com", KYCLinkID: "link_1"})
		reader := &fakeStatusReader{status: kyc.Status{
			KYCStatus:  kyc.KYCUnderReview,
			TOSStatus:  kyc.TOSApproved,
			CustomerID: "cust_1",
		}}
		svc := newReconciler(st, reader)

		first, err := svc.RefreshStatus(ctx, u.ID)
		require.NoError(t, err)
		second, err := svc.RefreshStatus(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("missing link id yields not_found without provider call", func(t *testing.T) {
		st := store.NewMemoryStore()
		u := seedUser(t, st, user.User{Email: "jane@x.com"})
		reader := &fakeStatusReader{}

		_, err := newReconciler(st, reader).RefreshStatus(ctx, u.ID)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
		assert.Zero(t, reader.calls)
	})

	t.Run("provider failure is recoverable and leaves state untouched", func(t *testing.T) {
		st := store.NewMemoryStore()
		u := seedUser(t, st, user.User{Email: "jane@x.com", KYCLinkID: "link_1"})
		reader := &fakeStatusReader{err: errors.New("provider down")}

		_, err := newReconciler(st, reader).RefreshStatus(ctx, u.ID)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))

		stored, err := st.FindByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, kyc.KYCNotStarted, stored.KYCStatus)
		assert.False(t, stored.IsVerified)
	})

	t.Run("unknown user yields not_found", func(t *testing.T) {
		st := store.NewMemoryStore()
		_, err := newReconciler(st, &fakeStatusReader{}).RefreshStatus(ctx, id.NewUserID())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("successful refresh emits a status event", func(t *testing.T) {
		st := store.NewMemoryStore()
		u := seedUser(t, st, user.User{Email: "jane@x.com", KYCLinkID: "link_1"})
		reader := &fakeStatusReader{status: kyc.Status{
			KYCStatus:  kyc.KYCApproved,
			TOSStatus:  kyc.TOSApproved,
			CustomerID: "cust_1",
		}}
		emitter := &recordingEmitter{}
		svc := user.NewService(st, reader, emitter, nil, slog.New(slog.DiscardHandler))

		_, err := svc.RefreshStatus(ctx, u.ID)
		require.NoError(t, err)

		require.Len(t, emitter.emitted, 1)
		e := emitter.emitted[0]
		assert.Equal(t, events.TypeStatusRefreshed, e.Type)
		assert.Equal(t, u.ID.String(), e.UserID)
		assert.Equal(t, "approved", e.Data["kyc_status"])
		assert.Equal(t, "true", e.Data["is_verified"])
	})

	t.Run("failed refresh emits nothing", func(t *testing.T) {
		st := store.NewMemoryStore()
		u := seedUser(t, st, user.User{Email: "jane@x.com", KYCLinkID: "link_1"})
		reader := &fakeStatusReader{err: errors.New("provider down")}
		emitter := &recordingEmitter{}
		svc := user.NewService(st, reader, emitter, nil, slog.New(slog.DiscardHandler))

		_, err := svc.RefreshStatus(ctx, u.ID)
		require.Error(t, err)
		assert.Empty(t, emitter.emitted)
	})
}

func TestService_Dashboard(t *testing.T) {
	ctx := context.Background()

	t.Run("gate is the verification conjunction", func(t *testing.T) {
		st := store.NewMemoryStore()
		u := seedUser(t, st, user.User{
			FullName:  "Jane Doe",
			Email:     "jane@x.com",
			KYCStatus: kyc.KYCApproved,
			TOSStatus: kyc.TOSApproved,
		})

		dash, err := newReconciler(st, &fakeStatusReader{}).Dashboard(ctx, u.ID)
		require.NoError(t, err)
		assert.True(t, dash.CanAccessFullFeature)
		assert.Equal(t, "Jane Doe", dash.User.FullName)
	})

	t.Run("unknown user yields not_found", func(t *testing.T) {
		st := store.NewMemoryStore()
		_, err := newReconciler(st, &fakeStatusReader{}).Dashboard(ctx, id.NewUserID())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
