package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domainerrors "github.com/cvtoletter/backend/internal/domain/errors"
	"github.com/cvtoletter/backend/internal/domain/model"
	"github.com/cvtoletter/backend/internal/usecase"
)

func TestAdminService(t *testing.T) {
	ctx := context.Background()

	t.Run("reprocess uses the manual source without owner check", func(t *testing.T) {
		reconciler := new(MockReconciler)
		svc := usecase.NewAdminService(reconciler, new(MockCheckoutSessionRepository), nil, 50, zap.NewNop())

		reconciler.On("Reconcile", mock.Anything, usecase.ReconcileRequest{
			SessionID: "sess_1",
			Source:    model.SettledViaManual,
		}).Return(&usecase.ReconcileResult{Outcome: usecase.OutcomeApplied}, nil)

		res, err := svc.Reprocess(ctx, "sess_1")

		require.NoError(t, err)
		assert.Equal(t, usecase.OutcomeApplied, res.Outcome)
	})

	t.Run("reprocess pending collects per-session errors", func(t *testing.T) {
		reconciler := new(MockReconciler)
		sessions := new(MockCheckoutSessionRepository)
		svc := usecase.NewAdminService(reconciler, sessions, nil, 50, zap.NewNop())

		sessions.On("ListPending", mock.Anything, mock.MatchedBy(func(before time.Time) bool {
			return time.Since(before) >= time.Hour
		}), 100).Return([]*model.CheckoutSession{{SessionID: "sess_a"}, {SessionID: "sess_b"}}, nil)
		reconciler.On("Reconcile", mock.Anything, mock.MatchedBy(func(req usecase.ReconcileRequest) bool {
			return req.SessionID == "sess_a"
		})).Return(&usecase.ReconcileResult{Outcome: usecase.OutcomeApplied}, nil)
		reconciler.On("Reconcile", mock.Anything, mock.MatchedBy(func(req usecase.ReconcileRequest) bool {
			return req.SessionID == "sess_b"
		})).Return(nil, domainerrors.NewPaymentPendingError("sess_b", "open/unpaid"))

		results, err := svc.ReprocessPending(ctx, time.Hour, 0)

		require.NoError(t, err)
		assert.NoError(t, results["sess_a"])
		assert.True(t, domainerrors.IsKind(results["sess_b"], domainerrors.KindPaymentPending))
	})
}
