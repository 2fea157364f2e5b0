package workflows

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"

	"github.com/Apurer/go-gin-storefront/internal/domains/store/adapters/memory"
	"github.com/Apurer/go-gin-storefront/internal/domains/store/application"
	storetypes "github.com/Apurer/go-gin-storefront/internal/domains/store/application/types"
	checkoutactivities "github.com/Apurer/go-gin-storefront/internal/platform/temporal/activities/checkout"
)

func TestBuildSettlementWorkflowID_IsDeterministic(t *testing.T) {
	first := BuildSettlementWorkflowID("cs_test_1")
	assert.Equal(t, first, BuildSettlementWorkflowID(" cs_test_1 "))
	assert.NotEqual(t, first, BuildSettlementWorkflowID("cs_test_2"))
	assert.Regexp(t, `^payment-settlement-[0-9a-f]{16}$`, first)
}

func TestTranslateWorkflowError(t *testing.T) {
	refund := temporal.NewNonRetryableApplicationError("refund failed", checkoutactivities.ErrTypeRefundFailed, nil)
	err := translateWorkflowError(refund)
	assert.ErrorIs(t, err, application.ErrRefundFailed)
	assert.ErrorIs(t, err, application.ErrExternalService)

	missing := temporal.NewNonRetryableApplicationError("no order", checkoutactivities.ErrTypeOrderNotFound, nil)
	assert.ErrorIs(t, translateWorkflowError(missing), application.ErrNotFound)

	plain := errors.New("timeout")
	assert.Equal(t, plain, translateWorkflowError(plain))
}

func TestInlineSettlement(t *testing.T) {
	_, err := (&InlineSettlement{}).SettlePayment(context.Background(), storetypes.SettlementInput{SessionID: "cs"})
	require.Error(t, err)

	svc := application.NewService(memory.NewStore(), memory.NewPaymentProvider("whsec", ""))
	_, err = NewInlineSettlement(svc).SettlePayment(context.Background(), storetypes.SettlementInput{SessionID: "cs_unknown"})
	assert.ErrorIs(t, err, application.ErrNotFound)
}

func TestTemporalSettlement_NotConfigured(t *testing.T) {
	_, err := (&TemporalSettlement{}).SettlePayment(context.Background(), storetypes.SettlementInput{SessionID: "cs"})
	assert.Error(t, err)
}
