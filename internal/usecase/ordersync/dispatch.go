package ordersync

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/LavaJover/shvark-bleumipay-service/internal/domain"
)

// Settle transfers the order total in the resolved token to the merchant.
// A failed dispatch is a transient syncOrder error.
func (uc *DefaultOrderSyncUsecase) Settle(ctx context.Context, order *domain.Order, info *domain.PaymentInfo, job domain.DataSource) error {
	if len(info.TokenBalances) == 0 {
		return fmt.Errorf("settle %s: no token balance resolved", order.ID)
	}
	if err := uc.Sleep(ctx, uc.Config.RateLimitDelay); err != nil {
		return err
	}

	token := info.TokenBalances[0]
	result, err := uc.Gateway.SettlePayment(ctx, domain.TransferRequest{
		PaymentID: info.ID,
		Chain:     token.Chain,
		Token:     token.Addr,
		Amount:    order.TotalAmount,
	})
	uc.Metrics.RecordDispatch("settle", err == nil)
	if err != nil {
		return uc.Store.MarkTransient(ctx, job, order.ID, domain.RetrySyncOrder, domain.CodeSettleDispatch, err.Error())
	}
	if result.TxID == "" {
		slog.Warn("settlePayment returned no txid", "job", job, "order_id", order.ID)
		return nil
	}

	err = uc.Store.Update(ctx, order.ID, domain.RecordUpdate{
		TxID:                domain.StringPtr(result.TxID),
		PaymentStatus:       domain.PaymentStatusPtr(domain.PaymentStatusSettleInProgress),
		ProcessingCompleted: domain.BoolPtr(false),
		DataSource:          domain.DataSourcePtr(job),
	})
	if err != nil {
		return err
	}
	if err := uc.Store.ClearTransient(ctx, order.ID); err != nil {
		return err
	}

	slog.Info("settlePayment invoked", "job", job, "order_id", order.ID, "txid", result.TxID, "chain", token.Chain, "token", token.Addr)
	uc.Store.Emit(ctx, domain.ReconciliationEvent{
		OrderID:       order.ID,
		Type:          domain.EventSettleDispatched,
		PaymentStatus: domain.PaymentStatusSettleInProgress,
		TxID:          result.TxID,
		Job:           job,
	})
	return nil
}

// Refund returns the resolved token balance to the customer. A failed
// dispatch is a transient syncOrder error.
func (uc *DefaultOrderSyncUsecase) Refund(ctx context.Context, order *domain.Order, info *domain.PaymentInfo, job domain.DataSource) error {
	if len(info.TokenBalances) == 0 {
		return fmt.Errorf("refund %s: no token balance resolved", order.ID)
	}
	if err := uc.Sleep(ctx, uc.Config.RateLimitDelay); err != nil {
		return err
	}

	token := info.TokenBalances[0]
	result, err := uc.Gateway.RefundPayment(ctx, domain.TransferRequest{
		PaymentID: info.ID,
		Chain:     token.Chain,
		Token:     token.Addr,
		Amount:    token.Balance,
	})
	uc.Metrics.RecordDispatch("refund", err == nil)

	update := domain.RecordUpdate{DataSource: domain.DataSourcePtr(job)}
	if err != nil {
		if markErr := uc.Store.MarkTransient(ctx, job, order.ID, domain.RetrySyncOrder, domain.CodeRefundDispatch, err.Error()); markErr != nil {
			return markErr
		}
		return uc.Store.Update(ctx, order.ID, update)
	}
	if result.TxID == "" {
		slog.Warn("refundPayment returned no txid", "job", job, "order_id", order.ID)
		return uc.Store.Update(ctx, order.ID, update)
	}

	update.TxID = domain.StringPtr(result.TxID)
	update.PaymentStatus = domain.PaymentStatusPtr(domain.PaymentStatusRefundInProgress)
	update.ProcessingCompleted = domain.BoolPtr(false)
	if err := uc.Store.Update(ctx, order.ID, update); err != nil {
		return err
	}
	if err := uc.Store.ClearTransient(ctx, order.ID); err != nil {
		return err
	}

	slog.Info("refundPayment invoked", "job", job, "order_id", order.ID, "txid", result.TxID, "chain", token.Chain, "token", token.Addr)
	uc.Store.Emit(ctx, domain.ReconciliationEvent{
		OrderID:       order.ID,
		Type:          domain.EventRefundDispatched,
		PaymentStatus: domain.PaymentStatusRefundInProgress,
		TxID:          result.TxID,
		Job:           job,
	})
	return nil
}
