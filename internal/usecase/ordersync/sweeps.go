package ordersync

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/LavaJover/shvark-bleumipay-service/internal/domain"
	"github.com/LavaJover/shvark-bleumipay-service/internal/usecase/balance"
	"github.com/LavaJover/shvark-bleumipay-service/internal/usecase/recon"
)

// refundFuncs are the operation kinds that return funds to the customer.
var refundFuncs = map[string]bool{
	"createAndRefundWallet": true,
	"refundWallet":          true,
}

// FailUnpaidOrders abandons pending orders whose payment did not arrive
// within the await timeout.
func (uc *DefaultOrderSyncUsecase) FailUnpaidOrders(ctx context.Context, job domain.DataSource) {
	status := domain.StatusPending
	orders, err := uc.Store.Orders.FindOrders(ctx, domain.OrderFilter{Status: &status})
	if err != nil {
		slog.Error("failed to find pending orders", "job", job, "error", err.Error())
		return
	}

	now := uc.Now()
	for _, order := range orders {
		elapsed := now.Sub(order.ModifiedAt())
		if elapsed <= uc.Config.AwaitPaymentTimeout {
			continue
		}
		slog.Info("payment confirmation not received before cut-off time",
			"job", job,
			"order_id", order.ID,
			"elapsed_minutes", int(elapsed.Minutes()),
		)
		applied, err := uc.Store.Transition(ctx, order, domain.TransitionFail)
		if err != nil {
			slog.Error("failed to fail unpaid order", "job", job, "order_id", order.ID, "error", err.Error())
			continue
		}
		if applied {
			uc.Store.Emit(ctx, domain.ReconciliationEvent{OrderID: order.ID, Type: domain.EventOrderFailed, Job: job})
		}
	}
}

// VerifyCompleteRefunds makes sure every token of a refunded payment was
// returned. Each pass dispatches at most one more refund per order.
func (uc *DefaultOrderSyncUsecase) VerifyCompleteRefunds(ctx context.Context, job domain.DataSource) {
	status := domain.PaymentStatusRefunded
	orders, err := uc.Store.Orders.FindOrders(ctx, domain.OrderFilter{PaymentStatus: &status})
	if err != nil {
		slog.Error("failed to find refunded orders", "job", job, "error", err.Error())
		return
	}
	for _, order := range orders {
		if err := uc.verifyCompleteRefund(ctx, order, job); err != nil {
			slog.Error("verify complete refund failed", "job", job, "order_id", order.ID, "error", err.Error())
		}
	}
}

func (uc *DefaultOrderSyncUsecase) verifyCompleteRefund(ctx context.Context, order *domain.Order, job domain.DataSource) error {
	rec, err := uc.Store.Record(ctx, order.ID)
	if err != nil {
		return err
	}
	if rec.Inert() {
		uc.Store.Skip(job, order.ID, recon.InertReason(rec))
		return nil
	}

	payment, err := uc.Gateway.GetPayment(ctx, order.ID)
	if err != nil {
		slog.Info("token balance error", "job", job, "order_id", order.ID, "code", domain.CodeLookupFailed, "error", err.Error())
		return nil
	}

	// Every token still held is refundable, whatever the store currency.
	var held []domain.TokenBalance
	if payment != nil {
		held = balance.SuppressALGO(balance.PositiveBalances(payment.Balances))
	}
	if len(held) == 0 {
		return uc.markProcessingCompleted(ctx, order, job)
	}

	operations, err := uc.listOperations(ctx, order.ID)
	if err != nil {
		slog.Info("listPaymentOperations request failed", "job", job, "order_id", order.ID, "error", err.Error())
		return nil
	}

	for _, token := range held {
		if refunded(token, operations) {
			continue
		}
		slog.Info("token balance not refunded yet", "job", job, "order_id", order.ID, "chain", token.Chain, "token", token.Addr)
		info := &domain.PaymentInfo{ID: order.ID, TokenBalances: []domain.TokenBalance{token}}
		return uc.Refund(ctx, order, info, job)
	}
	return uc.markProcessingCompleted(ctx, order, job)
}

func (uc *DefaultOrderSyncUsecase) listOperations(ctx context.Context, paymentID string) ([]domain.Operation, error) {
	var (
		all   []domain.Operation
		token string
	)
	for {
		page, err := uc.Gateway.ListPaymentOperations(ctx, paymentID, token)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Results...)
		if page.NextToken == "" {
			return all, nil
		}
		if page.NextToken == token {
			return nil, fmt.Errorf("operation listing of %s repeats continuation token %q", paymentID, token)
		}
		token = page.NextToken
	}
}

func refunded(token domain.TokenBalance, operations []domain.Operation) bool {
	for _, op := range operations {
		if op.Hash != "" &&
			op.Status == domain.OperationConfirmed &&
			op.Chain == token.Chain &&
			op.Inputs.Token == token.Addr &&
			refundFuncs[op.FuncName] {
			return true
		}
	}
	return false
}

func (uc *DefaultOrderSyncUsecase) markProcessingCompleted(ctx context.Context, order *domain.Order, job domain.DataSource) error {
	if err := uc.Store.Update(ctx, order.ID, domain.RecordUpdate{ProcessingCompleted: domain.BoolPtr(true)}); err != nil {
		return err
	}
	slog.Info("refund processing completed", "job", job, "order_id", order.ID)
	uc.Store.Emit(ctx, domain.ReconciliationEvent{
		OrderID:       order.ID,
		Type:          domain.EventProcessingDone,
		PaymentStatus: domain.PaymentStatusRefunded,
		Job:           job,
	})
	return nil
}
