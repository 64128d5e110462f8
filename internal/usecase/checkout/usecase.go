package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/LavaJover/shvark-bleumipay-service/internal/domain"
	"github.com/LavaJover/shvark-bleumipay-service/internal/usecase/recon"
)

// CheckoutUsecase sends a customer to the hosted checkout and takes them
// back on return.
type CheckoutUsecase interface {
	CreateCheckout(ctx context.Context, orderID, successURL, cancelURL string) (string, error)
	HandleReturn(ctx context.Context, orderID string, v domain.CheckoutValidation) error
}

type DefaultCheckoutUsecase struct {
	Store   *recon.Store
	Gateway domain.PaymentGateway
}

func NewDefaultCheckoutUsecase(store *recon.Store, gateway domain.PaymentGateway) *DefaultCheckoutUsecase {
	return &DefaultCheckoutUsecase{Store: store, Gateway: gateway}
}

func (uc *DefaultCheckoutUsecase) CreateCheckout(ctx context.Context, orderID, successURL, cancelURL string) (string, error) {
	order, err := uc.Store.Orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return "", err
	}

	url, err := uc.Gateway.CreateCheckoutURL(ctx, domain.CheckoutRequest{
		OrderID:    order.ID,
		Currency:   order.Currency,
		Amount:     order.TotalAmount,
		SuccessURL: successURL,
		CancelURL:  cancelURL,
	})
	if err != nil {
		return "", fmt.Errorf("create checkout url for %s: %w", orderID, err)
	}
	if url == "" {
		return "", fmt.Errorf("create checkout url for %s: empty url", orderID)
	}
	slog.Info("checkout created", "order_id", orderID)
	return url, nil
}

// HandleReturn places the order and creates its reconciliation record. The
// order is confirmed only when the gateway accepts the return signature;
// otherwise it stays pending and ErrInvalidCheckout is returned.
func (uc *DefaultCheckoutUsecase) HandleReturn(ctx context.Context, orderID string, v domain.CheckoutValidation) error {
	order, err := uc.Store.Orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return err
	}
	if _, err := uc.Store.Transition(ctx, order, domain.TransitionPlace); err != nil {
		return err
	}

	valid, validateErr := uc.Gateway.ValidateCheckoutPayment(ctx, v)
	if err := uc.Store.Records.CreateRecord(ctx, order.ID); err != nil {
		return fmt.Errorf("create record %s: %w", order.ID, err)
	}
	if validateErr != nil {
		slog.Warn("checkout validation failed", "order_id", orderID, "error", validateErr.Error())
		return errors.Join(domain.ErrInvalidCheckout, validateErr)
	}
	if !valid {
		slog.Warn("checkout signature rejected", "order_id", orderID)
		return domain.ErrInvalidCheckout
	}

	_, err = uc.Store.Transition(ctx, order, domain.TransitionConfirm)
	return err
}
