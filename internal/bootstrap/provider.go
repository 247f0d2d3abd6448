package bootstrap

import (
	"log/slog"

	"github.com/osse101/RentalsLedger_Go/internal/config"
	"github.com/osse101/RentalsLedger_Go/internal/payment/provider"
)

// NewPaymentInitiator returns the provider client selected by PAYMENT_PROVIDER
func NewPaymentInitiator(cfg *config.Config) provider.Initiator {
	if cfg.PaymentProvider == config.PaymentProviderMpesa {
		slog.Info(LogMsgPaymentProvider, "provider", cfg.PaymentProvider, "url", cfg.PaymentProviderURL)
		return provider.NewHTTPInitiator(provider.HTTPOptions{
			Name:        cfg.PaymentProvider,
			URL:         cfg.PaymentProviderURL,
			Token:       cfg.PaymentProviderToken,
			CallbackURL: cfg.PaymentCallbackURL,
			Timeout:     cfg.PaymentProviderTimeout,
			MaxRetries:  provider.DefaultMaxRetries,
		})
	}
	slog.Warn(LogMsgPaymentProvider, "provider", config.PaymentProviderFake)
	return provider.NewFake()
}
