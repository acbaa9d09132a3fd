package service

import (
	"context"
	"database/sql"

	"storefront-service/internal/models"
	"storefront-service/internal/notify"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

// sendLogged delivers a transactional email and appends an email_logs audit
// row for the attempt, success or failure. Nothing here propagates: email is
// fire-and-log so a provider outage can never block a payment transition or
// an order creation. Orders without an email address are skipped.
func sendLogged(ctx context.Context, store Store, mailer notify.Mailer, logger *zap.Logger, order *models.Order, emailType string, msg notify.Message) {
	if order.CustomerEmail == "" {
		logger.Info("Skipping email, order has no address",
			zap.Int64("order_id", order.ID),
			zap.String("email_type", emailType))
		return
	}

	msg.ToEmail = order.CustomerEmail
	msg.ToName = order.CustomerName

	log := &models.EmailLog{
		OrderID:        order.ID,
		RecipientEmail: order.CustomerEmail,
		EmailType:      emailType,
	}

	messageID, err := mailer.Send(ctx, msg)
	if err != nil {
		logger.Error("Failed to send email",
			zap.Int64("order_id", order.ID),
			zap.String("email_type", emailType),
			zap.Error(err))
		util.EmailsSentTotal.WithLabelValues(emailType, models.EmailStatusFailed).Inc()

		log.Status = models.EmailStatusFailed
		log.ErrorMessage = sql.NullString{String: err.Error(), Valid: true}
	} else {
		util.EmailsSentTotal.WithLabelValues(emailType, models.EmailStatusSent).Inc()

		log.Status = models.EmailStatusSent
		log.ProviderMsgID = sql.NullString{String: messageID, Valid: true}
	}

	if err := store.CreateEmailLog(ctx, log); err != nil {
		logger.Error("Failed to record email log",
			zap.Int64("order_id", order.ID),
			zap.Error(err))
	}
}
