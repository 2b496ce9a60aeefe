package worker

import (
	"encoding/json"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/opsfort/opsledger/internal/ledger"
	"github.com/opsfort/opsledger/internal/models"
	"github.com/opsfort/opsledger/internal/repository"
	"github.com/opsfort/opsledger/internal/stream"
)

// RiskAlertWorker watches applied transactions and raises an operational
// alert whenever an approval left a wallet in overdraft. Overdrafts are
// permitted by policy, so the alert is advisory: an email to the ops
// address plus an activity-log entry, nothing that blocks the ledger.
func (wk *Worker) RiskAlertWorker() {
	consumer, err := wk.KafkaStream.CreateConsumer(&stream.StreamConsumer{
		GroupId: riskAlertGroupID,
		Topic:   ledger.TransactionAppliedTopic,
	})

	if err != nil {
		wk.Logger.Error("creating risk alert consumer", "error", err)
		return
	}

	for {
		event := consumer.Poll(100) // Poll every 100ms
		switch e := event.(type) {
		case *kafka.Message:
			var applied ledger.AppliedEvent
			if err := json.Unmarshal(e.Value, &applied); err != nil {
				wk.Logger.Error("decoding applied event", "error", err)
				continue
			}

			if applied.IsNegative {
				wk.raiseOverdraftAlert(&applied)
			}
		case kafka.Error:
			wk.Logger.Error("kafka error", "error", e)
		default:
			// Handle other events if needed
		}
	}
}

func (wk *Worker) raiseOverdraftAlert(applied *ledger.AppliedEvent) {
	_, err := wk.DB.Activity().Insert(&models.ActivityLog{
		UserID:      applied.UserID,
		Entity:      repository.ActivityEntityTransaction,
		EntityID:    applied.TransactionID,
		Description: repository.ActivityOverdraftAlertDescription,
	})
	if err != nil {
		wk.Logger.Error("logging overdraft alert", "error", err, "transaction_id", applied.TransactionID)
	}

	if wk.OpsEmail == "" {
		return
	}

	data := map[string]any{
		"WalletID":      applied.WalletID,
		"UserID":        applied.UserID,
		"TransactionID": applied.TransactionID,
		"Amount":        applied.Amount,
		"BalanceAfter":  applied.BalanceAfter,
		"CreatedAt":     applied.CreatedAt,
	}

	if err := wk.Mailer.Send(wk.OpsEmail, data, "overdraft-alert.tmpl"); err != nil {
		wk.Logger.Error("sending overdraft alert", "error", err, "transaction_id", applied.TransactionID)
	}
}
