package worker

import (
	"log/slog"

	"github.com/opsfort/opsledger/internal/repository"
	"github.com/opsfort/opsledger/internal/smtp"
	"github.com/opsfort/opsledger/internal/stream"
)

// Worker dependencies are shared by all consumers; worker-specific inputs
// are passed as arguments to the individual worker methods.
type Worker struct {
	KafkaStream *stream.KafkaStream
	DB          repository.Database
	Mailer      smtp.MailerInterface
	Logger      *slog.Logger

	// OpsEmail receives risk alerts; alerts are skipped when it's unset.
	OpsEmail string
}

const (
	// riskAlertGroupID is used by workers that react to applied-transaction
	// events with advisory checks; they never mutate wallet balances.
	riskAlertGroupID = "wallet-risk-alert-group"
)

func New(wk *Worker) *Worker {
	return &Worker{
		KafkaStream: wk.KafkaStream,
		DB:          wk.DB,
		Mailer:      wk.Mailer,
		Logger:      wk.Logger,
		OpsEmail:    wk.OpsEmail,
	}
}
