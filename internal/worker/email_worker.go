package worker

// email_worker.go
// Processes email jobs from QueueEmail. Delivery goes through the circuit
// breaker so a downed SMTP relay fails fast instead of blocking workers;
// exhausted jobs land in the DLQ.

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"stockledger/internal/infra"
)

const maxEmailAttempts = 3

// EmailJobPayload is the job envelope sent to QueueEmail.
type EmailJobPayload struct {
	ToEmail string `json:"to_email"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type EmailWorker struct {
	mailer *infra.Mailer
	cb     *infra.CircuitBreaker
	rdb    *redis.Client
}

func NewEmailWorker(mailer *infra.Mailer, cb *infra.CircuitBreaker, rdb *redis.Client) *EmailWorker {
	return &EmailWorker{mailer: mailer, cb: cb, rdb: rdb}
}

// Process delivers one email, re-enqueueing on transient failure until the
// attempt budget runs out.
func (w *EmailWorker) Process(ctx context.Context, raw json.RawMessage, attempts int) {
	var payload EmailJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("email_worker: invalid payload")
		return
	}
	if payload.ToEmail == "" {
		log.Warn().Msg("email_worker: empty to_email, skipping")
		return
	}

	err := w.cb.Execute(func() error {
		return w.mailer.Send(payload.ToEmail, payload.Subject, payload.Body)
	})
	if err == nil {
		log.Info().Str("to", payload.ToEmail).Str("subject", payload.Subject).
			Msg("email_worker: alert sent")
		return
	}

	attempts++
	if attempts >= maxEmailAttempts {
		SendToDLQ(ctx, w.rdb, QueueEmail, "email", raw, err.Error(), attempts)
		return
	}

	job := Job{Type: "email", Payload: raw, Attempts: attempts}
	encoded, mErr := json.Marshal(job)
	if mErr != nil {
		log.Error().Err(mErr).Msg("email_worker: could not re-encode job")
		return
	}
	if pushErr := w.rdb.LPush(ctx, QueueEmail, encoded).Err(); pushErr != nil {
		log.Error().Err(pushErr).Msg("email_worker: could not re-enqueue job")
		return
	}
	log.Warn().Err(err).Int("attempts", attempts).Str("to", payload.ToEmail).
		Msg("email_worker: delivery failed, re-enqueued")
}
