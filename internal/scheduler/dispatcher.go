package scheduler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
	"github.com/socialmatic/socialmatic/internal/transfer"
	"github.com/socialmatic/socialmatic/pkg/utils"
)

// Dispatcher performs deliveries at fire time: it signs the callback
// body and posts it to the destination registered with the job. A
// non-2xx response is returned as an error so the queue's retry policy
// re-delivers later.
type Dispatcher struct {
	signingSecret string
	httpClient    *http.Client
}

func NewDispatcher(signingSecret string) *Dispatcher {
	return &Dispatcher{
		signingSecret: signingSecret,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (d *Dispatcher) HandleDeliveryTask(ctx context.Context, task *asynq.Task) error {
	var payload DeliveryTaskPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	body, err := json.Marshal(transfer.DeliveryBody{
		UserID:  payload.UserID,
		Content: payload.Content,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, payload.Destination, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(utils.SignatureHeader, utils.Sign(body, []byte(d.signingSecret)))

	resp, err := d.httpClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err = fmt.Errorf("delivery to %s returned status %d", payload.Destination, resp.StatusCode)
		slog.Info(err.Error())
		return err
	}

	return nil
}
