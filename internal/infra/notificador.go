package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// CierrePayload is posted by the worker pool to the external accounting
// webhook each time a corte closes.
type CierrePayload struct {
	CorteID       string `json:"corte_id"`
	Ambito        string `json:"ambito"`
	SucursalID    string `json:"sucursal_id"`
	Fecha         string `json:"fecha"`
	SaldoInicial  string `json:"saldo_inicial"`
	SaldoEsperado string `json:"saldo_esperado"`
	SaldoReal     string `json:"saldo_real"`
	Diferencia    string `json:"diferencia"`
	EstadoFinal   string `json:"estado_final"`
	FechaCierre   string `json:"fecha_cierre"`
}

// CierreAck is what the webhook returns on acceptance.
type CierreAck struct {
	Recibido bool   `json:"recibido"`
	Folio    string `json:"folio"`
}

// NotificadorCierres is an HTTP client for the external accounting webhook.
// Delivery failures are absorbed by the retry cron; the notifier itself only
// reports them.
type NotificadorCierres struct {
	webhookURL string
	httpClient *http.Client
}

func NewNotificadorCierres(webhookURL string) *NotificadorCierres {
	return &NotificadorCierres{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Notificar sends a POST with the cierre payload and returns the webhook ack.
func (c *NotificadorCierres) Notificar(ctx context.Context, payload CierrePayload) (*CierreAck, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("notificador: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("notificador: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("notificador: webhook unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return nil, fmt.Errorf("notificador: webhook returned %d", resp.StatusCode)
	}

	var ack CierreAck
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return nil, fmt.Errorf("notificador: decode response: %w", err)
	}
	return &ack, nil
}
