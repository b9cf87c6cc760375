// Package cep looks up Brazilian postal codes (CEP) through ViaCEP.
package cep

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mapleerp/employee-portal/internal/employee/domain"
	"github.com/mapleerp/employee-portal/pkg/config"
	"github.com/mapleerp/employee-portal/pkg/errors"
	"github.com/mapleerp/employee-portal/pkg/logger"
)

// Length is the number of digits in a CEP
const Length = 8

// Client wraps the ViaCEP API
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
}

// New creates a ViaCEP client
func New(cfg config.ViaCEPConfig, log *logger.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     log,
	}
}

// viaCEPResponse is the provider payload. Erro is set for unknown codes.
type viaCEPResponse struct {
	CEP         string `json:"cep"`
	Logradouro  string `json:"logradouro"`
	Complemento string `json:"complemento"`
	Bairro      string `json:"bairro"`
	Localidade  string `json:"localidade"`
	UF          string `json:"uf"`
	Erro        bool   `json:"erro"`
}

func (r viaCEPResponse) toAddress() *domain.AddressData {
	return &domain.AddressData{
		Street:       r.Logradouro,
		Neighborhood: r.Bairro,
		City:         r.Localidade,
		State:        r.UF,
		Complement:   r.Complemento,
	}
}

// Lookup resolves a postal code into an address.
// Invalid input fails with CEP_INVALID_FORMAT without touching the network.
func (c *Client) Lookup(ctx context.Context, raw string) (*domain.AddressData, error) {
	cep, err := Validate(raw)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/%s/json/", c.baseURL, cep), nil)
	if err != nil {
		return nil, errors.Internal(fmt.Sprintf("failed to create request: %v", err))
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().Str("cep", cep).Msg("looking up postal code")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// cancellation still unwraps to context.Canceled
		if ctx.Err() != nil {
			return nil, errors.Network(ctx.Err(), "")
		}
		c.logger.Warn().Err(err).Str("cep", cep).Msg("postal code lookup failed")
		return nil, errors.Network(err, "")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Network(err, "")
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, errors.LookupNotFound()
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(body, &errResp)
		c.logger.Warn().
			Int("status", resp.StatusCode).
			Str("cep", cep).
			Msg("postal code provider returned an error")
		return nil, errors.Upstream(resp.StatusCode, errResp.Message)
	}

	var out viaCEPResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, errors.Upstream(resp.StatusCode, "")
	}
	if out.Erro {
		return nil, errors.LookupNotFound()
	}

	return out.toAddress(), nil
}

// Normalize strips everything but digits
func Normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Validate normalizes raw and checks it is a plausible CEP
func Validate(raw string) (string, error) {
	cep := Normalize(raw)
	if len(cep) != Length {
		return "", errors.InvalidFormat("cep.invalid_length")
	}
	if strings.Count(cep, cep[:1]) == Length {
		return "", errors.InvalidFormat("cep.invalid")
	}
	return cep, nil
}

// IsValid reports whether raw normalizes to 8 digits that are not all identical
func IsValid(raw string) bool {
	_, err := Validate(raw)
	return err == nil
}

// Format renders "01310100" as "01310-100". Input that does not
// normalize to 8 digits is returned unchanged.
func Format(raw string) string {
	cep := Normalize(raw)
	if len(cep) != Length {
		return raw
	}
	return cep[:5] + "-" + cep[5:]
}
