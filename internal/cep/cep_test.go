package cep_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mapleerp/employee-portal/internal/cep"
	"github.com/mapleerp/employee-portal/pkg/config"
	"github.com/mapleerp/employee-portal/pkg/errors"
	"github.com/mapleerp/employee-portal/pkg/logger"
	"github.com/mapleerp/employee-portal/pkg/testutil"
)

func newClient(t *testing.T) (*cep.Client, *testutil.FakeViaCEP) {
	t.Helper()
	fake := testutil.NewFakeViaCEP(t)
	c := cep.New(config.ViaCEPConfig{BaseURL: fake.URL, Timeout: 2 * time.Second}, logger.Nop())
	return c, fake
}

func TestValidate_IdenticalDigitsRejected(t *testing.T) {
	for d := '0'; d <= '9'; d++ {
		raw := string([]rune{d, d, d, d, d, d, d, d})
		_, err := cep.Validate(raw)
		require.Error(t, err, raw)
		assert.ErrorIs(t, err, errors.ErrInvalidFormat)
		assert.Equal(t, "CEP inválido", err.(*errors.AppError).Message)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantMsg string
	}{
		{raw: "01310-100", want: "01310100"},
		{raw: " 01310100 ", want: "01310100"},
		{raw: "01.310-100", want: "01310100"},
		{raw: "1234567", wantMsg: "CEP deve conter 8 dígitos"},
		{raw: "123456789", wantMsg: "CEP deve conter 8 dígitos"},
		{raw: "", wantMsg: "CEP deve conter 8 dígitos"},
		{raw: "00000-000", wantMsg: "CEP inválido"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := cep.Validate(tt.raw)
			if tt.wantMsg != "" {
				var appErr *errors.AppError
				require.ErrorAs(t, err, &appErr)
				assert.Equal(t, errors.CodeInvalidFormat, appErr.Code)
				assert.Equal(t, tt.wantMsg, appErr.Message)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "01310-100", cep.Format("01310100"))
	assert.Equal(t, "01310-100", cep.Format("01310-100"))
	assert.Equal(t, "123", cep.Format("123"))
	assert.Equal(t, "", cep.Format(""))
}

func TestLookup_MapsProviderFields(t *testing.T) {
	c, _ := newClient(t)

	addr, err := c.Lookup(context.Background(), "01310-100")
	require.NoError(t, err)
	assert.Equal(t, "Avenida Paulista", addr.Street)
	assert.Equal(t, "Bela Vista", addr.Neighborhood)
	assert.Equal(t, "São Paulo", addr.City)
	assert.Equal(t, "SP", addr.State)
	assert.Equal(t, "de 612 a 1510 - lado par", addr.Complement)
}

func TestLookup_InvalidInputMakesNoRequest(t *testing.T) {
	c, fake := newClient(t)

	_, err := c.Lookup(context.Background(), "11111111")
	assert.ErrorIs(t, err, errors.ErrInvalidFormat)

	_, err = c.Lookup(context.Background(), "0131")
	assert.ErrorIs(t, err, errors.ErrInvalidFormat)

	assert.Zero(t, fake.Hits())
}

func TestLookup_ErroFlagIsNotFound(t *testing.T) {
	c, fake := newClient(t)

	addr, err := c.Lookup(context.Background(), "99999-998")
	assert.Nil(t, addr)
	assert.ErrorIs(t, err, errors.ErrLookupNotFound)
	assert.Equal(t, "CEP não encontrado", err.(*errors.AppError).Message)
	assert.Equal(t, 1, fake.Hits())
}

func TestLookup_HTTPFailures(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		message  string
		wantErr  error
		wantCode string
		wantMsg  string
	}{
		{
			name:     "404 is not found",
			status:   http.StatusNotFound,
			wantErr:  errors.ErrLookupNotFound,
			wantCode: errors.CodeLookupNotFound,
			wantMsg:  "CEP não encontrado",
		},
		{
			name:     "upstream message is kept",
			status:   http.StatusBadRequest,
			message:  "Formato de CEP inválido",
			wantErr:  errors.ErrUpstream,
			wantCode: errors.CodeUpstream,
			wantMsg:  "Formato de CEP inválido",
		},
		{
			name:     "generic upstream failure",
			status:   http.StatusInternalServerError,
			wantErr:  errors.ErrUpstream,
			wantCode: errors.CodeUpstream,
			wantMsg:  "Erro ao buscar informações do CEP",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, fake := newClient(t)
			fake.Respond(tt.status, tt.message)

			_, err := c.Lookup(context.Background(), "01310100")
			var appErr *errors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantCode, appErr.Code)
			assert.Equal(t, tt.wantMsg, appErr.Message)
		})
	}
}

func TestLookup_TransportFailureIsNetwork(t *testing.T) {
	c, fake := newClient(t)
	fake.Close()

	_, err := c.Lookup(context.Background(), "01310100")
	assert.ErrorIs(t, err, errors.ErrNetwork)
	assert.Equal(t, errors.CodeNetwork, errors.CodeOf(err))
}

func TestLookup_CancelledContext(t *testing.T) {
	c, _ := newClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Lookup(ctx, "01310100")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, errors.ErrNetwork)
	assert.Equal(t, errors.CodeNetwork, errors.CodeOf(err))
}
