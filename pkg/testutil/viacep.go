package testutil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

// ViaCEPAddress is the provider's JSON shape
type ViaCEPAddress struct {
	CEP         string `json:"cep"`
	Logradouro  string `json:"logradouro"`
	Complemento string `json:"complemento"`
	Bairro      string `json:"bairro"`
	Localidade  string `json:"localidade"`
	UF          string `json:"uf"`
}

// FakeViaCEP serves /{cep}/json/ from an in-memory table.
// Unknown postal codes answer {"erro": true} with status 200, as ViaCEP does.
type FakeViaCEP struct {
	*httptest.Server

	mu        sync.Mutex
	addresses map[string]ViaCEPAddress
	status    int
	message   string
	hits      atomic.Int64
	// Gate, when set, blocks every response until it is closed
	Gate chan struct{}
}

// NewFakeViaCEP starts a fake seeded with Avenida Paulista
func NewFakeViaCEP(t *testing.T) *FakeViaCEP {
	t.Helper()
	f := &FakeViaCEP{
		addresses: map[string]ViaCEPAddress{
			"01310100": {
				CEP:         "01310-100",
				Logradouro:  "Avenida Paulista",
				Complemento: "de 612 a 1510 - lado par",
				Bairro:      "Bela Vista",
				Localidade:  "São Paulo",
				UF:          "SP",
			},
		},
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(func() {
		f.mu.Lock()
		if f.Gate != nil {
			select {
			case <-f.Gate:
			default:
				close(f.Gate)
			}
		}
		f.mu.Unlock()
		f.Close()
	})
	return f
}

// Add registers an address under its digits-only postal code
func (f *FakeViaCEP) Add(cep string, addr ViaCEPAddress) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addresses[cep] = addr
}

// Respond makes every request answer with status and an optional {"message"} body
func (f *FakeViaCEP) Respond(status int, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status, f.message = status, message
}

// Hits returns how many lookups reached the server
func (f *FakeViaCEP) Hits() int {
	return int(f.hits.Load())
}

func (f *FakeViaCEP) serve(w http.ResponseWriter, r *http.Request) {
	f.hits.Add(1)

	f.mu.Lock()
	gate, status, message := f.Gate, f.status, f.message
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if status != 0 {
		writeMessage(w, status, message)
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 2 || parts[1] != "json" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	addr, ok := f.addresses[parts[0]]
	f.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusOK, map[string]bool{"erro": true})
		return
	}
	writeJSON(w, http.StatusOK, addr)
}

// Block holds every response until the returned release func is called
func (f *FakeViaCEP) Block() (release func()) {
	gate := make(chan struct{})
	f.mu.Lock()
	f.Gate = gate
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			select {
			case <-gate:
			default:
				close(gate)
			}
		})
	}
}
