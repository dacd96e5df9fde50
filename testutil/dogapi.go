package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
)

// DogAPI is a fake image API. Requests block on Gate when it is set, which
// lets tests observe the loading state.
type DogAPI struct {
	Server *httptest.Server
	Calls  atomic.Int32
	Gate   chan struct{}

	status  int
	payload any
	release sync.Once
}

func NewDogAPI(t *testing.T, status int, payload any) *DogAPI {
	t.Helper()

	return newDogAPI(t, status, payload, nil)
}

// NewGatedDogAPI is NewDogAPI with requests held until Release.
func NewGatedDogAPI(t *testing.T, status int, payload any) *DogAPI {
	t.Helper()

	return newDogAPI(t, status, payload, make(chan struct{}))
}

func newDogAPI(t *testing.T, status int, payload any, gate chan struct{}) *DogAPI {
	t.Helper()

	api := &DogAPI{status: status, payload: payload, Gate: gate} //nolint:exhaustruct

	api.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.Calls.Add(1)

		if api.Gate != nil {
			select {
			case <-api.Gate:
			case <-r.Context().Done():
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(api.status)
		_ = json.NewEncoder(w).Encode(api.payload)
	}))

	t.Cleanup(func() {
		api.Release()
		api.Server.Close()
	})

	return api
}

// Release lets held and future requests through. It is safe to call more
// than once.
func (a *DogAPI) Release() {
	if a.Gate == nil {
		return
	}

	a.release.Do(func() { close(a.Gate) })
}

func (a *DogAPI) URL() string {
	return a.Server.URL
}

func SuccessImage(message string) map[string]string {
	return map[string]string{"status": "success", "message": message}
}
