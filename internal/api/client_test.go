package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

type recordingObserver struct {
	mu    sync.Mutex
	calls []string
}

func (o *recordingObserver) ObserveBackendCall(resource, operation, outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, resource+"/"+operation+"/"+outcome)
}

func newTestClient(t *testing.T, h http.Handler, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL, opts...)
	require.NoError(t, err)
	return c
}

func TestNewClient_RejectsBadURL(t *testing.T) {
	_, err := NewClient("ftp://example.com")
	assert.Error(t, err)
	_, err = NewClient("://nope")
	assert.Error(t, err)
}

func TestResourceList(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/accounts/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		ck, err := r.Cookie("access_token_cookie")
		if assert.NoError(t, err) {
			assert.Equal(t, "tok", ck.Value)
		}
		_, _ = io.WriteString(w, `[{"id":"a1","name":"Wallet","type":"cash","balance":12.5}]`)
	})
	mux.HandleFunc("/api/budgets", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "food", r.URL.Query().Get("category"))
		_, _ = io.WriteString(w, `{"budgets":[{"id":"b1","category":"food","amount":100,"period":"monthly"}]}`)
	})

	c := newTestClient(t, mux).WithCookies([]*http.Cookie{{Name: "access_token_cookie", Value: "tok"}})

	accounts, err := c.Accounts().List(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "Wallet", accounts[0].Name)
	assert.Equal(t, core.AccountCash, accounts[0].Type)
	assert.Equal(t, "12.5", accounts[0].Balance.String())

	budgets, err := c.Budgets().List(context.Background(), map[string][]string{"category": {"food"}})
	require.NoError(t, err)
	require.Len(t, budgets, 1)
	assert.Equal(t, core.Monthly, budgets[0].Period)
}

func TestResourceCreateUpdateRemove(t *testing.T) {
	var got map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("/api/transactions/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"message":"Transaction created","id":"t9"}`)
	})
	mux.HandleFunc("/api/transactions/t9", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPut:
			_, _ = io.WriteString(w, `{"message":"Transaction updated"}`)
		case http.MethodDelete:
			_, _ = io.WriteString(w, `{"message":"Transaction deleted"}`)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	c := newTestClient(t, mux)
	tx := c.Transactions()

	saved, err := tx.Create(context.Background(), map[string]any{"type": "transfer", "amount": 50})
	require.NoError(t, err)
	assert.Equal(t, "t9", saved.ID)
	assert.Equal(t, "t9", saved.Record.ID)
	assert.Equal(t, "Transaction created", saved.Message)
	assert.Equal(t, "transfer", got["type"])

	saved, err = tx.Update(context.Background(), "t9", map[string]any{"amount": 60})
	require.NoError(t, err)
	assert.Equal(t, "t9", saved.ID)

	ack, err := tx.Remove(context.Background(), "t9")
	require.NoError(t, err)
	assert.Equal(t, "t9", ack.ID)
	assert.Equal(t, "Transaction deleted", ack.Message)
}

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		status  int
		body    string
		kind    Kind
		message string
	}{
		{http.StatusUnauthorized, `{"message":"Unauthorized"}`, KindUnauthorized, "Unauthorized"},
		{http.StatusForbidden, ``, KindUnauthorized, "Forbidden"},
		{http.StatusNotFound, `{"error":"Account not found"}`, KindNotFound, "Account not found"},
		{http.StatusBadRequest, `{"message":"Validation failed","errors":{"email":"bad"}}`, KindValidation, "Validation failed"},
		{http.StatusUnprocessableEntity, `{}`, KindValidation, "Unprocessable Entity"},
		{http.StatusInternalServerError, `oops`, KindServer, "Internal Server Error"},
		{http.StatusBadGateway, ``, KindServer, "Bad Gateway"},
		{http.StatusConflict, ``, KindHTTP, "Conflict"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			_, err := c.Accounts().List(context.Background(), nil)
			require.Error(t, err)

			var apiErr *Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.kind, apiErr.Kind)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.message, apiErr.Message)
		})
	}
}

func TestValidationFields(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"message":"Validation failed","errors":{"email":"Please enter a valid email address"}}`)
	}))
	_, err := c.Register(context.Background(), Registration{Username: "ann"})
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Please enter a valid email address", apiErr.Fields["email"])
}

func TestNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	obs := &recordingObserver{}
	c, err := NewClient(url, WithObserver(obs))
	require.NoError(t, err)

	_, err = c.Transactions().List(context.Background(), nil)
	assert.Equal(t, KindNetwork, KindOf(err))
	assert.Equal(t, []string{"transactions/list/network"}, obs.calls)
}

func TestObserverOutcomes(t *testing.T) {
	obs := &recordingObserver{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/accounts/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	})
	mux.HandleFunc("/api/accounts/x", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	c := newTestClient(t, mux, WithObserver(obs))

	_, err := c.Accounts().List(context.Background(), nil)
	require.NoError(t, err)
	_, err = c.Accounts().Remove(context.Background(), "x")
	assert.True(t, IsNotFound(err))

	assert.Equal(t, []string{"accounts/list/ok", "accounts/remove/not_found"}, obs.calls)
}

func TestLoginAndCheckSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var creds Credentials
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		if creds.Password != "s3cret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"message":"Invalid credentials"}`)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "access_token_cookie", Value: "abc", Path: "/"})
		_, _ = io.WriteString(w, `{"message":"Login successful","user":{"id":"u1","username":"ann","email":"ann@example.com"}}`)
	})
	mux.HandleFunc("/api/check-session", func(w http.ResponseWriter, r *http.Request) {
		if _, err := r.Cookie("access_token_cookie"); err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = io.WriteString(w, `{"logged_in":true,"user":{"id":"u1","username":"ann"}}`)
	})
	c := newTestClient(t, mux)

	_, err := c.Login(context.Background(), Credentials{Username: "ann", Password: "nope"})
	assert.True(t, IsUnauthorized(err))

	res, err := c.Login(context.Background(), Credentials{Username: "ann", Password: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, "ann", res.User.Username)
	require.Len(t, res.Cookies, 1)

	_, err = c.CheckSession(context.Background())
	assert.True(t, IsUnauthorized(err))

	st, err := c.WithCookies(res.Cookies).CheckSession(context.Background())
	require.NoError(t, err)
	assert.True(t, st.LoggedIn)
	assert.Equal(t, "u1", st.User.ID)
}

func TestChart(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/charts/expense-by-category", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "7d", r.URL.Query().Get("timeframe"))
		_, _ = io.WriteString(w, `{"Food": 120.5, "Rent": 900}`)
	})
	mux.HandleFunc("/api/charts/income-vs-expense", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"total_income": 1000, "total_expense": 400, "net_flow": 600}`)
	})
	c := newTestClient(t, mux)

	s, err := c.Chart(context.Background(), core.ChartExpenseByCategory, core.Last7Days)
	require.NoError(t, err)
	assert.Equal(t, []string{"Rent", "Food"}, s.Labels)

	s, err = c.Chart(context.Background(), core.ChartIncomeVsExpense, core.Last30Days)
	require.NoError(t, err)
	assert.Equal(t, "600", s.Values[2].String())

	_, err = c.Chart(context.Background(), core.Chart("pie"), core.Last30Days)
	assert.Error(t, err)
}

func TestMergeCookies(t *testing.T) {
	existing := []*http.Cookie{
		{Name: "access_token_cookie", Value: "old"},
		{Name: "refresh_token_cookie", Value: "r1"},
		{Name: "session", Value: "s"},
	}
	fresh := []*http.Cookie{
		{Name: "access_token_cookie", Value: "new"},
		{Name: "session", Value: "", MaxAge: -1},
		{Name: "csrf", Value: "c"},
	}
	merged := MergeCookies(existing, fresh)

	names := make([]string, 0, len(merged))
	values := map[string]string{}
	for _, ck := range merged {
		names = append(names, ck.Name)
		values[ck.Name] = ck.Value
	}
	assert.Equal(t, []string{"access_token_cookie", "refresh_token_cookie", "csrf"}, names)
	assert.Equal(t, "new", values["access_token_cookie"])
}
