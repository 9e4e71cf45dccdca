package backend

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subeth/subeth/internal/domain/subscription"
	vo "github.com/subeth/subeth/internal/domain/subscription/valueobjects"
	"github.com/subeth/subeth/internal/shared/errors"
	"github.com/subeth/subeth/internal/shared/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL+"/", 0, logger.NewNopLogger())
}

func TestListUserSubscriptions(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/subscriptions/user/0xAbC", r.URL.Path)
		_, _ = w.Write([]byte(`[
			{"id":1,"userId":"0xAbC","planId":"p1","status":"active","onChainSubscriptionId":3,"cancelled":false},
			{"id":2,"userId":"0xAbC","planId":"p2","status":"cancelled","onChainSubscriptionId":"115792089237316195423570985008687907853269984665640564039457584007913129639935","cancelled":true},
			{"id":3,"userId":"0xAbC","planId":"p3","status":"past_due","onChainSubscriptionId":null,"cancelled":false}
		]`))
	})

	subs, err := client.ListUserSubscriptions(context.Background(), "0xAbC")

	require.NoError(t, err)
	require.Len(t, subs, 3)
	assert.Equal(t, "3", subs[0].OnChainSubscriptionID.String())
	assert.Equal(t, vo.StatusActive, subs[0].Status)
	assert.Equal(t, 256, subs[1].OnChainSubscriptionID.BitLen())
	assert.True(t, subs[1].Cancelled)
	assert.Nil(t, subs[2].OnChainSubscriptionID)
}

func TestListUserSubscriptions_NonArrayIsEmpty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":"nothing here"}`))
	})

	subs, err := client.ListUserSubscriptions(context.Background(), "0x1")

	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestRelayCreate(t *testing.T) {
	var got subscription.RelayCreateRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/subscriptions/relay/create", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	})

	req := subscription.RelayCreateRequest{
		UserID: "0x1", PlanID: "p1", Token: "0xA", Receiver: "0xB",
		Amount: "1000000000000000000", Interval: "86400",
		StartTime: "0", EndTime: "0", MaxExecutions: "0",
		Nonce: "5", Signature: "0xsig",
	}
	require.NoError(t, client.RelayCreate(context.Background(), req))
	assert.Equal(t, req, got)
}

func TestRelayErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"backend message", http.StatusBadRequest, `{"error":"plan not found"}`, "plan not found"},
		{"no error field", http.StatusInternalServerError, `{}`, "Backend failed with status 500"},
		{"empty body", http.StatusBadGateway, ``, "Backend failed with status 502"},
		{"non json body", http.StatusServiceUnavailable, `upstream down`, "Backend failed with status 503"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			err := client.RelayCancel(context.Background(), subscription.RelayCancelRequest{UserID: "0x1"})

			require.Error(t, err)
			assert.True(t, errors.IsBackendError(err))
			assert.Equal(t, tt.message, errors.Message(err))
			assert.Equal(t, tt.status, errors.GetAppError(err).Code)
		})
	}
}

func TestRelayCancelPayload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/subscriptions/relay/cancel", r.URL.Path)
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(12), body["backendSubId"])
		assert.Equal(t, "7", body["onChainSubId"])
		w.WriteHeader(http.StatusOK)
	})

	err := client.RelayCancel(context.Background(), subscription.RelayCancelRequest{
		UserID: "0x1", BackendSubID: 12, OnChainSubID: "7", Nonce: "0", Signature: "0xsig",
	})
	require.NoError(t, err)
}

func TestCreateAndCancelSubscription(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/subscriptions":
			var body map[string]json.RawMessage
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "4", string(body["onChainSubscriptionId"]))
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":9,"userId":"0x1","planId":"p1","status":"active","onChainSubscriptionId":4,"cancelled":false}`))
		case "/api/subscriptions/9/cancel":
			assert.Equal(t, http.MethodPost, r.Method)
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	sub, err := client.CreateSubscription(context.Background(), subscription.CreateRecordRequest{
		UserID: "0x1", PlanID: "p1", OnChainSubscriptionID: big.NewInt(4),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(9), sub.ID)

	require.NoError(t, client.CancelSubscription(context.Background(), 9))
}

func TestPlans(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/plans":
			_, _ = w.Write([]byte(`[{"id":"p1","name":"Pro","price":"1000000","tokenDecimals":6,"intervalSeconds":86400}]`))
		case "/api/plans/p1":
			_, _ = w.Write([]byte(`{"id":"p1","name":"Pro","price":"1000000"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"no such plan"}`))
		}
	})

	plans, err := client.ListPlans(context.Background())
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, 6, plans[0].Decimals())

	plan, err := client.GetPlan(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "Pro", plan.Name)

	_, err = client.GetPlan(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.IsNotFoundError(err))
}

func TestCheckAdmin(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/admins/check/0xadmin" {
			_, _ = w.Write([]byte(`{"isAdmin":true}`))
			return
		}
		w.WriteHeader(http.StatusForbidden)
	})

	assert.True(t, client.CheckAdmin(context.Background(), "0xadmin"))
	assert.False(t, client.CheckAdmin(context.Background(), "0xother"))
}

func TestTransportFailureIsBackendError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()
	client := NewClient(server.URL, 0, logger.NewNopLogger())

	_, err := client.ListPlans(context.Background())

	require.Error(t, err)
	assert.True(t, errors.IsBackendError(err))
}

func TestPlanMutationsSendAdminHeaders(t *testing.T) {
	var seen []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "0xsig", r.Header.Get("x-admin-signature"))
		assert.Equal(t, "0xAdmin", r.Header.Get("x-admin-address"))
		seen = append(seen, r.Method+" "+r.URL.Path)
		switch r.Method {
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			_, _ = w.Write([]byte(`{"id":"p9","name":"Pro","price":"1"}`))
		}
	})
	auth := subscription.AdminAuth{Address: "0xAdmin", Signature: "0xsig"}
	ctx := context.Background()

	created, err := client.CreatePlan(ctx, subscription.PlanInput{Name: "Pro"}, auth)
	require.NoError(t, err)
	assert.Equal(t, "p9", created.ID)

	_, err = client.UpdatePlan(ctx, "p9", subscription.PlanInput{Name: "Pro"}, auth)
	require.NoError(t, err)
	require.NoError(t, client.DeletePlan(ctx, "p9", auth))

	assert.Equal(t, []string{"POST /api/plans", "PUT /api/plans/p9", "DELETE /api/plans/p9"}, seen)
}

func TestPlanMutationRejected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid admin signature"}`))
	})

	err := client.DeletePlan(context.Background(), "p9", subscription.AdminAuth{})

	require.Error(t, err)
	assert.Equal(t, "invalid admin signature", errors.Message(err))
}
