package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	checkoutResponse "github.com/Alturino/storefront/checkout/response"
	"github.com/Alturino/storefront/internal/constants"
	"github.com/Alturino/storefront/internal/testutil"
)

type recorder struct {
	mu     sync.Mutex
	events []checkoutResponse.OrderPaid
	fail   string
}

func (r *recorder) OrderPaid(c context.Context, event checkoutResponse.OrderPaid) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if event.OrderNumber == r.fail {
		return errors.New("mailbox unavailable")
	}
	r.events = append(r.events, event)
	return nil
}

func (r *recorder) orderNumbers() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	numbers := make([]string, 0, len(r.events))
	for _, event := range r.events {
		numbers = append(numbers, event.OrderNumber)
	}
	return numbers
}

func TestListener(t *testing.T) {
	c := testutil.Context()
	cache := testutil.Redis(t, c)

	notifier := &recorder{fail: "000009"}
	listener := NewListener(cache, notifier, 2)

	runCtx, cancel := context.WithCancel(c)
	done := make(chan error, 1)
	go func() { done <- listener.Run(runCtx) }()

	publish := func(payload string) int64 {
		receivers, err := cache.Publish(c, constants.ChannelOrderPaid, payload).Result()
		require.NoError(t, err)
		return receivers
	}
	paid := func(number string) string {
		payload, err := json.Marshal(checkoutResponse.OrderPaid{
			OrderID:     1,
			OrderNumber: number,
			Email:       "jane@example.com",
			TotalPrice:  "10.00",
		})
		require.NoError(t, err)
		return string(payload)
	}

	require.Eventually(t, func() bool { return publish(paid("000001")) > 0 }, 10*time.Second, 50*time.Millisecond)
	publish("not json")
	publish(`{"order_id":3}`)
	publish(paid("000009"))
	publish(paid("000002"))

	assert.Eventually(t, func() bool { return len(notifier.orderNumbers()) == 2 }, 5*time.Second, 50*time.Millisecond)
	assert.ElementsMatch(t, []string{"000001", "000002"}, notifier.orderNumbers())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("listener did not stop after cancel")
	}
}

func TestConfirmationLogger(t *testing.T) {
	c := testutil.Context()
	notifier := ConfirmationLogger{}

	err := notifier.OrderPaid(c, checkoutResponse.OrderPaid{OrderNumber: "000001", Email: "jane@example.com", TotalPrice: "10.00"})
	assert.NoError(t, err)

	err = notifier.OrderPaid(c, checkoutResponse.OrderPaid{OrderNumber: "000002"})
	assert.ErrorIs(t, err, ErrNoRecipient)
}
