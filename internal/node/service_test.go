package node

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsOriginAllowed(t *testing.T) {
	s := &Service{allowAllOrigins: true}
	assert.True(t, s.isOriginAllowed("https://anything.example"))
	assert.True(t, s.isOriginAllowed(""))

	s = &Service{allowedOriginSet: map[string]struct{}{"https://ok.example": {}}}
	assert.True(t, s.isOriginAllowed("https://ok.example"))
	assert.False(t, s.isOriginAllowed("https://not-ok.example"))
	assert.True(t, s.isOriginAllowed("")) // no Origin header at all is never blocked
}

func TestQueryNow(t *testing.T) {
	fixed := int64(1_700_000_000)
	s := &Service{clock: func() int64 { return fixed }}

	req := httptest.NewRequest("GET", "/v1/keeper/resolvable-markets", nil)
	assert.Equal(t, fixed, s.queryNow(req))

	req = httptest.NewRequest("GET", "/v1/keeper/resolvable-markets?now=42", nil)
	assert.Equal(t, int64(42), s.queryNow(req))

	req = httptest.NewRequest("GET", "/v1/keeper/resolvable-markets?now=not-a-number", nil)
	assert.Equal(t, fixed, s.queryNow(req))
}

func TestEventHubBroadcastDropsSlowConsumer(t *testing.T) {
	h := newEventHub()
	ch := h.subscribe()
	defer h.unsubscribe(ch)

	for i := 0; i < 100; i++ {
		h.broadcast(eventMessage{Type: "instruction", TS: int64(i)})
	}

	select {
	case msg := <-ch:
		assert.Equal(t, "instruction", msg.Type)
	case <-time.After(time.Second):
		t.Fatal("expected at least one buffered message")
	}
}

func TestEventHubUnsubscribeClosesChannel(t *testing.T) {
	h := newEventHub()
	ch := h.subscribe()
	h.unsubscribe(ch)

	_, ok := <-ch
	require.False(t, ok)
}
