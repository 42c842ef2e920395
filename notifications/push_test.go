package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpoPusherBatches(t *testing.T) {
	var calls, failed int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var msgs []ExpoPushMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&msgs))
		assert.LessOrEqual(t, len(msgs), expoBatchLimit)
		if atomic.AddInt32(&calls, 1) == 2 {
			atomic.AddInt32(&failed, 1)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tokens := make([]string, 250)
	for i := range tokens {
		tokens[i] = fmt.Sprintf("ExponentPushToken[%d]", i)
	}
	p := &ExpoPusher{URL: srv.URL, Client: srv.Client()}
	sent, err := p.Send(context.Background(), tokens, "t", "b", nil)
	assert.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, 150, sent)
}

func TestExpoPusherNoTokens(t *testing.T) {
	p := &ExpoPusher{URL: "http://127.0.0.1:1", Client: http.DefaultClient}
	sent, err := p.Send(context.Background(), nil, "t", "b", nil)
	assert.NoError(t, err)
	assert.Equal(t, 0, sent)
}

type recordingMailer struct{ to []string }

func (m *recordingMailer) Send(ctx context.Context, toEmail, subject, plain, html string) error {
	m.to = append(m.to, toEmail)
	return fmt.Errorf("smtp down")
}

func TestNotifierSwallowsErrors(t *testing.T) {
	m := &recordingMailer{}
	n := Notifier{Mailer: m}
	n.NewAnswer(context.Background(), Recipient{Email: "owner@leng.app"}, "alice", "q?", "a!")
	n.NewAnswer(context.Background(), Recipient{}, "alice", "q?", "a!")
	assert.Equal(t, []string{"owner@leng.app"}, m.to)
}
