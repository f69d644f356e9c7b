package sendgrid

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paybridge/internal/domain/notification"
	"paybridge/internal/infrastructure/config"
)

func newTestClient(url, apiKey, from string) *Client {
	return NewClient(&config.EmailConfig{
		APIKey:    apiKey,
		APIURL:    url,
		FromEmail: from,
		FromName:  "Exclusave Shop",
		Timeout:   2 * time.Second,
	})
}

func TestClient_Send(t *testing.T) {
	t.Run("正常系: v3 mail/send の形式で送信", func(t *testing.T) {
		var body map[string]interface{}
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "Bearer SG.key", r.Header.Get("Authorization"))
			raw, _ := io.ReadAll(r.Body)
			require.NoError(t, json.Unmarshal(raw, &body))
			w.WriteHeader(http.StatusAccepted)
		}))
		defer server.Close()

		err := newTestClient(server.URL, "SG.key", "shop@example.com").Send(context.Background(), notification.Message{
			To:      "customer@example.com",
			Subject: "Data Order Successful",
			HTML:    "<p>ok</p>",
		})
		require.NoError(t, err)

		personalizations := body["personalizations"].([]interface{})
		require.Len(t, personalizations, 1)
		first := personalizations[0].(map[string]interface{})
		assert.Equal(t, "Data Order Successful", first["subject"])
		assert.Equal(t, "customer@example.com", first["to"].([]interface{})[0].(map[string]interface{})["email"])

		from := body["from"].(map[string]interface{})
		assert.Equal(t, "shop@example.com", from["email"])
		assert.Equal(t, "Exclusave Shop", from["name"])

		contents := body["content"].([]interface{})
		assert.Equal(t, "text/html", contents[0].(map[string]interface{})["type"])
		assert.Equal(t, "<p>ok</p>", contents[0].(map[string]interface{})["value"])
	})

	t.Run("異常系: 送信エラー", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"errors":[{"message":"forbidden"}]}`))
		}))
		defer server.Close()

		err := newTestClient(server.URL, "SG.key", "shop@example.com").Send(context.Background(), notification.Message{To: "a@b.com"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "403")
	})
}

func TestClient_Send_Preconditions(t *testing.T) {
	tests := []struct {
		name    string
		apiKey  string
		from    string
		to      string
		wantErr error
	}{
		{name: "異常系: APIキーなし", apiKey: "", from: "shop@example.com", to: "a@b.com", wantErr: notification.ErrMailerNotConfigured},
		{name: "異常系: 送信元なし", apiKey: "SG.key", from: "", to: "a@b.com", wantErr: notification.ErrMailerNotConfigured},
		{name: "異常系: 宛先なし", apiKey: "SG.key", from: "shop@example.com", to: "", wantErr: notification.ErrMissingRecipient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient("http://127.0.0.1:1", tt.apiKey, tt.from)
			err := client.Send(context.Background(), notification.Message{To: tt.to, Subject: "s"})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
