package walletconnect

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAccount = "0x7d40d24b7e0b794d1bb3b98ddcc0a9a02366cf3f"

// fakeBridge plays both relay and wallet on a single websocket: it approves
// the session request and answers eth_sendTransaction with a fixed hash.
type fakeBridge struct {
	t      *testing.T
	keyCh  chan []byte
	server *httptest.Server
}

func newFakeBridge(t *testing.T) *fakeBridge {
	b := &fakeBridge{t: t, keyCh: make(chan []byte, 1)}
	upgrader := websocket.Upgrader{}
	b.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		b.serve(conn)
	}))
	t.Cleanup(b.server.Close)
	return b
}

func (b *fakeBridge) url() string {
	return "http://" + strings.TrimPrefix(b.server.URL, "http://")
}

func (b *fakeBridge) serve(conn *websocket.Conn) {
	var key []byte
	for {
		var msg bridgeMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		if msg.Type != "pub" {
			continue
		}
		if key == nil {
			key = <-b.keyCh
		}

		plaintext, err := decryptPayload(key, []byte(msg.Payload))
		require.NoError(b.t, err)
		var request rpcEnvelope
		require.NoError(b.t, json.Unmarshal(plaintext, &request))

		var replyTopic string
		var result interface{}
		switch request.Method {
		case "wc_sessionRequest":
			var params []sessionRequestParams
			require.NoError(b.t, json.Unmarshal(request.Params, &params))
			replyTopic = params[0].PeerID
			result = sessionStatus{
				Approved: true,
				ChainID:  1,
				Accounts: []string{testAccount},
				PeerID:   "wallet-peer",
			}
		case "eth_sendTransaction":
			var params []transactionParams
			require.NoError(b.t, json.Unmarshal(request.Params, &params))
			assert.Equal(b.t, testAccount, params[0].From)
			replyTopic = msg.Topic // requests to the wallet arrive on its peer topic
			result = "0xdeadbeef"
		default:
			continue
		}

		body, err := json.Marshal(map[string]interface{}{
			"id": request.ID, "jsonrpc": "2.0", "result": result,
		})
		require.NoError(b.t, err)
		envelope, err := encryptPayload(key, body)
		require.NoError(b.t, err)
		err = conn.WriteJSON(bridgeMessage{Topic: replyTopic, Type: "pub", Payload: string(envelope), Silent: true})
		require.NoError(b.t, err)
	}
}

func keyFromURI(t *testing.T, uri string) []byte {
	t.Helper()
	parts := strings.SplitN(uri, "?", 2)
	require.Len(t, parts, 2)
	values, err := url.ParseQuery(parts[1])
	require.NoError(t, err)
	key, err := hex.DecodeString(values.Get("key"))
	require.NoError(t, err)
	require.Len(t, key, 32)
	return key
}

func TestSessionPairingAndSendTransaction(t *testing.T) {
	bridge := newFakeBridge(t)

	session := NewSession(Config{
		BridgeURL:        bridge.url(),
		ChainID:          1,
		Meta:             ClientMeta{Name: "goocean"},
		HandshakeTimeout: 5 * time.Second,
		RequestTimeout:   5 * time.Second,
		OnPairingURI: func(uri string) {
			assert.True(t, strings.HasPrefix(uri, "wc:"))
			assert.Contains(t, uri, "@1?bridge=")
			bridge.keyCh <- keyFromURI(t, uri)
		},
	}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	require.NoError(t, session.Connect(ctx, testAccount))
	assert.True(t, session.Connected())
	assert.Equal(t, testAccount, session.Account())

	hash, err := session.SendTransaction(ctx, "0x2112aeb32456fe1f63a0a9345ee48d2e5640d3df", "0xdata")
	require.NoError(t, err)
	assert.Equal(t, "0xdeadbeef", hash)

	require.NoError(t, session.Close())
	assert.False(t, session.Connected())
}

func TestSendTransactionWithoutSession(t *testing.T) {
	session := NewSession(Config{BridgeURL: "http://127.0.0.1:0"}, nil)
	_, err := session.SendTransaction(context.Background(), "0x0", "0x0")
	assert.ErrorContains(t, err, "no active session")
}

func TestSessionStoreRoundTrip(t *testing.T) {
	store, err := OpenSessionStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Load()
	assert.ErrorIs(t, err, ErrNoSession)

	record := SessionRecord{
		Topic:    "topic-1",
		Key:      strings.Repeat("ab", 32),
		ClientID: "client-1",
		PeerID:   "peer-1",
		Accounts: []string{testAccount},
		ChainID:  1,
	}
	require.NoError(t, store.Save(record))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, record, *loaded)

	require.NoError(t, store.Delete())
	_, err = store.Load()
	assert.ErrorIs(t, err, ErrNoSession)
}
