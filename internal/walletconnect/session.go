// Package walletconnect implements the v1 bridge protocol in the dApp role:
// pair with a wallet over a relay, then submit eth_sendTransaction requests
// for it to sign. Approved sessions persist so restarts skip the pairing step.
package walletconnect

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/betbot/goocean/pkg/logger"
)

const protocolVersion = 1

const (
	defaultHandshakeTimeout = 5 * time.Minute
	defaultRequestTimeout   = 2 * time.Minute
)

// ClientMeta describes this client to the wallet during pairing.
type ClientMeta struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	URL         string   `json:"url"`
	Icons       []string `json:"icons"`
}

// Config for a bridge session.
type Config struct {
	BridgeURL string
	ChainID   int64
	Meta      ClientMeta

	// HandshakeTimeout bounds the wait for wallet approval; RequestTimeout
	// bounds each signing request. Zero means the defaults above.
	HandshakeTimeout time.Duration
	RequestTimeout   time.Duration

	// OnPairingURI receives the wc: URI for a fresh pairing so the caller can
	// render it. Optional.
	OnPairingURI func(uri string)
}

type bridgeMessage struct {
	Topic   string `json:"topic"`
	Type    string `json:"type"`
	Payload string `json:"payload"`
	Silent  bool   `json:"silent"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// rpcEnvelope carries both requests and responses; Method distinguishes them.
type rpcEnvelope struct {
	ID      int64           `json:"id"`
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type sessionRequestParams struct {
	PeerID   string     `json:"peerId"`
	PeerMeta ClientMeta `json:"peerMeta"`
	ChainID  int64      `json:"chainId"`
}

type sessionStatus struct {
	Approved bool     `json:"approved"`
	ChainID  int64    `json:"chainId"`
	Accounts []string `json:"accounts"`
	PeerID   string   `json:"peerId"`
}

type transactionParams struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Data  string `json:"data"`
	Value string `json:"value"`
}

// Session is one pairing with a wallet. Implements market.Session.
type Session struct {
	cfg   Config
	store *SessionStore // nil disables persistence
	log   *logrus.Entry

	mu        sync.Mutex
	conn      *websocket.Conn
	key       []byte
	topic     string // handshake topic
	clientID  string
	peerID    string
	accounts  []string
	connected bool
	nextID    int64
	pending   map[int64]chan rpcEnvelope
	done      chan struct{}

	writeMu sync.Mutex
}

func NewSession(cfg Config, store *SessionStore) *Session {
	if cfg.HandshakeTimeout == 0 {
		cfg.HandshakeTimeout = defaultHandshakeTimeout
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	return &Session{
		cfg:     cfg,
		store:   store,
		log:     logger.WithField("module", "walletconnect"),
		nextID:  time.Now().UnixMilli() * 1000,
		pending: map[int64]chan rpcEnvelope{},
	}
}

// URI returns the pairing URI for the current handshake, empty before Connect.
func (s *Session) URI() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.topic == "" || len(s.key) == 0 {
		return ""
	}
	return fmt.Sprintf("wc:%s@%d?bridge=%s&key=%s",
		s.topic, protocolVersion, url.QueryEscape(s.cfg.BridgeURL), hex.EncodeToString(s.key))
}

// Connect resumes a saved session when one exists for the account, otherwise
// runs a fresh pairing and blocks until the wallet approves or the handshake
// times out.
func (s *Session) Connect(ctx context.Context, account string) error {
	s.mu.Lock()
	if s.connected {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	if record := s.loadSavedSession(account); record != nil {
		if err := s.resume(ctx, record); err == nil {
			return nil
		}
		// resume failed, fall through to a fresh pairing
		if s.store != nil {
			_ = s.store.Delete()
		}
	}
	return s.pair(ctx, account)
}

func (s *Session) loadSavedSession(account string) *SessionRecord {
	if s.store == nil {
		return nil
	}
	record, err := s.store.Load()
	if err != nil {
		if !errors.Is(err, ErrNoSession) {
			s.log.Warnf("loading saved session: %v", err)
		}
		return nil
	}
	if account != "" && !containsFold(record.Accounts, account) {
		s.log.Info("saved session is for a different account, re-pairing")
		_ = s.store.Delete()
		return nil
	}
	return record
}

func (s *Session) resume(ctx context.Context, record *SessionRecord) error {
	key, err := hex.DecodeString(record.Key)
	if err != nil || len(key) != 32 {
		return errors.New("corrupt session key")
	}
	conn, err := s.dial(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.conn = conn
	s.key = key
	s.topic = record.Topic
	s.clientID = record.ClientID
	s.peerID = record.PeerID
	s.accounts = record.Accounts
	s.connected = true
	s.done = make(chan struct{})
	s.mu.Unlock()

	go s.readLoop(conn)
	if err := s.subscribe(record.ClientID); err != nil {
		_ = s.Close()
		return err
	}
	s.log.Infof("resumed session, account=%s", s.Account())
	return nil
}

func (s *Session) pair(ctx context.Context, account string) error {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return errors.Wrap(err, "session key")
	}

	conn, err := s.dial(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.conn = conn
	s.key = key
	s.topic = uuid.NewString()
	s.clientID = uuid.NewString()
	s.done = make(chan struct{})
	clientID := s.clientID
	topic := s.topic
	s.mu.Unlock()

	go s.readLoop(conn)
	if err := s.subscribe(clientID); err != nil {
		_ = s.Close()
		return err
	}

	uri := s.URI()
	s.log.Infof("pairing URI: %s", uri)
	if s.cfg.OnPairingURI != nil {
		s.cfg.OnPairingURI(uri)
	}

	params, _ := json.Marshal([]sessionRequestParams{{
		PeerID:   clientID,
		PeerMeta: s.cfg.Meta,
		ChainID:  s.cfg.ChainID,
	}})

	handshakeCtx, cancel := context.WithTimeout(ctx, s.cfg.HandshakeTimeout)
	defer cancel()
	result, err := s.call(handshakeCtx, topic, "wc_sessionRequest", params)
	if err != nil {
		_ = s.Close()
		return errors.Wrap(err, "session request")
	}

	var status sessionStatus
	if err := json.Unmarshal(result, &status); err != nil {
		_ = s.Close()
		return errors.Wrap(err, "session response")
	}
	if !status.Approved || len(status.Accounts) == 0 {
		_ = s.Close()
		return errors.New("session rejected by wallet")
	}
	if account != "" && !containsFold(status.Accounts, account) {
		_ = s.Close()
		return errors.Errorf("wallet approved account %s, expected %s", status.Accounts[0], account)
	}

	s.mu.Lock()
	s.peerID = status.PeerID
	s.accounts = status.Accounts
	s.connected = true
	s.mu.Unlock()

	if s.store != nil {
		err := s.store.Save(SessionRecord{
			Topic:    topic,
			Key:      hex.EncodeToString(key),
			ClientID: clientID,
			PeerID:   status.PeerID,
			Accounts: status.Accounts,
			ChainID:  status.ChainID,
		})
		if err != nil {
			s.log.Warnf("persisting session: %v", err)
		}
	}
	s.log.Infof("session approved, account=%s chainId=%d", status.Accounts[0], status.ChainID)
	return nil
}

func (s *Session) dial(ctx context.Context) (*websocket.Conn, error) {
	wsURL := s.cfg.BridgeURL
	switch {
	case strings.HasPrefix(wsURL, "https://"):
		wsURL = "wss://" + strings.TrimPrefix(wsURL, "https://")
	case strings.HasPrefix(wsURL, "http://"):
		wsURL = "ws://" + strings.TrimPrefix(wsURL, "http://")
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "dial bridge")
	}
	return conn, nil
}

func (s *Session) readLoop(conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			s.mu.Lock()
			if s.conn == conn {
				s.connected = false
			}
			s.mu.Unlock()
			return
		}

		var msg bridgeMessage
		if err := json.Unmarshal(raw, &msg); err != nil || msg.Payload == "" {
			continue
		}
		s.mu.Lock()
		key := s.key
		s.mu.Unlock()
		plaintext, err := decryptPayload(key, []byte(msg.Payload))
		if err != nil {
			s.log.Warnf("dropping undecryptable payload: %v", err)
			continue
		}

		var envelope rpcEnvelope
		if err := json.Unmarshal(plaintext, &envelope); err != nil {
			s.log.Warnf("dropping malformed payload: %v", err)
			continue
		}
		if envelope.Method != "" {
			s.handleRequest(envelope)
			continue
		}

		s.mu.Lock()
		ch, ok := s.pending[envelope.ID]
		if ok {
			delete(s.pending, envelope.ID)
		}
		s.mu.Unlock()
		if ok {
			ch <- envelope
		}
	}
}

// handleRequest serves wallet-initiated calls. Only wc_sessionUpdate matters:
// a disapproval kills the session.
func (s *Session) handleRequest(envelope rpcEnvelope) {
	if envelope.Method != "wc_sessionUpdate" {
		s.log.Debugf("ignoring wallet request %s", envelope.Method)
		return
	}
	var updates []sessionStatus
	if err := json.Unmarshal(envelope.Params, &updates); err != nil || len(updates) == 0 {
		return
	}
	if updates[0].Approved {
		s.mu.Lock()
		s.accounts = updates[0].Accounts
		s.mu.Unlock()
		return
	}
	s.log.Info("session ended by wallet")
	s.mu.Lock()
	s.connected = false
	s.mu.Unlock()
	if s.store != nil {
		_ = s.store.Delete()
	}
}

func (s *Session) subscribe(topic string) error {
	return s.writeJSON(bridgeMessage{Topic: topic, Type: "sub", Payload: "", Silent: true})
}

// call publishes an encrypted JSON-RPC request on topic and waits for the
// matching response.
func (s *Session) call(ctx context.Context, topic, method string, params json.RawMessage) (json.RawMessage, error) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	ch := make(chan rpcEnvelope, 1)
	s.pending[id] = ch
	key := s.key
	done := s.done
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.pending, id)
		s.mu.Unlock()
	}()

	body, err := json.Marshal(rpcEnvelope{ID: id, JSONRPC: "2.0", Method: method, Params: params})
	if err != nil {
		return nil, err
	}
	envelope, err := encryptPayload(key, body)
	if err != nil {
		return nil, err
	}
	if err := s.writeJSON(bridgeMessage{Topic: topic, Type: "pub", Payload: string(envelope), Silent: true}); err != nil {
		return nil, err
	}

	select {
	case response := <-ch:
		if response.Error != nil {
			return nil, errors.Errorf("%s: %s (%d)", method, response.Error.Message, response.Error.Code)
		}
		return response.Result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-done:
		return nil, errors.New("session closed")
	}
}

func (s *Session) writeJSON(msg bridgeMessage) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return errors.New("not connected")
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return conn.WriteJSON(msg)
}

// Account returns the approved wallet account, empty when not connected.
func (s *Session) Account() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.accounts) == 0 {
		return ""
	}
	return s.accounts[0]
}

func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// SendTransaction asks the wallet to sign and broadcast, returning the hash.
func (s *Session) SendTransaction(ctx context.Context, to string, data string) (string, error) {
	s.mu.Lock()
	connected := s.connected
	peerID := s.peerID
	s.mu.Unlock()
	if !connected || peerID == "" {
		return "", errors.New("no active session")
	}

	params, _ := json.Marshal([]transactionParams{{
		From:  s.Account(),
		To:    to,
		Data:  data,
		Value: "0x0",
	}})

	requestCtx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()
	result, err := s.call(requestCtx, peerID, "eth_sendTransaction", params)
	if err != nil {
		return "", err
	}

	var hash string
	if err := json.Unmarshal(result, &hash); err != nil {
		return "", errors.Wrap(err, "transaction hash")
	}
	return hash, nil
}

// Close tears down the connection. The persisted record survives so the next
// Connect can resume.
func (s *Session) Close() error {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.connected = false
	if s.done != nil {
		select {
		case <-s.done:
		default:
			close(s.done)
		}
	}
	s.mu.Unlock()

	if conn != nil {
		return conn.Close()
	}
	return nil
}

func containsFold(list []string, want string) bool {
	for _, item := range list {
		if strings.EqualFold(item, want) {
			return true
		}
	}
	return false
}
