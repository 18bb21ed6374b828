package rpc

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/godcoin-go/godcoind/internal/asset"
	"github.com/godcoin-go/godcoind/internal/block"
	"github.com/godcoin-go/godcoind/internal/chain"
	"github.com/godcoin-go/godcoind/internal/ledger"
	"github.com/godcoin-go/godcoind/internal/tx"
)

// Engine is the subset of *ledger.Engine the RPC server drives, narrowed
// to an interface so tests can serve requests against a fake.
type Engine interface {
	ChainID() []byte
	Push(ctx context.Context, t tx.Tx, now time.Time) error
	GetBlock(ctx context.Context, height uint64) (block.Block, error)
	ChainHeight(ctx context.Context) (uint64, error)
	GetNetworkFee(ctx context.Context) (asset.Asset, error)
	GetAccountInfo(ctx context.Context, id chain.AccountID, pending []block.Receipt) (*ledger.AccountInfo, bool, error)
}

// Server accepts websocket connections and serves the framed binary
// protocol against an Engine. It also broadcasts a BlockResponse to every
// subscribed connection whenever Notify is called, so the caller (a
// producer or block-insertion path) controls exactly when a push fires.
type Server struct {
	engine   Engine
	upgrader websocket.Upgrader

	connMu sync.RWMutex
	conns  map[string]*connection

	nextConnID uint64
}

// NewServer builds a Server over engine. CheckOrigin is left permissive,
// matching a node meant to be reached by arbitrary wallet clients.
func NewServer(engine Engine) *Server {
	return &Server{
		engine: engine,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		conns: make(map[string]*connection),
	}
}

// connection is one accepted websocket client.
type connection struct {
	id   string
	conn *websocket.Conn

	sendCh  chan []byte
	closeCh chan struct{}
	ctx     context.Context
	cancel  context.CancelFunc

	mu         sync.RWMutex
	subscribed bool
	filter     map[chain.AccountID]struct{} // nil means unfiltered
}

// ServeHTTP upgrades r to a websocket connection and serves it until the
// client disconnects.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("rpc: upgrade failed: %v", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.connMu.Lock()
	s.nextConnID++
	c := &connection{
		id:      fmt.Sprintf("conn-%d", s.nextConnID),
		conn:    conn,
		sendCh:  make(chan []byte, 256),
		closeCh: make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}
	s.conns[c.id] = c
	s.connMu.Unlock()

	go s.sendLoop(c)
	s.readLoop(c)
}

func (s *Server) readLoop(c *connection) {
	defer s.closeConnection(c)

	c.conn.SetReadLimit(512 * 1024)
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		return nil
	})
	go s.pingLoop(c)

	for {
		c.conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Printf("rpc: read error on %s: %v", c.id, err)
			}
			return
		}
		select {
		case <-c.ctx.Done():
			return
		default:
		}
		s.handleFrame(c, raw)
	}
}

func (s *Server) pingLoop(c *connection) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("rpc: ping failed on %s: %v", c.id, err)
				return
			}
		}
	}
}

func (s *Server) sendLoop(c *connection) {
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-c.closeCh:
			return
		case data := <-c.sendCh:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
				log.Printf("rpc: send failed on %s: %v", c.id, err)
				return
			}
		}
	}
}

func (s *Server) closeConnection(c *connection) {
	c.cancel()
	s.connMu.Lock()
	delete(s.conns, c.id)
	s.connMu.Unlock()
	c.conn.Close()
}

func (s *Server) send(c *connection, id uint32, body Body) {
	data := Message{ID: id, Body: body}.Serialize()
	select {
	case c.sendCh <- data:
	case <-c.ctx.Done():
	default:
		log.Printf("rpc: send channel full, closing %s", c.id)
		s.closeConnection(c)
	}
}

func (s *Server) sendError(c *connection, id uint32, kind ErrorKind, err error) {
	s.send(c, id, ErrorBody{Kind: kind, Detail: err.Error()})
}

// handleFrame decodes one framed message and dispatches it.
func (s *Server) handleFrame(c *connection, raw []byte) {
	msg, err := Deserialize(raw)
	if err != nil {
		s.sendError(c, ServerID, ErrKindDecode, err)
		return
	}

	switch body := msg.Body.(type) {
	case Ping:
		s.send(c, msg.ID, Pong{Nonce: body.Nonce})
	case Request:
		s.handleRequest(c, msg.ID, body)
	default:
		s.sendError(c, msg.ID, ErrKindDecode, fmt.Errorf("rpc: unexpected body type from client"))
	}
}

func (s *Server) handleRequest(c *connection, id uint32, req Request) {
	ctx := c.ctx
	switch r := req.(type) {
	case BroadcastRequest:
		txid := r.Tx.TxID(s.engine.ChainID())
		if err := s.engine.Push(ctx, r.Tx, time.Now()); err != nil {
			s.sendError(c, id, ErrKindTx, err)
			return
		}
		s.send(c, id, BroadcastResponse{TxID: txid})

	case SetBlockFilterRequest:
		c.mu.Lock()
		c.filter = make(map[chain.AccountID]struct{}, len(r.Accounts))
		for _, a := range r.Accounts {
			c.filter[a] = struct{}{}
		}
		c.mu.Unlock()
		s.send(c, id, AckResponse{})

	case ClearBlockFilterRequest:
		c.mu.Lock()
		c.filter = nil
		c.mu.Unlock()
		s.send(c, id, AckResponse{})

	case SubscribeRequest:
		c.mu.Lock()
		c.subscribed = true
		c.mu.Unlock()
		s.send(c, id, AckResponse{})

	case UnsubscribeRequest:
		c.mu.Lock()
		c.subscribed = false
		c.mu.Unlock()
		s.send(c, id, AckResponse{})

	case GetPropertiesRequest:
		height, err := s.engine.ChainHeight(ctx)
		if err != nil {
			s.sendError(c, id, ErrKindInternal, err)
			return
		}
		fee, err := s.engine.GetNetworkFee(ctx)
		if err != nil {
			s.sendError(c, id, ErrKindInternal, err)
			return
		}
		s.send(c, id, PropertiesResponse{Height: height, NetFee: fee, ChainID: s.engine.ChainID()})

	case GetBlockRequest:
		blk, err := s.engine.GetBlock(ctx, r.Height)
		if err != nil {
			s.sendError(c, id, ErrKindNotFound, err)
			return
		}
		s.send(c, id, BlockResponse{Header: blk.Header})

	case GetFullBlockRequest:
		blk, err := s.engine.GetBlock(ctx, r.Height)
		if err != nil {
			s.sendError(c, id, ErrKindNotFound, err)
			return
		}
		s.send(c, id, FullBlockResponse{Block: blk})

	case GetBlockRangeRequest:
		s.handleBlockRange(c, id, r)

	case GetAccountInfoRequest:
		info, ok, err := s.engine.GetAccountInfo(ctx, r.Account, nil)
		if err != nil {
			s.sendError(c, id, ErrKindInternal, err)
			return
		}
		if !ok {
			s.sendError(c, id, ErrKindNotFound, fmt.Errorf("rpc: account not found"))
			return
		}
		s.send(c, id, AccountInfoResponse{Account: info.Account, NetFee: info.NetFee, AddrFee: info.AddrFee})

	default:
		s.sendError(c, id, ErrKindDecode, fmt.Errorf("rpc: unhandled request type"))
	}
}

// handleBlockRange streams one BlockResponse per height in [lo,hi], then a
// BlockRangeEndResponse, all sharing id. It stops early, without error, at
// the chain's current tip if hi reaches past it.
func (s *Server) handleBlockRange(c *connection, id uint32, r GetBlockRangeRequest) {
	tip, err := s.engine.ChainHeight(c.ctx)
	if err != nil {
		s.sendError(c, id, ErrKindInternal, err)
		return
	}
	hi := r.Hi
	if hi > tip {
		hi = tip
	}
	last := r.Lo - 1
	for h := r.Lo; h <= hi; h++ {
		blk, err := s.engine.GetBlock(c.ctx, h)
		if err != nil {
			s.sendError(c, id, ErrKindNotFound, err)
			return
		}
		s.send(c, id, BlockResponse{Header: blk.Header})
		last = h
	}
	s.send(c, id, BlockRangeEndResponse{LastHeight: last})
}

// Notify pushes blk's header to every subscribed connection whose filter
// (if any) matches one of touchedAccounts. Called by the producer or
// block-insertion path after a block is committed.
func (s *Server) Notify(blk block.Block, touchedAccounts []chain.AccountID) {
	s.connMu.RLock()
	defer s.connMu.RUnlock()

	for _, c := range s.conns {
		c.mu.RLock()
		subscribed := c.subscribed
		matches := c.filter == nil
		if !matches {
			for _, acc := range touchedAccounts {
				if _, ok := c.filter[acc]; ok {
					matches = true
					break
				}
			}
		}
		c.mu.RUnlock()

		if subscribed && matches {
			s.send(c, ServerID, BlockResponse{Header: blk.Header})
		}
	}
}
