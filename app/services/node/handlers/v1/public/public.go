// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ardanlabs/powledger/business/sys/validate"
	"github.com/ardanlabs/powledger/business/web/errs"
	"github.com/ardanlabs/powledger/foundation/blockchain/chain"
	"github.com/ardanlabs/powledger/foundation/blockchain/state"
	"github.com/ardanlabs/powledger/foundation/blockchain/wallet"
	"github.com/ardanlabs/powledger/foundation/events"
	"github.com/ardanlabs/powledger/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of ledger endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	id, ch := h.Evts.Acquire()
	defer func() {
		h.Evts.Release(id)
		h.Log.Infow("events", "traceid", web.GetTraceID(ctx), "status", "released", "subscriber", id, "subscribers", h.Evts.Count())
	}()

	h.Log.Infow("events", "traceid", web.GetTraceID(ctx), "status", "acquired", "subscriber", id, "subscribers", h.Evts.Count())

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	// The connection has been hijacked so write failures mean the client
	// went away and there is nothing left to respond to.
	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// SubmitTransaction debits the sender and adds the transaction to the mempool.
func (h Handlers) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req submitTx
	if err := web.Decode(r, &req); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	if err := validate.Check(req); err != nil {
		return err
	}

	h.Log.Infow("submit tran", "traceid", web.GetTraceID(ctx), "from", req.From, "to", req.To, "amount", req.Amount)

	tran, err := h.State.SubmitTransaction(req.From, req.To, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, wallet.ErrInvalidAmount), errors.Is(err, wallet.ErrUnknownWallet):
			return errs.NewTrusted(err, http.StatusBadRequest)
		default:
			return err
		}
	}

	resp := struct {
		Status string `json:"status"`
		Tx     tx     `json:"tx"`
	}{
		Status: "transaction added to mempool",
		Tx:     toTx(tran),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// SignalMining signals to start a mining operation.
func (h Handlers) SignalMining(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if h.State.Worker == nil {
		return errs.NewTrusted(errors.New("mining is not running on this node"), http.StatusServiceUnavailable)
	}

	h.State.Worker.SignalStartMining()

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "mining signalled",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	gen := h.State.RetrieveGenesis()
	return web.Respond(ctx, w, gen, http.StatusOK)
}

// Mempool returns the set of uncommitted transactions.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	trans := toTxs(h.State.RetrieveMempool())
	return web.Respond(ctx, w, trans, http.StatusOK)
}

// Wallets returns the current balances for all wallets or for the wallet
// named in the route.
func (h Handlers) Wallets(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var infos []wallet.Info

	switch address := web.Param(r, "address"); address {
	case "":
		infos = h.State.RetrieveWallets()

	default:
		info, err := h.State.QueryWallet(address)
		if err != nil {
			return errs.NewTrusted(err, http.StatusNotFound)
		}
		infos = []wallet.Info{info}
	}

	ws := make([]walletInfo, len(infos))
	for i, info := range infos {
		ws[i] = toWalletInfo(info)
	}

	resp := wallets{
		LatestBlock:    h.State.RetrieveLatestBlock().Hash,
		NextDifficulty: h.State.RetrieveNextDifficulty(),
		Uncommitted:    h.State.QueryMempoolLength(),
		Wallets:        ws,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Blocks returns every block in the chain.
func (h Handlers) Blocks(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	dbBlocks := h.State.QueryBlocks()

	blocks := make([]block, len(dbBlocks))
	for i, blk := range dbBlocks {
		blocks[i] = toBlock(blk)
	}

	return web.Respond(ctx, w, blocks, http.StatusOK)
}

// BlockByNumber returns the block with the number in the route.
func (h Handlers) BlockByNumber(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	num, err := strconv.ParseUint(web.Param(r, "number"), 10, 64)
	if err != nil {
		return errs.NewTrusted(fmt.Errorf("invalid block number: %w", err), http.StatusBadRequest)
	}

	blk, err := h.State.QueryBlock(num)
	if err != nil {
		if errors.Is(err, chain.ErrNotFound) {
			return errs.NewTrusted(err, http.StatusNotFound)
		}
		return err
	}

	return web.Respond(ctx, w, toBlock(blk), http.StatusOK)
}
