// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package grants

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/tokengrant/api/utils"
	"github.com/vechain/tokengrant/ledger"
)

type Grants struct {
	ledger *ledger.Ledger
}

func New(ledger *ledger.Ledger) *Grants {
	return &Grants{ledger}
}

func (g *Grants) handleCreateGrant(w http.ResponseWriter, req *http.Request) error {
	var body CreateGrant
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if body.Manager.IsZero() {
		return utils.BadRequest(errors.New("manager: required"))
	}
	if body.Grantee.IsZero() {
		return utils.BadRequest(errors.New("grantee: required"))
	}
	amount, err := utils.ParseAmount(body.Amount, "amount")
	if err != nil {
		return err
	}

	id, err := g.ledger.CreateGrant(body.Manager, body.Grantee, amount, body.Start, body.Duration, body.Cliff, body.Revocable)
	if err != nil {
		return err
	}
	w.WriteHeader(http.StatusCreated)
	return utils.WriteJSON(w, &CreateResult{ID: id})
}

func (g *Grants) handleGetGrant(w http.ResponseWriter, req *http.Request) error {
	id, err := utils.Uint64Var(req, "id")
	if err != nil {
		return err
	}
	grant, err := g.ledger.GetGrant(id)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertGrant(grant))
}

func (g *Grants) handleGetUnlocked(w http.ResponseWriter, req *http.Request) error {
	id, err := utils.Uint64Var(req, "id")
	if err != nil {
		return err
	}
	amount, err := g.ledger.UnlockedAmount(id)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Amount{utils.Amount(amount)})
}

func (g *Grants) handleGetWithdrawable(w http.ResponseWriter, req *http.Request) error {
	id, err := utils.Uint64Var(req, "id")
	if err != nil {
		return err
	}
	amount, err := g.ledger.Withdrawable(id)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Amount{utils.Amount(amount)})
}

func (g *Grants) handleRevoke(w http.ResponseWriter, req *http.Request) error {
	id, err := utils.Uint64Var(req, "id")
	if err != nil {
		return err
	}
	var body Revoke
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	refund, err := g.ledger.Revoke(id, body.Caller)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Amount{utils.Amount(refund)})
}

func (g *Grants) handleWithdraw(w http.ResponseWriter, req *http.Request) error {
	id, err := utils.Uint64Var(req, "id")
	if err != nil {
		return err
	}
	paid, err := g.ledger.Withdraw(id)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Amount{utils.Amount(paid)})
}

func (g *Grants) handleGetBalance(w http.ResponseWriter, req *http.Request) error {
	addr, err := utils.AddressVar(req, "address")
	if err != nil {
		return err
	}
	balance, err := g.ledger.BalanceOf(addr)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Balance{utils.Amount(balance)})
}

func (g *Grants) handleGetGrantsOf(w http.ResponseWriter, req *http.Request) error {
	addr, err := utils.AddressVar(req, "address")
	if err != nil {
		return err
	}
	ids, err := g.ledger.GrantsOf(addr)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, nonNil(ids))
}

func (g *Grants) handleGetGrantsByManager(w http.ResponseWriter, req *http.Request) error {
	addr, err := utils.AddressVar(req, "address")
	if err != nil {
		return err
	}
	ids, err := g.ledger.GrantsByManager(addr)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, nonNil(ids))
}

func nonNil(ids []uint64) []uint64 {
	if ids == nil {
		return []uint64{}
	}
	return ids
}

func (g *Grants) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodPost).
		Name("POST /grants").
		HandlerFunc(utils.WrapHandlerFunc(g.handleCreateGrant))
	sub.Path("/{id}").
		Methods(http.MethodGet).
		Name("GET /grants/{id}").
		HandlerFunc(utils.WrapHandlerFunc(g.handleGetGrant))
	sub.Path("/{id}/unlocked").
		Methods(http.MethodGet).
		Name("GET /grants/{id}/unlocked").
		HandlerFunc(utils.WrapHandlerFunc(g.handleGetUnlocked))
	sub.Path("/{id}/withdrawable").
		Methods(http.MethodGet).
		Name("GET /grants/{id}/withdrawable").
		HandlerFunc(utils.WrapHandlerFunc(g.handleGetWithdrawable))
	sub.Path("/{id}/revoke").
		Methods(http.MethodPost).
		Name("POST /grants/{id}/revoke").
		HandlerFunc(utils.WrapHandlerFunc(g.handleRevoke))
	sub.Path("/{id}/withdraw").
		Methods(http.MethodPost).
		Name("POST /grants/{id}/withdraw").
		HandlerFunc(utils.WrapHandlerFunc(g.handleWithdraw))
}

// MountGrantees serves the per-grantee views.
func (g *Grants) MountGrantees(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{address}/balance").
		Methods(http.MethodGet).
		Name("GET /grantees/{address}/balance").
		HandlerFunc(utils.WrapHandlerFunc(g.handleGetBalance))
	sub.Path("/{address}/grants").
		Methods(http.MethodGet).
		Name("GET /grantees/{address}/grants").
		HandlerFunc(utils.WrapHandlerFunc(g.handleGetGrantsOf))
}

// MountManagers serves the per-manager views.
func (g *Grants) MountManagers(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{address}/grants").
		Methods(http.MethodGet).
		Name("GET /managers/{address}/grants").
		HandlerFunc(utils.WrapHandlerFunc(g.handleGetGrantsByManager))
}
