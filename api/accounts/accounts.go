// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accounts

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/tokengrant/api/utils"
	"github.com/vechain/tokengrant/ledger"
	"github.com/vechain/tokengrant/thor"
)

// Account is the token balance of an address.
type Account struct {
	Balance *math.HexOrDecimal256 `json:"balance"`
}

// Transfer is the request body of a token transfer.
type Transfer struct {
	To     thor.Address          `json:"to"`
	Amount *math.HexOrDecimal256 `json:"amount"`
}

type Accounts struct {
	ledger *ledger.Ledger
}

func New(ledger *ledger.Ledger) *Accounts {
	return &Accounts{ledger}
}

func (a *Accounts) handleGetAccount(w http.ResponseWriter, req *http.Request) error {
	addr, err := utils.AddressVar(req, "address")
	if err != nil {
		return err
	}
	balance, err := a.ledger.TokenBalance(addr)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Account{utils.Amount(balance)})
}

func (a *Accounts) handleTransfer(w http.ResponseWriter, req *http.Request) error {
	from, err := utils.AddressVar(req, "address")
	if err != nil {
		return err
	}
	var body Transfer
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if body.To.IsZero() {
		return utils.BadRequest(errors.New("to: required"))
	}
	amount, err := utils.ParseAmount(body.Amount, "amount")
	if err != nil {
		return err
	}
	if err := a.ledger.TransferTokens(from, body.To, amount); err != nil {
		return err
	}
	balance, err := a.ledger.TokenBalance(from)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Account{utils.Amount(balance)})
}

func (a *Accounts) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{address}").
		Methods(http.MethodGet).
		Name("GET /accounts/{address}").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetAccount))
	sub.Path("/{address}/transfer").
		Methods(http.MethodPost).
		Name("POST /accounts/{address}/transfer").
		HandlerFunc(utils.WrapHandlerFunc(a.handleTransfer))
}
