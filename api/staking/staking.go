// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/tokengrant/api/utils"
	"github.com/vechain/tokengrant/builtin/staking"
	"github.com/vechain/tokengrant/ledger"
	"github.com/vechain/tokengrant/thor"
)

// Authorization is the request body to authorize or deauthorize a collaborator.
type Authorization struct {
	Collaborator thor.Address `json:"collaborator"`
	Caller       thor.Address `json:"caller"`
}

// Collaborator reports whether an address may lock grants.
type Collaborator struct {
	Address    thor.Address `json:"address"`
	Authorized bool         `json:"authorized"`
}

// LockRequest is the request body to lock part of a grant.
type LockRequest struct {
	GrantID      uint64                `json:"grantId"`
	Collaborator thor.Address          `json:"collaborator"`
	Amount       *math.HexOrDecimal256 `json:"amount"`
}

// ReleaseRequest is the request body to release a lock.
type ReleaseRequest struct {
	GrantID      uint64       `json:"grantId"`
	Collaborator thor.Address `json:"collaborator"`
}

// Lock is the JSON form of a grant lock.
type Lock struct {
	GrantID      uint64                `json:"grantId"`
	Collaborator thor.Address          `json:"collaborator"`
	Amount       *math.HexOrDecimal256 `json:"amount"`
}

// Released is the amount freed by a release.
type Released struct {
	Amount *math.HexOrDecimal256 `json:"amount"`
}

func convertLock(grantID uint64, lock *staking.Lock) *Lock {
	if lock == nil {
		return nil
	}
	return &Lock{
		GrantID:      grantID,
		Collaborator: lock.Collaborator,
		Amount:       utils.Amount(lock.Amount),
	}
}

type Staking struct {
	ledger *ledger.Ledger
}

func New(ledger *ledger.Ledger) *Staking {
	return &Staking{ledger}
}

func parseAuthorization(req *http.Request) (*Authorization, error) {
	var body Authorization
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return nil, utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if body.Collaborator.IsZero() {
		return nil, utils.BadRequest(errors.New("collaborator: required"))
	}
	return &body, nil
}

func (s *Staking) handleAuthorize(w http.ResponseWriter, req *http.Request) error {
	body, err := parseAuthorization(req)
	if err != nil {
		return err
	}
	if err := s.ledger.AuthorizeStakingCollaborator(body.Collaborator, body.Caller); err != nil {
		return err
	}
	return utils.WriteJSON(w, &Collaborator{body.Collaborator, true})
}

func (s *Staking) handleDeauthorize(w http.ResponseWriter, req *http.Request) error {
	body, err := parseAuthorization(req)
	if err != nil {
		return err
	}
	if err := s.ledger.DeauthorizeStakingCollaborator(body.Collaborator, body.Caller); err != nil {
		return err
	}
	return utils.WriteJSON(w, &Collaborator{body.Collaborator, false})
}

func (s *Staking) handleGetCollaborator(w http.ResponseWriter, req *http.Request) error {
	addr, err := utils.AddressVar(req, "address")
	if err != nil {
		return err
	}
	ok, err := s.ledger.IsStakingCollaborator(addr)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Collaborator{addr, ok})
}

func (s *Staking) handleLock(w http.ResponseWriter, req *http.Request) error {
	var body LockRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	amount, err := utils.ParseAmount(body.Amount, "amount")
	if err != nil {
		return err
	}
	lock, err := s.ledger.LockGrant(body.GrantID, body.Collaborator, amount)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertLock(body.GrantID, lock))
}

func (s *Staking) handleRelease(w http.ResponseWriter, req *http.Request) error {
	var body ReleaseRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	released, err := s.ledger.ReleaseGrant(body.GrantID, body.Collaborator)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Released{utils.Amount(released)})
}

func (s *Staking) handleGetLock(w http.ResponseWriter, req *http.Request) error {
	id, err := utils.Uint64Var(req, "id")
	if err != nil {
		return err
	}
	lock, err := s.ledger.LockOf(id)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertLock(id, lock))
}

func (s *Staking) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/collaborators").
		Methods(http.MethodPost).
		Name("POST /staking/collaborators").
		HandlerFunc(utils.WrapHandlerFunc(s.handleAuthorize))
	sub.Path("/collaborators/deauthorize").
		Methods(http.MethodPost).
		Name("POST /staking/collaborators/deauthorize").
		HandlerFunc(utils.WrapHandlerFunc(s.handleDeauthorize))
	sub.Path("/collaborators/{address}").
		Methods(http.MethodGet).
		Name("GET /staking/collaborators/{address}").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetCollaborator))
	sub.Path("/locks").
		Methods(http.MethodPost).
		Name("POST /staking/locks").
		HandlerFunc(utils.WrapHandlerFunc(s.handleLock))
	sub.Path("/locks/{id}").
		Methods(http.MethodGet).
		Name("GET /staking/locks/{id}").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetLock))
	sub.Path("/releases").
		Methods(http.MethodPost).
		Name("POST /staking/releases").
		HandlerFunc(utils.WrapHandlerFunc(s.handleRelease))
}
