// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"fmt"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vechain/tokengrant/builtin"
	"github.com/vechain/tokengrant/state"
	"github.com/vechain/tokengrant/thor"
)

// Document is the YAML form of a genesis.
//
//	name: testnet
//	launchTime: 1700000000
//	stakingAdmin: "0x..."
//	accounts:
//	  - address: "0x..."
//	    balance: "1000000000000000000000"
type Document struct {
	Name         string       `yaml:"name"`
	LaunchTime   uint64       `yaml:"launchTime"`
	StakingAdmin thor.Address `yaml:"stakingAdmin"`
	Accounts     []Account    `yaml:"accounts"`
}

// Account is an initial token balance.
type Account struct {
	Address thor.Address     `yaml:"address"`
	Balance *HexOrDecimal256 `yaml:"balance"`
}

// HexOrDecimal256 is a 256 bits unsigned integer written as hex or decimal.
type HexOrDecimal256 math.HexOrDecimal256

// UnmarshalYAML implements yaml.Unmarshaler.
func (i *HexOrDecimal256) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: integer expected", value.Line)
	}
	bigint, ok := math.ParseBig256(value.Value)
	if !ok {
		return fmt.Errorf("line %d: invalid hex or decimal integer %q", value.Line, value.Value)
	}
	*i = HexOrDecimal256(*bigint)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (i HexOrDecimal256) MarshalYAML() (any, error) {
	decimal256 := math.HexOrDecimal256(i)
	text, err := decimal256.MarshalText()
	if err != nil {
		return nil, err
	}
	return string(text), nil
}

// Uint256 converts to uint256, failing on negative or wider values.
func (i *HexOrDecimal256) Uint256() (*uint256.Int, error) {
	b := (*big.Int)(i)
	if b.Sign() < 0 {
		return nil, errors.New("negative integer")
	}
	v, overflow := uint256.FromBig(b)
	if overflow {
		return nil, errors.New("out of uint256 range")
	}
	return v, nil
}

// Genesis is the initial ledger state.
type Genesis struct {
	doc *Document
	id  thor.Bytes32
}

// New validates doc and creates the genesis.
func New(doc *Document) (*Genesis, error) {
	if doc.Name == "" {
		return nil, errors.New("name must be set")
	}
	seen := make(map[thor.Address]bool, len(doc.Accounts))
	for _, a := range doc.Accounts {
		if a.Address.IsZero() {
			return nil, errors.New("account address must be set")
		}
		if seen[a.Address] {
			return nil, fmt.Errorf("%v: duplicated account", a.Address)
		}
		seen[a.Address] = true
		if a.Balance == nil {
			return nil, fmt.Errorf("%v: balance must be set", a.Address)
		}
		bal, err := a.Balance.Uint256()
		if err != nil {
			return nil, errors.WithMessage(err, a.Address.String())
		}
		if bal.IsZero() {
			return nil, fmt.Errorf("%v: balance must be a non-zero integer", a.Address)
		}
	}

	id, err := hashDocument(doc)
	if err != nil {
		return nil, err
	}
	return &Genesis{doc: doc, id: id}, nil
}

// Parse creates the genesis from YAML data.
func Parse(data []byte) (*Genesis, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "decode genesis")
	}
	return New(&doc)
}

// Load reads the genesis from a YAML file.
func Load(path string) (*Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read genesis")
	}
	return Parse(data)
}

func hashDocument(doc *Document) (thor.Bytes32, error) {
	type account struct {
		Address thor.Address
		Balance *uint256.Int
	}
	accounts := make([]account, 0, len(doc.Accounts))
	for _, a := range doc.Accounts {
		bal, err := a.Balance.Uint256()
		if err != nil {
			return thor.Bytes32{}, err
		}
		accounts = append(accounts, account{a.Address, bal})
	}
	data, err := rlp.EncodeToBytes([]any{doc.Name, doc.LaunchTime, doc.StakingAdmin, accounts})
	if err != nil {
		return thor.Bytes32{}, err
	}
	return thor.Blake2b(data), nil
}

// ID returns the hash identifying the genesis.
func (g *Genesis) ID() thor.Bytes32 {
	return g.id
}

// Name returns the network name.
func (g *Genesis) Name() string {
	return g.doc.Name
}

// LaunchTime returns the launch timestamp.
func (g *Genesis) LaunchTime() uint64 {
	return g.doc.LaunchTime
}

// Build mints initial balances and sets the staking admin.
func (g *Genesis) Build(st *state.State) error {
	token := builtin.Token.WithState(st)
	for _, a := range g.doc.Accounts {
		bal, err := a.Balance.Uint256()
		if err != nil {
			return err
		}
		if err := token.Mint(a.Address, bal); err != nil {
			return errors.WithMessage(err, a.Address.String())
		}
	}
	if !g.doc.StakingAdmin.IsZero() {
		builtin.Staking.WithState(st).SetAdmin(g.doc.StakingAdmin)
	}
	return nil
}
