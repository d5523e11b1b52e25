// Package token is the fungible token primitive the ledger mints and burns
// through. Accounts are protocol custodied: only the holder of an Authority can
// change a balance, and every change is paired with a supply update inside the
// caller's transaction.
package token

import (
	"errors"
	"fmt"

	"github.com/eigerco/curator/internal/address"
	"github.com/eigerco/curator/internal/crypto"
	"github.com/eigerco/curator/internal/safemath"
	"github.com/eigerco/curator/internal/state"
	"github.com/eigerco/curator/internal/store"
)

var (
	ErrInsufficientFunds = errors.New("insufficient token balance")
	ErrSameHolder        = errors.New("transfer source and destination are the same")
)

// GlobalScope marks an account that is not tied to a topic.
var GlobalScope = address.Key{}

// Holder is an account owner inside a scope. Provisional classes are scoped to
// a topic address; permanent classes use GlobalScope.
type Holder struct {
	Owner crypto.Identity
	Scope address.Key
}

func Global(owner crypto.Identity) Holder {
	return Holder{Owner: owner, Scope: GlobalScope}
}

func Scoped(owner crypto.Identity, scope address.Key) Holder {
	return Holder{Owner: owner, Scope: scope}
}

// Account is a single balance entry.
type Account struct {
	Amount uint64
}

// Supply is the outstanding amount of a class.
type Supply struct {
	Total uint64
}

// ClassID derives the identifier of the token class called name.
func ClassID(name string) state.TokenClass {
	return address.Derive(address.TokenClass, []byte(name))
}

// AccountAddress is the record address of holder's account for class.
func AccountAddress(class state.TokenClass, h Holder) address.Key {
	return address.Derive(address.TokenAccount, class[:], h.Owner[:], h.Scope[:])
}

// CustodyIdentity is the owner used for accounts the protocol itself holds,
// such as vote escrow. No private key exists for it.
func CustodyIdentity(name string) crypto.Identity {
	return crypto.Identity(address.Derive(address.TokenAccount, []byte("custody"), []byte(name)))
}

// Observer is told about every successful supply change.
type Observer interface {
	Minted(class state.TokenClass, to Holder, amount uint64)
	Burned(class state.TokenClass, from Holder, amount uint64)
}

// Authority is the capability to mint, burn and transfer. It has no exported
// fields; NewAuthority is the only way to obtain one.
type Authority struct {
	observers []Observer
}

func NewAuthority(observers ...Observer) *Authority {
	return &Authority{observers: observers}
}

// Mint credits amount to holder and raises supply. Zero is a no-op.
func (a *Authority) Mint(tx *store.Tx, class state.TokenClass, to Holder, amount uint64) error {
	if amount == 0 {
		return nil
	}
	if err := a.adjust(tx, class, to, amount, true); err != nil {
		return fmt.Errorf("mint: %w", err)
	}
	for _, o := range a.observers {
		o.Minted(class, to, amount)
	}
	return nil
}

// Burn debits amount from holder and lowers supply. Zero is a no-op.
func (a *Authority) Burn(tx *store.Tx, class state.TokenClass, from Holder, amount uint64) error {
	if amount == 0 {
		return nil
	}
	if err := a.adjust(tx, class, from, amount, false); err != nil {
		return fmt.Errorf("burn: %w", err)
	}
	for _, o := range a.observers {
		o.Burned(class, from, amount)
	}
	return nil
}

// Transfer moves amount between holders without touching supply.
func (a *Authority) Transfer(tx *store.Tx, class state.TokenClass, from, to Holder, amount uint64) error {
	if amount == 0 {
		return nil
	}
	if from == to {
		return ErrSameHolder
	}
	fromKey, toKey := AccountAddress(class, from), AccountAddress(class, to)

	src, err := loadAccount(tx, fromKey)
	if err != nil {
		return fmt.Errorf("transfer: %w", err)
	}
	if src.Amount, err = safemath.CheckedSub64(src.Amount, amount); err != nil {
		return fmt.Errorf("transfer: %w", ErrInsufficientFunds)
	}
	dst, err := loadAccount(tx, toKey)
	if err != nil {
		return fmt.Errorf("transfer: %w", err)
	}
	if dst.Amount, err = safemath.CheckedAdd64(dst.Amount, amount); err != nil {
		return fmt.Errorf("transfer: %w", err)
	}

	if err := tx.Put(address.TokenAccount, fromKey, src); err != nil {
		return err
	}
	return tx.Put(address.TokenAccount, toKey, dst)
}

func (a *Authority) adjust(tx *store.Tx, class state.TokenClass, h Holder, amount uint64, credit bool) error {
	accKey := AccountAddress(class, h)
	acc, err := loadAccount(tx, accKey)
	if err != nil {
		return err
	}
	supply, err := loadSupply(tx, class)
	if err != nil {
		return err
	}

	if credit {
		if acc.Amount, err = safemath.CheckedAdd64(acc.Amount, amount); err != nil {
			return err
		}
		if supply.Total, err = safemath.CheckedAdd64(supply.Total, amount); err != nil {
			return err
		}
	} else {
		if acc.Amount, err = safemath.CheckedSub64(acc.Amount, amount); err != nil {
			return ErrInsufficientFunds
		}
		// supply always covers any single account
		if supply.Total, err = safemath.CheckedSub64(supply.Total, amount); err != nil {
			return err
		}
	}

	if err := tx.Put(address.TokenAccount, accKey, acc); err != nil {
		return err
	}
	return tx.Put(address.TokenSupply, class, supply)
}

// BalanceOf returns holder's balance of class, zero when no account exists.
func BalanceOf(r store.Reader, class state.TokenClass, h Holder) (uint64, error) {
	acc, err := loadAccount(r, AccountAddress(class, h))
	return acc.Amount, err
}

// TotalSupply returns the outstanding amount of class.
func TotalSupply(r store.Reader, class state.TokenClass) (uint64, error) {
	s, err := loadSupply(r, class)
	return s.Total, err
}

func loadAccount(r store.Reader, key address.Key) (Account, error) {
	acc, err := store.Load[Account](r, address.TokenAccount, key)
	if errors.Is(err, store.ErrNotFound) {
		return Account{}, nil
	}
	return acc, err
}

func loadSupply(r store.Reader, class state.TokenClass) (Supply, error) {
	s, err := store.Load[Supply](r, address.TokenSupply, class)
	if errors.Is(err, store.ErrNotFound) {
		return Supply{}, nil
	}
	return s, err
}
