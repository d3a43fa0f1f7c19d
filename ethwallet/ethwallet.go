package ethwallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/0xsequence/urkit/ethrpc"
	"github.com/0xsequence/urkit/ethtxn"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

type Wallet struct {
	hdnode     *HDNode
	privateKey *ecdsa.PrivateKey
	address    common.Address
	provider   ethrpc.Interface
}

func NewWalletFromRandomEntropy(bitSize ...int) (*Wallet, error) {
	size := 0
	if len(bitSize) > 0 {
		size = bitSize[0]
	}
	hdnode, err := NewHDNodeFromRandomEntropy(size, nil)
	if err != nil {
		return nil, err
	}
	return NewWalletFromHDNode(hdnode)
}

func NewWalletFromMnemonic(mnemonic string, derivationPath ...string) (*Wallet, error) {
	var path *accounts.DerivationPath
	if len(derivationPath) > 0 && derivationPath[0] != "" {
		p, err := accounts.ParseDerivationPath(derivationPath[0])
		if err != nil {
			return nil, err
		}
		path = &p
	}
	hdnode, err := NewHDNodeFromMnemonic(mnemonic, path)
	if err != nil {
		return nil, err
	}
	return NewWalletFromHDNode(hdnode)
}

func NewWalletFromHDNode(hdnode *HDNode) (*Wallet, error) {
	if hdnode == nil {
		return nil, fmt.Errorf("ethwallet: hdnode is nil")
	}
	return &Wallet{hdnode: hdnode, privateKey: hdnode.PrivateKey(), address: hdnode.Address()}, nil
}

// NewWalletFromPrivateKey accepts a hex private key, with or without 0x prefix.
func NewWalletFromPrivateKey(key string) (*Wallet, error) {
	if len(key) > 2 && key[:2] == "0x" {
		key = key[2:]
	}
	privateKey, err := crypto.HexToECDSA(key)
	if err != nil {
		return nil, fmt.Errorf("ethwallet: invalid private key: %w", err)
	}
	return &Wallet{privateKey: privateKey, address: crypto.PubkeyToAddress(privateKey.PublicKey)}, nil
}

// SelfDeriveAccountIndex moves the wallet to account i of its derivation path.
func (w *Wallet) SelfDeriveAccountIndex(accountIndex uint32) (common.Address, error) {
	if w.hdnode == nil {
		return common.Address{}, fmt.Errorf("ethwallet: wallet has no hdnode to derive from")
	}
	if err := w.hdnode.DeriveAccountIndex(accountIndex); err != nil {
		return common.Address{}, err
	}
	w.privateKey = w.hdnode.PrivateKey()
	w.address = w.hdnode.Address()
	return w.address, nil
}

func (w *Wallet) Clone() (*Wallet, error) {
	if w.hdnode == nil {
		return &Wallet{privateKey: w.privateKey, address: w.address, provider: w.provider}, nil
	}
	hdnode, err := NewHDNodeFromMnemonic(w.hdnode.Mnemonic(), nil)
	if err != nil {
		return nil, err
	}
	if err := hdnode.DerivePath(w.hdnode.DerivationPath()); err != nil {
		return nil, err
	}
	clone, _ := NewWalletFromHDNode(hdnode)
	clone.provider = w.provider
	return clone, nil
}

func (w *Wallet) Address() common.Address {
	return w.address
}

func (w *Wallet) HDNode() *HDNode {
	return w.hdnode
}

func (w *Wallet) PrivateKeyHex() string {
	return "0x" + common.Bytes2Hex(crypto.FromECDSA(w.privateKey))
}

func (w *Wallet) SetProvider(provider ethrpc.Interface) {
	w.provider = provider
}

func (w *Wallet) GetProvider() ethrpc.Interface {
	return w.provider
}

func (w *Wallet) GetBalance(ctx context.Context) (*big.Int, error) {
	if w.provider == nil {
		return nil, fmt.Errorf("ethwallet: provider is not set")
	}
	return w.provider.BalanceAt(ctx, w.address, nil)
}

func (w *Wallet) GetNonce(ctx context.Context) (uint64, error) {
	if w.provider == nil {
		return 0, fmt.Errorf("ethwallet: provider is not set")
	}
	return w.provider.PendingNonceAt(ctx, w.address)
}

// SignMessage signs message with the EIP-191 personal message prefix.
func (w *Wallet) SignMessage(message []byte) ([]byte, error) {
	sig, err := crypto.Sign(accounts.TextHash(message), w.privateKey)
	if err != nil {
		return nil, err
	}
	sig[64] += 27
	return sig, nil
}

func (w *Wallet) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	signer := types.LatestSignerForChainID(chainID)
	signedTx, err := types.SignTx(tx, signer, w.privateKey)
	if err != nil {
		return nil, fmt.Errorf("ethwallet: sign tx: %w", err)
	}
	return signedTx, nil
}

// NewTransaction fills in the unset fields of txnRequest from the provider and
// returns the signed transaction, ready to be sent.
func (w *Wallet) NewTransaction(ctx context.Context, txnRequest *ethtxn.TransactionRequest) (*types.Transaction, error) {
	if w.provider == nil {
		return nil, fmt.Errorf("ethwallet: provider is not set")
	}
	if txnRequest == nil {
		return nil, fmt.Errorf("ethwallet: txnRequest is required")
	}
	txnRequest.From = w.address

	rawTx, err := ethtxn.NewTransaction(ctx, w.provider, txnRequest)
	if err != nil {
		return nil, err
	}

	chainID, err := w.provider.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("ethwallet: %w", err)
	}
	return w.SignTx(rawTx, chainID)
}

func (w *Wallet) SendTransaction(ctx context.Context, signedTx *types.Transaction) (*types.Transaction, ethtxn.WaitReceipt, error) {
	if w.provider == nil {
		return nil, nil, fmt.Errorf("ethwallet: provider is not set")
	}
	return ethtxn.SendTransaction(ctx, w.provider, signedTx)
}
