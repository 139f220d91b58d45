package wallet

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// balanceOf(address) function signature
const balanceOfABI = `[{"constant":true,"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"balance","type":"uint256"}],"type":"function"}]`

var erc20ABI = mustParseABI(balanceOfABI)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(fmt.Sprintf("invalid ABI: %v", err))
	}
	return parsed
}

// TokenBalanceReader is implemented by sessions that can read ERC-20 balances
type TokenBalanceReader interface {
	TokenBalanceOf(ctx context.Context, token, account common.Address) (*big.Int, error)
}

// erc20BalanceOf calls balanceOf on the token contract at the latest block
func erc20BalanceOf(ctx context.Context, client ChainClient, token, account common.Address) (*big.Int, error) {
	data, err := erc20ABI.Pack("balanceOf", account)
	if err != nil {
		return nil, fmt.Errorf("failed to pack balanceOf data: %w", err)
	}

	msg := ethereum.CallMsg{
		To:   &token,
		Data: data,
	}

	result, err := client.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to call balanceOf: %w", err)
	}

	out, err := erc20ABI.Unpack("balanceOf", result)
	if err != nil || len(out) != 1 {
		return nil, fmt.Errorf("failed to decode balanceOf result from %s", token.Hex())
	}
	balance, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected balanceOf result type %T", out[0])
	}
	return balance, nil
}
