package ledger

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

// registryABI covers the read surface of the product registry contract.
const registryABI = `[
  {"type":"function","stateMutability":"view","name":"quickVerify",
   "inputs":[{"name":"uid","type":"string"}],
   "outputs":[{"name":"exists","type":"bool"},{"name":"status","type":"uint8"},
              {"name":"manufacturer","type":"address"},{"name":"batchNumber","type":"string"}]},
  {"type":"function","stateMutability":"view","name":"products",
   "inputs":[{"name":"uid","type":"string"}],
   "outputs":[{"name":"uid","type":"string"},{"name":"batchNumber","type":"string"},
              {"name":"category","type":"string"},{"name":"manufactureDate","type":"uint256"},
              {"name":"manufacturer","type":"address"},{"name":"productHash","type":"bytes32"},
              {"name":"status","type":"uint8"}]},
  {"type":"function","stateMutability":"view","name":"getSaleInfo",
   "inputs":[{"name":"uid","type":"string"}],
   "outputs":[{"name":"wasSold","type":"bool"},{"name":"retailer","type":"address"},
              {"name":"saleDate","type":"uint256"},{"name":"location","type":"string"}]},
  {"type":"function","stateMutability":"view","name":"authorizedManufacturers",
   "inputs":[{"name":"account","type":"address"}],
   "outputs":[{"name":"","type":"bool"}]},
  {"type":"function","stateMutability":"view","name":"authorizedRetailers",
   "inputs":[{"name":"account","type":"address"}],
   "outputs":[{"name":"","type":"bool"}]},
  {"type":"function","stateMutability":"view","name":"owner",
   "inputs":[],
   "outputs":[{"name":"","type":"address"}]}
]`

// EthClient reads the registry contract over JSON-RPC. All methods are
// read-only eth_call invocations against the latest block.
type EthClient struct {
	rpc      *ethclient.Client
	abi      abi.ABI
	contract common.Address
}

// Dial connects to the chain RPC endpoint and binds the registry contract
// address.
func Dial(ctx context.Context, rpcURL, contractAddress string) (*EthClient, error) {
	if !common.IsHexAddress(contractAddress) {
		return nil, fmt.Errorf("invalid registry contract address %q", contractAddress)
	}

	parsed, err := abi.JSON(strings.NewReader(registryABI))
	if err != nil {
		return nil, fmt.Errorf("parse registry ABI: %w", err)
	}

	rpc, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial ledger rpc: %w", err)
	}

	return &EthClient{
		rpc:      rpc,
		abi:      parsed,
		contract: common.HexToAddress(contractAddress),
	}, nil
}

// Close releases the underlying RPC connection.
func (c *EthClient) Close() {
	c.rpc.Close()
}

func (c *EthClient) call(ctx context.Context, method string, args ...any) ([]any, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	out, err := c.rpc.CallContract(ctx, ethereum.CallMsg{To: &c.contract, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}

	results, err := c.abi.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return results, nil
}

// Product combines the quickVerify and products reads into one fact.
func (c *EthClient) Product(ctx context.Context, productID string) (ProductFact, error) {
	results, err := c.call(ctx, "quickVerify", productID)
	if err != nil {
		return ProductFact{}, err
	}

	fact := ProductFact{
		ProductID:    productID,
		Exists:       results[0].(bool),
		Status:       Status(results[1].(uint8)),
		Manufacturer: results[2].(common.Address).Hex(),
		BatchNumber:  results[3].(string),
	}
	if !fact.Exists {
		return fact, nil
	}

	// Enrich from the full product record; failures here lose only the
	// optional fields, not the fact itself.
	if record, err := c.call(ctx, "products", productID); err == nil {
		fact.Category = record[2].(string)
		if ts, ok := record[3].(*big.Int); ok && ts.Sign() > 0 {
			fact.ManufactureDate = time.Unix(ts.Int64(), 0).UTC()
		}
		fact.ContentFingerprint = fingerprintHex(record[5].([32]byte))
	}
	return fact, nil
}

// ProductFingerprint returns the content fingerprint stored at creation.
func (c *EthClient) ProductFingerprint(ctx context.Context, productID string) (string, error) {
	results, err := c.call(ctx, "products", productID)
	if err != nil {
		return "", err
	}
	return fingerprintHex(results[5].([32]byte)), nil
}

// SaleInfo returns the sale record for a product.
func (c *EthClient) SaleInfo(ctx context.Context, productID string) (SaleFact, error) {
	results, err := c.call(ctx, "getSaleInfo", productID)
	if err != nil {
		return SaleFact{}, err
	}

	fact := SaleFact{
		ProductID: productID,
		WasSold:   results[0].(bool),
		Retailer:  results[1].(common.Address).Hex(),
		Location:  results[3].(string),
	}
	if ts, ok := results[2].(*big.Int); ok && ts.Sign() > 0 {
		fact.SaleDate = time.Unix(ts.Int64(), 0).UTC()
	}
	return fact, nil
}

// AuthorizedManufacturer reports allow-list membership for a manufacturer.
func (c *EthClient) AuthorizedManufacturer(ctx context.Context, address string) (bool, error) {
	return c.authorized(ctx, "authorizedManufacturers", address)
}

// AuthorizedRetailer reports allow-list membership for a retailer.
func (c *EthClient) AuthorizedRetailer(ctx context.Context, address string) (bool, error) {
	return c.authorized(ctx, "authorizedRetailers", address)
}

func (c *EthClient) authorized(ctx context.Context, method, address string) (bool, error) {
	if !common.IsHexAddress(address) {
		return false, fmt.Errorf("invalid address %q", address)
	}
	results, err := c.call(ctx, method, common.HexToAddress(address))
	if err != nil {
		return false, err
	}
	return results[0].(bool), nil
}

// Owner returns the trust-set owner address.
func (c *EthClient) Owner(ctx context.Context) (string, error) {
	results, err := c.call(ctx, "owner")
	if err != nil {
		return "", err
	}
	return results[0].(common.Address).Hex(), nil
}

// fingerprintHex renders an on-chain bytes32 hash as 0x-hex, empty for the
// zero hash (no fingerprint recorded).
func fingerprintHex(h [32]byte) string {
	zero := true
	for _, b := range h {
		if b != 0 {
			zero = false
			break
		}
	}
	if zero {
		return ""
	}
	return "0x" + hex.EncodeToString(h[:])
}

var _ Reader = (*EthClient)(nil)
