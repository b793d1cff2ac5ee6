// ethereum.go — реализация Client поверх Ethereum-совместимого
// смарт-контракта MedicineRegistry (JSON-RPC).
//
// Клиент создаётся один раз при старте процесса и переиспользуется;
// ошибка установления соединения — отдельная от ошибок отдельных вызовов.
package ledger

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/fingerprint"
)

// registryABI — ABI контракта MedicineRegistry (только используемые методы).
const registryABI = `[
	{"name":"registerMedicine","type":"function","stateMutability":"nonpayable",
		"inputs":[{"name":"_hash","type":"bytes32"},{"name":"_batchId","type":"string"}],
		"outputs":[{"name":"","type":"bool"}]},
	{"name":"verifyMedicine","type":"function","stateMutability":"view",
		"inputs":[{"name":"_hash","type":"bytes32"}],
		"outputs":[{"name":"isValid","type":"bool"},{"name":"batchId","type":"string"},{"name":"registeredAt","type":"uint256"}]},
	{"name":"isMedicineRegistered","type":"function","stateMutability":"view",
		"inputs":[{"name":"_hash","type":"bytes32"}],
		"outputs":[{"name":"","type":"bool"}]}
]`

// EthereumClient — клиент реестра на базе ethclient.
type EthereumClient struct {
	client      *ethclient.Client
	registryAbi abi.ABI
	contract    common.Address
	key         *ecdsa.PrivateKey
	from        common.Address
	chainID     *big.Int
	callTimeout time.Duration
	logger      *slog.Logger

	// txMu сериализует отправку транзакций регистрации:
	// nonce выдаётся последовательно для одного аккаунта.
	txMu sync.Mutex
}

var _ Client = (*EthereumClient)(nil)

// NewEthereumClient устанавливает соединение с RPC-узлом и подготавливает
// подписанта. Ошибка здесь означает некорректную конфигурацию или
// недоступный узел — процесс не должен стартовать.
func NewEthereumClient(
	ctx context.Context,
	rpcURL string,
	contractAddress string,
	privateKeyHex string,
	callTimeout time.Duration,
	logger *slog.Logger,
) (*EthereumClient, error) {
	if !common.IsHexAddress(contractAddress) {
		return nil, fmt.Errorf("некорректный адрес контракта: %q", contractAddress)
	}

	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("подключение к RPC-узлу %s: %w", rpcURL, err)
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("запрос chain ID: %w", err)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("разбор приватного ключа: %w", err)
	}

	parsedABI, err := abi.JSON(strings.NewReader(registryABI))
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("разбор ABI контракта: %w", err)
	}

	from := crypto.PubkeyToAddress(key.PublicKey)
	logger.Info("Клиент реестра инициализирован",
		slog.String("contract", contractAddress),
		slog.String("signer", from.Hex()),
		slog.String("chain_id", chainID.String()),
	)

	return &EthereumClient{
		client:      client,
		registryAbi: parsedABI,
		contract:    common.HexToAddress(contractAddress),
		key:         key,
		from:        from,
		chainID:     chainID,
		callTimeout: callTimeout,
		logger:      logger.With(slog.String("component", "ledger_client")),
	}, nil
}

// Close закрывает соединение с RPC-узлом.
func (c *EthereumClient) Close() {
	c.client.Close()
}

// call выполняет view-вызов контракта с таймаутом.
func (c *EthereumClient) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	data, err := c.registryAbi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("упаковка вызова %s: %w", method, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	out, err := c.client.CallContract(callCtx, ethereum.CallMsg{
		To:   &c.contract,
		Data: data,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: вызов %s: %v", ErrUnavailable, method, err)
	}

	vals, err := c.registryAbi.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("%w: распаковка ответа %s: %v", ErrUnavailable, method, err)
	}
	return vals, nil
}

// Verify запрашивает запись об отпечатке через verifyMedicine(bytes32).
func (c *EthereumClient) Verify(ctx context.Context, fp string) (*Record, error) {
	hash, err := fingerprint.ToBytes32(fp)
	if err != nil {
		return nil, err
	}

	vals, err := c.call(ctx, "verifyMedicine", hash)
	if err != nil {
		return nil, err
	}
	if len(vals) != 3 {
		return nil, fmt.Errorf("%w: неожиданный формат ответа verifyMedicine", ErrUnavailable)
	}

	isValid, _ := vals[0].(bool)
	batchID, _ := vals[1].(string)
	registeredAt, _ := vals[2].(*big.Int)

	rec := &Record{
		IsValid: isValid,
		BatchID: batchID,
	}
	if registeredAt != nil && registeredAt.Sign() > 0 {
		rec.RegisteredAt = time.Unix(registeredAt.Int64(), 0).UTC()
	}
	return rec, nil
}

// Register записывает отпечаток в реестр транзакцией registerMedicine.
// Перед отправкой проверяет повторную регистрацию через
// isMedicineRegistered — контракт в этом случае откатил бы транзакцию,
// а так получаем детерминированную ErrAlreadyRegistered без расхода газа.
func (c *EthereumClient) Register(ctx context.Context, fp, batchID string) (*Receipt, error) {
	hash, err := fingerprint.ToBytes32(fp)
	if err != nil {
		return nil, err
	}

	vals, err := c.call(ctx, "isMedicineRegistered", hash)
	if err != nil {
		return nil, err
	}
	if registered, _ := vals[0].(bool); registered {
		return nil, ErrAlreadyRegistered
	}

	data, err := c.registryAbi.Pack("registerMedicine", hash, batchID)
	if err != nil {
		return nil, fmt.Errorf("упаковка registerMedicine: %w", err)
	}

	c.txMu.Lock()
	defer c.txMu.Unlock()

	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	nonce, err := c.client.PendingNonceAt(callCtx, c.from)
	if err != nil {
		return nil, fmt.Errorf("%w: запрос nonce: %v", ErrUnavailable, err)
	}

	gasPrice, err := c.client.SuggestGasPrice(callCtx)
	if err != nil {
		return nil, fmt.Errorf("%w: запрос цены газа: %v", ErrUnavailable, err)
	}

	gasLimit, err := c.client.EstimateGas(callCtx, ethereum.CallMsg{
		From: c.from,
		To:   &c.contract,
		Data: data,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: оценка газа: %v", ErrUnavailable, err)
	}

	tx := types.NewTransaction(nonce, c.contract, big.NewInt(0), gasLimit, gasPrice, data)
	signedTx, err := types.SignTx(tx, types.LatestSignerForChainID(c.chainID), c.key)
	if err != nil {
		return nil, fmt.Errorf("подписание транзакции: %w", err)
	}

	if err := c.client.SendTransaction(callCtx, signedTx); err != nil {
		return nil, fmt.Errorf("%w: отправка транзакции: %v", ErrUnavailable, err)
	}

	receipt, err := bind.WaitMined(ctx, c.client, signedTx)
	if err != nil {
		return nil, fmt.Errorf("%w: ожидание включения в блок: %v", ErrUnavailable, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("транзакция регистрации откачена контрактом: %s", signedTx.Hash().Hex())
	}

	c.logger.Info("Отпечаток зарегистрирован в реестре",
		slog.String("batch_id", batchID),
		slog.String("tx_hash", signedTx.Hash().Hex()),
		slog.Uint64("block", receipt.BlockNumber.Uint64()),
	)

	return &Receipt{
		TxHash:      signedTx.Hash().Hex(),
		BlockNumber: receipt.BlockNumber.Uint64(),
	}, nil
}
