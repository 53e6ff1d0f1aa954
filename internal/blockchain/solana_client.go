package blockchain

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"creator-insurance/internal/metrics"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"
)

// ErrChainUnavailable is returned when the RPC node could not be reached
// within the configured attempts. Callers treat it as a transient condition.
var ErrChainUnavailable = errors.New("blockchain RPC unavailable")

var lamportsPerSOL = decimal.NewFromInt(1_000_000_000)

// SolanaClient handles Solana blockchain interactions
type SolanaClient struct {
	rpcClient    *rpc.Client
	network      string
	serverWallet *solana.Wallet
	rpcTimeout   time.Duration
	maxAttempts  int
}

// NewSolanaClient creates a new Solana client
func NewSolanaClient(network, privateKey string, rpcTimeout time.Duration, maxAttempts int) *SolanaClient {
	var rpcURL string
	switch network {
	case "mainnet-beta":
		rpcURL = "https://api.mainnet-beta.solana.com"
	case "devnet":
		rpcURL = "https://api.devnet.solana.com"
	case "testnet":
		rpcURL = "https://api.testnet.solana.com"
	default:
		rpcURL = "https://api.devnet.solana.com"
	}

	if maxAttempts < 1 {
		maxAttempts = 1
	}

	client := &SolanaClient{
		rpcClient:   rpc.New(rpcURL),
		network:     network,
		rpcTimeout:  rpcTimeout,
		maxAttempts: maxAttempts,
	}

	// Initialize server wallet if private key is provided
	if privateKey != "" {
		wallet, err := solana.WalletFromPrivateKeyBase58(privateKey)
		if err != nil {
			log.Printf("Warning: Failed to load server wallet: %v", err)
		} else {
			client.serverWallet = wallet
			log.Printf("Server wallet loaded: %s", wallet.PublicKey())
		}
	}

	return client
}

// ServerWallet returns the server signing wallet, nil if not configured
func (s *SolanaClient) ServerWallet() *solana.Wallet {
	return s.serverWallet
}

// withRetry runs an RPC call with a per-attempt timeout, retrying transient
// failures. After the last attempt the error is wrapped in ErrChainUnavailable
// so callers can map it to a service-unavailable response.
func (s *SolanaClient) withRetry(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, s.rpcTimeout)
		lastErr = fn(attemptCtx)
		cancel()

		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			break
		}

		log.Printf("RPC %s attempt %d/%d failed: %v", op, attempt, s.maxAttempts, lastErr)

		if attempt < s.maxAttempts {
			select {
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			case <-ctx.Done():
				metrics.ChainRPCFailures.Inc()
				return fmt.Errorf("%w: %s: %v", ErrChainUnavailable, op, ctx.Err())
			}
		}
	}
	metrics.ChainRPCFailures.Inc()
	return fmt.Errorf("%w: %s: %v", ErrChainUnavailable, op, lastErr)
}

// ValidateWalletAddress validates a Solana wallet address format
func (s *SolanaClient) ValidateWalletAddress(address string) bool {
	_, err := solana.PublicKeyFromBase58(address)
	return err == nil
}

// GetVaultBalance gets the SOL balance held by a vault account
func (s *SolanaClient) GetVaultBalance(ctx context.Context, vaultAddress string) (decimal.Decimal, error) {
	pubKey, err := solana.PublicKeyFromBase58(vaultAddress)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid vault address: %w", err)
	}

	var lamports uint64
	err = s.withRetry(ctx, "getBalance", func(ctx context.Context) error {
		resp, err := s.rpcClient.GetBalance(ctx, pubKey, rpc.CommitmentConfirmed)
		if err != nil {
			return err
		}
		lamports = resp.Value
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}

	// Convert lamports to SOL
	return decimal.NewFromInt(int64(lamports)).Div(lamportsPerSOL), nil
}

// VerifyTransaction reports whether a transaction signature is confirmed on
// chain. A missing or unconfirmed transaction is (false, nil); a failed
// transaction is an error.
func (s *SolanaClient) VerifyTransaction(ctx context.Context, signature string) (bool, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return false, fmt.Errorf("invalid signature: %w", err)
	}

	var status *rpc.GetSignatureStatusesResult
	err = s.withRetry(ctx, "getSignatureStatuses", func(ctx context.Context) error {
		var err error
		status, err = s.rpcClient.GetSignatureStatuses(ctx, true, sig)
		return err
	})
	if err != nil {
		return false, err
	}

	if len(status.Value) == 0 || status.Value[0] == nil {
		return false, nil // Not found
	}

	if status.Value[0].Err != nil {
		log.Printf("Transaction %s failed with error: %v", signature, status.Value[0].Err)
		return false, fmt.Errorf("transaction execution failed")
	}

	confStatus := status.Value[0].ConfirmationStatus
	if confStatus != rpc.ConfirmationStatusConfirmed && confStatus != rpc.ConfirmationStatusFinalized {
		return false, nil // Not confirmed yet
	}

	return true, nil
}

// GetRecentBlockhash gets the latest blockhash
func (s *SolanaClient) GetRecentBlockhash(ctx context.Context) (solana.Hash, error) {
	var hash solana.Hash
	err := s.withRetry(ctx, "getLatestBlockhash", func(ctx context.Context) error {
		resp, err := s.rpcClient.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
		if err != nil {
			return err
		}
		hash = resp.Value.Blockhash
		return nil
	})
	return hash, err
}

// SendTransaction sends a signed transaction to the network
func (s *SolanaClient) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	var sig solana.Signature
	err := s.withRetry(ctx, "sendTransaction", func(ctx context.Context) error {
		var err error
		sig, err = s.rpcClient.SendTransactionWithOpts(
			ctx,
			tx,
			rpc.TransactionOpts{
				SkipPreflight:       false,
				PreflightCommitment: rpc.CommitmentConfirmed,
			},
		)
		return err
	})
	if err != nil {
		return solana.Signature{}, err
	}
	return sig, nil
}

// ConfirmTransaction polls the signature status until it is confirmed or the
// deadline runs out
func (s *SolanaClient) ConfirmTransaction(ctx context.Context, sig solana.Signature, deadline time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		confirmed, err := s.VerifyTransaction(ctx, sig.String())
		if err != nil && !errors.Is(err, ErrChainUnavailable) {
			return err
		}
		if confirmed {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: transaction %s not confirmed in time", ErrChainUnavailable, sig)
		case <-ticker.C:
		}
	}
}

// GetTokenAccountBalance gets the SPL token balance for a specific owner and mint
func (s *SolanaClient) GetTokenAccountBalance(ctx context.Context, ownerAddress string, mintAddress string) (uint64, error) {
	owner, err := solana.PublicKeyFromBase58(ownerAddress)
	if err != nil {
		return 0, fmt.Errorf("invalid owner address: %w", err)
	}
	mint, err := solana.PublicKeyFromBase58(mintAddress)
	if err != nil {
		return 0, fmt.Errorf("invalid mint address: %w", err)
	}

	var resp *rpc.GetTokenAccountsResult
	err = s.withRetry(ctx, "getTokenAccountsByOwner", func(ctx context.Context) error {
		var err error
		resp, err = s.rpcClient.GetTokenAccountsByOwner(
			ctx,
			owner,
			&rpc.GetTokenAccountsConfig{
				Mint: &mint,
			},
			&rpc.GetTokenAccountsOpts{
				Encoding: solana.EncodingBase64,
			},
		)
		return err
	})
	if err != nil {
		return 0, err
	}

	if len(resp.Value) == 0 {
		return 0, nil // No account means 0 balance
	}

	// Sum up balances if multiple accounts exist for the mint
	var totalBalance uint64
	for _, account := range resp.Value {
		var tokenAccount token.Account
		decoder := bin.NewBinDecoder(account.Account.Data.GetBinary())
		err := tokenAccount.UnmarshalWithDecoder(decoder)
		if err != nil {
			log.Printf("Warning: failed to decode token account data: %v", err)
			continue
		}
		totalBalance += tokenAccount.Amount
	}

	return totalBalance, nil
}
