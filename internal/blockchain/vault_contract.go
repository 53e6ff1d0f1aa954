package blockchain

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"log"
	"time"

	"creator-insurance/internal/models"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// VaultContract handles interactions with the on-chain insurance program. It
// builds and signs the payout and refund instructions with the server wallet
// and implements the settlement service's vault gateway.
type VaultContract struct {
	client    *SolanaClient
	programID solana.PublicKey
}

// NewVaultContract creates a new vault contract instance
func NewVaultContract(client *SolanaClient, programID string) (*VaultContract, error) {
	programPubkey, err := solana.PublicKeyFromBase58(programID)
	if err != nil {
		return nil, fmt.Errorf("invalid program ID: %w", err)
	}

	return &VaultContract{
		client:    client,
		programID: programPubkey,
	}, nil
}

// anchorDiscriminator computes the 8-byte Anchor instruction discriminator
func anchorDiscriminator(name string) []byte {
	sum := sha256.Sum256([]byte("global:" + name))
	return sum[:8]
}

// GetCreatorPoolPDA derives the PDA of a creator's protection pool
func (v *VaultContract) GetCreatorPoolPDA(creator solana.PublicKey) (solana.PublicKey, uint8, error) {
	seeds := [][]byte{
		[]byte("creator_pool"),
		creator.Bytes(),
	}

	pda, bump, err := solana.FindProgramAddress(seeds, v.programID)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("failed to derive creator pool PDA: %w", err)
	}

	return pda, bump, nil
}

// GetPoolVaultPDA derives the PDA of the pool's lamport vault
func (v *VaultContract) GetPoolVaultPDA(pool solana.PublicKey) (solana.PublicKey, uint8, error) {
	seeds := [][]byte{
		[]byte("vault"),
		pool.Bytes(),
	}

	pda, bump, err := solana.FindProgramAddress(seeds, v.programID)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("failed to derive pool vault PDA: %w", err)
	}

	return pda, bump, nil
}

// GetVaultBalance returns the vault's SOL balance
func (v *VaultContract) GetVaultBalance(ctx context.Context, vaultAddress string) (decimal.Decimal, error) {
	return v.client.GetVaultBalance(ctx, vaultAddress)
}

// PayoutToCreator sends the vault balance to the creator for an approved
// claim. The transaction is signed by the server wallet and confirmed before
// the signature is returned.
func (v *VaultContract) PayoutToCreator(
	ctx context.Context,
	claim *models.Claim,
	creatorWallet string,
	amount decimal.Decimal,
) (string, error) {
	wallet := v.client.ServerWallet()
	if wallet == nil {
		return "", fmt.Errorf("server wallet not configured")
	}

	creator, err := solana.PublicKeyFromBase58(creatorWallet)
	if err != nil {
		return "", fmt.Errorf("invalid creator wallet: %w", err)
	}

	pool, vault, err := v.resolvePoolAccounts(claim, creator)
	if err != nil {
		return "", err
	}

	claimAccount, err := v.resolveClaimAccount(claim, creator)
	if err != nil {
		return "", err
	}

	data := anchorDiscriminator("payout_claim")
	data = appendLamports(data, amount)

	inst := solana.NewInstruction(
		v.programID,
		solana.AccountMetaSlice{
			solana.NewAccountMeta(claimAccount, true, false),
			solana.NewAccountMeta(pool, true, false),
			solana.NewAccountMeta(vault, true, false),
			solana.NewAccountMeta(creator, true, false),
			solana.NewAccountMeta(wallet.PublicKey(), true, true),
			solana.NewAccountMeta(solana.SystemProgramID, false, false),
		},
		data,
	)

	sig, err := v.signAndSend(ctx, []solana.Instruction{inst})
	if err != nil {
		return "", fmt.Errorf("payout transaction failed: %w", err)
	}

	log.Printf("Payout for claim %s sent: %s SOL to %s (tx %s)", claim.ID, amount, creatorWallet, sig)
	return sig, nil
}

// RefundToHolders splits the vault balance across the pass holders for a
// rejected claim. Each holder gets one refund instruction; the whole batch
// lands in a single transaction.
func (v *VaultContract) RefundToHolders(
	ctx context.Context,
	claim *models.Claim,
	transfers []models.Transfer,
) (string, error) {
	if len(transfers) == 0 {
		return "", fmt.Errorf("refund requires at least one holder")
	}

	wallet := v.client.ServerWallet()
	if wallet == nil {
		return "", fmt.Errorf("server wallet not configured")
	}

	creatorPool, err := v.poolFromClaim(claim)
	if err != nil {
		return "", err
	}

	vault, _, err := v.GetPoolVaultPDA(creatorPool)
	if err != nil {
		return "", err
	}

	claimAccount, err := v.resolveClaimAccount(claim, creatorPool)
	if err != nil {
		return "", err
	}

	instructions := make([]solana.Instruction, 0, len(transfers))
	for _, t := range transfers {
		holder, err := solana.PublicKeyFromBase58(t.WalletAddress)
		if err != nil {
			return "", fmt.Errorf("invalid holder wallet %s: %w", t.WalletAddress, err)
		}

		data := anchorDiscriminator("refund_holder")
		data = appendLamports(data, t.Amount)

		instructions = append(instructions, solana.NewInstruction(
			v.programID,
			solana.AccountMetaSlice{
				solana.NewAccountMeta(claimAccount, true, false),
				solana.NewAccountMeta(creatorPool, true, false),
				solana.NewAccountMeta(vault, true, false),
				solana.NewAccountMeta(holder, true, false),
				solana.NewAccountMeta(wallet.PublicKey(), true, true),
				solana.NewAccountMeta(solana.SystemProgramID, false, false),
			},
			data,
		))
	}

	sig, err := v.signAndSend(ctx, instructions)
	if err != nil {
		return "", fmt.Errorf("refund transaction failed: %w", err)
	}

	log.Printf("Refund for claim %s sent across %d holders (tx %s)", claim.ID, len(transfers), sig)
	return sig, nil
}

// signAndSend builds, signs and sends a transaction, then waits for confirmation
func (v *VaultContract) signAndSend(ctx context.Context, instructions []solana.Instruction) (string, error) {
	wallet := v.client.ServerWallet()
	if wallet == nil {
		return "", fmt.Errorf("server wallet not configured")
	}

	blockhash, err := v.client.GetRecentBlockhash(ctx)
	if err != nil {
		return "", err
	}

	tx, err := solana.NewTransaction(
		instructions,
		blockhash,
		solana.TransactionPayer(wallet.PublicKey()),
	)
	if err != nil {
		return "", fmt.Errorf("failed to build transaction: %w", err)
	}

	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(wallet.PublicKey()) {
			return &wallet.PrivateKey
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	sig, err := v.client.SendTransaction(ctx, tx)
	if err != nil {
		return "", err
	}

	if err := v.client.ConfirmTransaction(ctx, sig, 60*time.Second); err != nil {
		return "", err
	}

	return sig.String(), nil
}

// resolvePoolAccounts finds the creator pool and vault accounts for a claim
func (v *VaultContract) resolvePoolAccounts(claim *models.Claim, creator solana.PublicKey) (solana.PublicKey, solana.PublicKey, error) {
	var pool solana.PublicKey
	var err error

	if claim.CreatorPoolAddress != nil {
		pool, err = solana.PublicKeyFromBase58(*claim.CreatorPoolAddress)
		if err != nil {
			return solana.PublicKey{}, solana.PublicKey{}, fmt.Errorf("invalid creator pool address: %w", err)
		}
	} else {
		pool, _, err = v.GetCreatorPoolPDA(creator)
		if err != nil {
			return solana.PublicKey{}, solana.PublicKey{}, err
		}
	}

	vault, _, err := v.GetPoolVaultPDA(pool)
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, err
	}

	return pool, vault, nil
}

// poolFromClaim returns the recorded creator pool account
func (v *VaultContract) poolFromClaim(claim *models.Claim) (solana.PublicKey, error) {
	if claim.CreatorPoolAddress == nil {
		return solana.PublicKey{}, fmt.Errorf("claim has no creator pool address on record")
	}
	pool, err := solana.PublicKeyFromBase58(*claim.CreatorPoolAddress)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid creator pool address: %w", err)
	}
	return pool, nil
}

// resolveClaimAccount finds the on-chain claim account, deriving the PDA from
// the pool when the claim row carries no explicit address
func (v *VaultContract) resolveClaimAccount(claim *models.Claim, fallbackSeed solana.PublicKey) (solana.PublicKey, error) {
	if claim.OnchainClaimAddress != nil {
		account, err := solana.PublicKeyFromBase58(*claim.OnchainClaimAddress)
		if err != nil {
			return solana.PublicKey{}, fmt.Errorf("invalid on-chain claim address: %w", err)
		}
		return account, nil
	}

	seeds := [][]byte{
		[]byte("claim"),
		fallbackSeed.Bytes(),
	}
	pda, _, err := solana.FindProgramAddress(seeds, v.programID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to derive claim PDA: %w", err)
	}
	return pda, nil
}

// appendLamports appends a SOL amount as little-endian lamports
func appendLamports(data []byte, amount decimal.Decimal) []byte {
	lamports := amount.Mul(lamportsPerSOL).IntPart()
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(lamports))
	return append(data, buf...)
}
