package identity

import (
	"context"
	"time"

	"birthpad-backend/internal/domain"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NonceStore records consumed (wallet, nonce) pairs. Consume must be atomic:
// it returns false when the pair was already consumed.
type NonceStore interface {
	Seen(ctx context.Context, wallet, nonce string) (bool, error)
	Consume(ctx context.Context, wallet, nonce string) (bool, error)
}

func nonceKey(wallet, nonce string) string {
	return wallet + ":" + nonce
}

// RedisNonceStore keeps consumed nonces in Redis under "nonce:{wallet}:{nonce}".
// A zero TTL keeps them forever.
type RedisNonceStore struct {
	Client *redis.Client
	TTL    time.Duration
}

func (s *RedisNonceStore) Seen(ctx context.Context, wallet, nonce string) (bool, error) {
	n, err := s.Client.Exists(ctx, "nonce:"+nonceKey(wallet, nonce)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *RedisNonceStore) Consume(ctx context.Context, wallet, nonce string) (bool, error) {
	return s.Client.SetNX(ctx, "nonce:"+nonceKey(wallet, nonce), time.Now().Unix(), s.TTL).Result()
}

// LedgerNonceStore keeps consumed nonces in the ledger database.
type LedgerNonceStore struct {
	DB *gorm.DB
}

func (s *LedgerNonceStore) Seen(ctx context.Context, wallet, nonce string) (bool, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&domain.ConsumedNonce{}).
		Where("nonce_key = ?", nonceKey(wallet, nonce)).
		Count(&count).Error
	return count > 0, err
}

func (s *LedgerNonceStore) Consume(ctx context.Context, wallet, nonce string) (bool, error) {
	res := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&domain.ConsumedNonce{Key: nonceKey(wallet, nonce), WalletAddress: wallet})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
