package services

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image/png"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/skip2/go-qrcode"

	"github.com/goloanme/backend/internal/models"
)

// DonationQR is what a donation QR code resolves to.
type DonationQR struct {
	PostID    string `json:"postId"`
	Amount    int64  `json:"amountGLM"`
	CreatedBy string `json:"createdBy"`
	IssuedAt  int64  `json:"issuedAt"`
}

// DonationQRService issues one-time QR codes that donate a fixed amount to a
// post when scanned by a signed-in user.
type DonationQRService struct {
	redis   *redis.Client
	pledges *PledgeService
	ttl     time.Duration
	now     func() time.Time
	nonce   func() (string, error)
}

func NewDonationQRService(redisClient *redis.Client, pledges *PledgeService, ttl time.Duration) *DonationQRService {
	return &DonationQRService{
		redis:   redisClient,
		pledges: pledges,
		ttl:     ttl,
		now:     time.Now,
		nonce:   generateNonce,
	}
}

func qrKey(token string) string {
	return fmt.Sprintf("qr:donation:%s", token)
}

// GenerateDonationQR stores the donation intent under a random token and
// returns the token with a base64 PNG that encodes it.
func (s *DonationQRService) GenerateDonationQR(ctx context.Context, createdBy, postID string, amount int64) (string, string, error) {
	if postID == "" {
		return "", "", newValidationError("postId", "is required", ErrInvalidOwner)
	}
	if amount < 1 || amount > s.pledges.maxAmount {
		return "", "", newValidationError("amountGLM", fmt.Sprintf("must be between 1 and %d", s.pledges.maxAmount), ErrInvalidAmount)
	}

	payload, err := json.Marshal(DonationQR{
		PostID:    postID,
		Amount:    amount,
		CreatedBy: createdBy,
		IssuedAt:  s.now().Unix(),
	})
	if err != nil {
		return "", "", err
	}

	token, err := s.nonce()
	if err != nil {
		return "", "", err
	}

	if err := s.redis.Set(ctx, qrKey(token), string(payload), s.ttl).Err(); err != nil {
		return "", "", fmt.Errorf("failed to store qr code: %w", err)
	}

	qr, err := qrcode.New(token, qrcode.Medium)
	if err != nil {
		return "", "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qr.Image(256)); err != nil {
		return "", "", err
	}

	return token, base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// RedeemDonationQR consumes token and pledges its amount as a donation from
// userID. A token can only be consumed once.
func (s *DonationQRService) RedeemDonationQR(ctx context.Context, userID, token string) (*models.Pledge, *models.TransferResult, error) {
	key := qrKey(token)

	data, err := s.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil, ErrQRCodeInvalid
	}
	if err != nil {
		return nil, nil, err
	}

	deleted, err := s.redis.Del(ctx, key).Result()
	if err != nil {
		return nil, nil, err
	}
	if deleted == 0 {
		// redeemed concurrently
		return nil, nil, ErrQRCodeInvalid
	}

	var intent DonationQR
	if err := json.Unmarshal([]byte(data), &intent); err != nil {
		return nil, nil, ErrQRCodeInvalid
	}

	return s.pledges.CreatePledge(ctx, CreatePledgeRequest{
		UserID: userID,
		PostID: intent.PostID,
		Type:   models.PledgeDonation,
		Amount: intent.Amount,
	})
}

func generateNonce() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
