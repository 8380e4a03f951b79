package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"greenpulse-backend/internal/application/emails"
	"greenpulse-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	// FundedChannel carries one message per project that reached its goal.
	FundedChannel = "greenpulse:projects:funded"
	// RecentFundedKey keeps the latest funded messages for the status dashboard.
	RecentFundedKey = "greenpulse:projects:funded:recent"
	recentFundedMax = 50
)

// FundedMessage is the payload published on FundedChannel.
type FundedMessage struct {
	ProjectID      uuid.UUID `json:"project_id"`
	Title          string    `json:"title"`
	OwnerID        uuid.UUID `json:"owner_id"`
	FundingGoal    float64   `json:"funding_goal"`
	CurrentFunding float64   `json:"current_funding"`
	FundedAt       time.Time `json:"funded_at"`
}

// FundedNotifier fans out a Funded transition: a redis message for other
// services and an email to the project owner. Failures are logged only; the
// donation has already been committed.
type FundedNotifier struct {
	Rdb    *redis.Client
	DB     *gorm.DB
	Emails emails.Sender
}

func (n *FundedNotifier) ProjectFunded(ctx context.Context, p domain.Project) {
	msg := FundedMessage{
		ProjectID:      p.ID,
		Title:          p.Title,
		OwnerID:        p.OwnerID,
		FundingGoal:    p.FundingGoal,
		CurrentFunding: p.CurrentFunding,
		FundedAt:       p.UpdatedAt,
	}
	if err := n.publish(ctx, msg); err != nil {
		log.Error().Err(err).Str("project_id", p.ID.String()).Msg("publish funded event failed")
	}
	if err := n.emailOwner(ctx, p); err != nil {
		log.Error().Err(err).Str("project_id", p.ID.String()).Msg("funded email failed")
	}
}

func (n *FundedNotifier) publish(ctx context.Context, msg FundedMessage) error {
	if n.Rdb == nil {
		return nil
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	pipe := n.Rdb.TxPipeline()
	pipe.Publish(ctx, FundedChannel, b)
	pipe.LPush(ctx, RecentFundedKey, b)
	pipe.LTrim(ctx, RecentFundedKey, 0, recentFundedMax-1)
	_, err = pipe.Exec(ctx)
	return err
}

func (n *FundedNotifier) emailOwner(ctx context.Context, p domain.Project) error {
	if n.Emails == nil || n.DB == nil {
		return nil
	}
	var owner domain.User
	if err := n.DB.WithContext(ctx).Where("user_id = ?", p.OwnerID).First(&owner).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn().Str("owner_id", p.OwnerID.String()).Msg("funded project owner not found")
			return nil
		}
		return err
	}
	firstName := owner.Fullname
	if i := strings.IndexByte(firstName, ' '); i > 0 {
		firstName = firstName[:i]
	}
	return n.Emails.SendProjectFunded(ctx, owner.Email, firstName, emails.FundedProject{
		ID:             p.ID.String(),
		Title:          p.Title,
		FundingGoal:    p.FundingGoal,
		CurrentFunding: p.CurrentFunding,
	})
}

// RecentFunded returns up to limit of the latest funded messages, newest first.
func RecentFunded(ctx context.Context, rdb *redis.Client, limit int64) ([]FundedMessage, error) {
	if rdb == nil {
		return nil, nil
	}
	raw, err := rdb.LRange(ctx, RecentFundedKey, 0, limit-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]FundedMessage, 0, len(raw))
	for _, s := range raw {
		var m FundedMessage
		if json.Unmarshal([]byte(s), &m) == nil {
			out = append(out, m)
		}
	}
	return out, nil
}
