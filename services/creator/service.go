package creator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"liveshop-creatorplane/pkg/errutil"
	"liveshop-creatorplane/pkg/repository"
)

type Service struct {
	db   *gorm.DB
	node *snowflake.Node

	creators repository.Repository[Creator]
}

type ServiceParams struct {
	fx.In
	DB   *gorm.DB
	Node *snowflake.Node
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:       p.DB,
		node:     p.Node,
		creators: repository.ProvideStore[Creator](p.DB),
	}
}

type OnboardParams struct {
	DisplayName  string
	Timezone     string
	Availability WeeklyAvailability
}

// Onboard registers a creator in pending status. Activation is a separate step
// driven by the review flow.
func (s *Service) Onboard(ctx context.Context, p OnboardParams) (*Creator, error) {
	if p.DisplayName == "" {
		return nil, errutil.ValidationFailed("display name is required")
	}
	if _, err := time.LoadLocation(p.Timezone); err != nil {
		return nil, errutil.ValidationFailed("invalid timezone", errutil.WithErr(err))
	}
	if p.Availability == nil {
		p.Availability = WeeklyAvailability{}
	}
	if err := p.Availability.Validate(); err != nil {
		return nil, errutil.ValidationFailed("invalid availability", errutil.WithErr(err))
	}

	id := s.node.Generate().String()
	handle := slug.Make(p.DisplayName)
	suffixed := fmt.Sprintf("%s-%s", handle, id[len(id)-4:])
	if existing, err := s.creators.FindOne(ctx, &Creator{Handle: handle}); err != nil {
		return nil, err
	} else if existing != nil {
		handle = suffixed
	}

	c := &Creator{
		ID:           id,
		Handle:       handle,
		DisplayName:  p.DisplayName,
		Tier:         TierBronze,
		TrustScore:   50,
		Availability: datatypes.NewJSONType(p.Availability),
		Timezone:     p.Timezone,
		Status:       StatusPending,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := s.creators.Create(ctx, c); err != nil {
		// The handle check races with concurrent onboards; the unique index
		// catches the loser, which retries with the id-suffixed handle.
		if errors.Is(err, gorm.ErrDuplicatedKey) && c.Handle != suffixed {
			c.Handle = suffixed
			err = s.creators.Create(ctx, c)
		}
		if err != nil {
			zap.L().Error("failed to create creator", zap.Error(err))
			return nil, err
		}
	}

	zap.L().Info("creator onboarded",
		zap.String("creator_id", c.ID),
		zap.String("handle", c.Handle),
	)

	return c, nil
}

func (s *Service) Get(ctx context.Context, creatorID string) (*Creator, error) {
	c, err := s.creators.FindOne(ctx, &Creator{ID: creatorID})
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, errutil.NotFound("creator not found")
	}
	return c, nil
}

// ListActive returns active creators ordered by scheduling priority,
// tier rank descending then trust score descending.
func (s *Service) ListActive(ctx context.Context) ([]*Creator, error) {
	creators, err := s.creators.Find(ctx, &Creator{Status: StatusActive})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(creators, func(i, j int) bool {
		if creators[i].Tier.Rank() != creators[j].Tier.Rank() {
			return creators[i].Tier.Rank() > creators[j].Tier.Rank()
		}
		return creators[i].TrustScore > creators[j].TrustScore
	})

	return creators, nil
}

func (s *Service) Activate(ctx context.Context, creatorID string) error {
	return s.transition(ctx, creatorID, StatusActive, StatusPending, StatusSuspended)
}

func (s *Service) Suspend(ctx context.Context, creatorID string) error {
	return s.transition(ctx, creatorID, StatusSuspended, StatusActive)
}

func (s *Service) transition(ctx context.Context, creatorID string, to Status, from ...Status) error {
	res := s.db.WithContext(ctx).
		Model(&Creator{}).
		Where("id = ? AND status IN ?", creatorID, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		existing, err := s.creators.FindOne(ctx, &Creator{ID: creatorID})
		if err != nil {
			return err
		}
		if existing == nil {
			return errutil.NotFound("creator not found")
		}
		return errutil.InvalidState(fmt.Sprintf("cannot move creator from %s to %s", existing.Status, to))
	}
	return nil
}

func (s *Service) SetAvailability(ctx context.Context, creatorID string, availability WeeklyAvailability) error {
	if err := availability.Validate(); err != nil {
		return errutil.ValidationFailed("invalid availability", errutil.WithErr(err))
	}

	c, err := s.Get(ctx, creatorID)
	if err != nil {
		return err
	}

	return s.creators.Update(ctx, c.ID, map[string]any{
		"availability": datatypes.NewJSONType(availability),
		"updated_at":   time.Now(),
	})
}
