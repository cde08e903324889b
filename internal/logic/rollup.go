package logic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/basestats/stats-engine/internal/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// memberLoadConcurrency caps parallel member snapshot reads per roll-up.
const memberLoadConcurrency = 8

type rollupService struct {
	store  DocumentStore
	logger *zap.SugaredLogger
	tracer trace.Tracer
	retry  RetryConfig
	now    func() time.Time
}

func NewRollupService(store DocumentStore, logger *zap.SugaredLogger) RollupService {
	return &rollupService{
		store:  store,
		logger: logger,
		tracer: otel.Tracer(tracerName),
		retry:  DefaultRetryConfig(),
		now:    time.Now,
	}
}

// FoldMember adds member into team. Batting and fielding always count,
// pitching only for pitchers. Team games is the most any member played, not
// the sum. Folding into a freshly zeroed team is idempotent per pass.
func FoldMember(team, member *models.StatSnapshot, isPitcher bool) {
	if member == nil {
		return
	}
	team.MergeBatting(member.Counters)
	if isPitcher {
		team.MergePitching(member.Counters)
	}
	if member.Games > team.Games {
		team.Games = member.Games
	}
	if member.GameDate.After(team.GameDate) {
		team.GameDate = member.GameDate
	}
	refreshDerived(team)
}

// RollupTeam rebuilds the team's roll-up snapshot for key from the current
// member snapshots. Members without a snapshot contribute nothing.
func (s *rollupService) RollupTeam(ctx context.Context, teamID string, key models.CategoryKey) (*models.RollupResult, error) {
	ctx, span := s.tracer.Start(ctx, "RollupTeam", trace.WithAttributes(
		attribute.String("team_id", teamID),
		attribute.String("category", key.String()),
	))
	defer span.End()

	roster, err := s.loadRoster(ctx, teamID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load roster failed")
		return nil, err
	}

	members := make([]*models.StatSnapshot, len(roster.Members))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(memberLoadConcurrency)
	for i, m := range roster.Members {
		g.Go(func() error {
			snap, err := loadSnapshot(gctx, s.store, models.Subject{Kind: models.SubjectUser, ID: m.UserID}, key)
			if err != nil {
				return fmt.Errorf("member %s: %w", m.UserID, err)
			}
			members[i] = snap
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	subject := models.Subject{Kind: models.SubjectTeamRollup, ID: teamID}
	team := models.NewSnapshot(subject, key)
	result := &models.RollupResult{TeamID: teamID, Category: key, Members: len(roster.Members)}
	for i, m := range roster.Members {
		if members[i] == nil {
			result.MissingMembers = append(result.MissingMembers, m.UserID)
			continue
		}
		FoldMember(team, members[i], m.IsPitcher)
	}
	refreshDerived(team)
	team.UpdatedAt = s.now().UTC()

	body, err := json.Marshal(team)
	if err != nil {
		return nil, err
	}
	_, err = withRetry(ctx, s.retry, func() (struct{}, error) {
		return struct{}{}, s.store.Transact(ctx, models.SnapshotRef(subject, key), func([]byte) ([]byte, error) {
			return body, nil
		})
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("store team roll-up: %w", err)
	}

	rollupsCompleted.Inc()
	result.Snapshot = team
	result.RolledUpAt = team.UpdatedAt
	return result, nil
}

// RollupAll rebuilds every known team for every key. Failures are logged and
// do not stop the other teams.
func (s *rollupService) RollupAll(ctx context.Context, keys []models.CategoryKey) error {
	docs, err := s.store.Query(ctx, models.CollectionRosters, "")
	if err != nil {
		return fmt.Errorf("list rosters: %w", err)
	}

	var errs []error
	for _, doc := range docs {
		for _, key := range keys {
			if err := ctx.Err(); err != nil {
				return err
			}
			if _, err := s.RollupTeam(ctx, doc.Ref.ID, key); err != nil {
				s.logger.Warnw("Team roll-up failed", "team_id", doc.Ref.ID, "category", key.String(), "error", err)
				errs = append(errs, err)
			}
		}
	}
	s.logger.Infow("Team roll-up pass complete", "teams", len(docs), "categories", len(keys), "failures", len(errs))
	return errors.Join(errs...)
}

// SaveRoster replaces the team's roster.
func (s *rollupService) SaveRoster(ctx context.Context, roster *models.TeamRoster) error {
	if err := Validate(roster); err != nil {
		return err
	}
	body, err := json.Marshal(roster)
	if err != nil {
		return err
	}
	return s.store.BatchWrite(ctx, []models.Document{{Ref: models.RosterRef(roster.TeamID), Body: body}})
}

func (s *rollupService) loadRoster(ctx context.Context, teamID string) (*models.TeamRoster, error) {
	body, err := s.store.Get(ctx, models.RosterRef(teamID))
	if err != nil {
		return nil, fmt.Errorf("roster %s: %w", teamID, err)
	}
	var roster models.TeamRoster
	if err := json.Unmarshal(body, &roster); err != nil {
		return nil, fmt.Errorf("decode roster %s: %w", teamID, err)
	}
	return &roster, nil
}

// loadSnapshot reads a snapshot, returning nil without error when it is absent.
func loadSnapshot(ctx context.Context, store DocumentStore, subject models.Subject, key models.CategoryKey) (*models.StatSnapshot, error) {
	body, err := store.Get(ctx, models.SnapshotRef(subject, key))
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeSnapshot(body, subject, key)
}
