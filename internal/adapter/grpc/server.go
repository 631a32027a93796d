package grpc

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/simaogato/tradesense-backend/internal/domain"
	"github.com/simaogato/tradesense-backend/internal/usecase/challenge"
	"github.com/simaogato/tradesense-backend/internal/usecase/currency"
	"github.com/simaogato/tradesense-backend/internal/usecase/dashboard"
	"github.com/simaogato/tradesense-backend/internal/usecase/evaluation"
	"github.com/simaogato/tradesense-backend/internal/usecase/leaderboard"
	"github.com/simaogato/tradesense-backend/internal/usecase/performance"
	"github.com/simaogato/tradesense-backend/internal/usecase/position"
)

// Format modes accepted by FormatAmount
const (
	modePlain  = "plain"
	modeSigned = "signed"
	modeLarge  = "large"
)

// Server implements the ChallengeService gRPC server
type Server struct {
	PerformanceService *performance.PerformanceService
	EvaluationService  *evaluation.EvaluationService
	ChallengeService   *challenge.ChallengeService
	LeaderboardService *leaderboard.LeaderboardService
	DashboardService   *dashboard.DashboardService
	PlanRepo           domain.PlanRepository
	Converter          *currency.Converter
	DefaultCurrency    domain.CurrencyCode

	logger *zap.Logger
	now    func() time.Time
}

// NewServer creates a new gRPC server instance
func NewServer(
	performanceService *performance.PerformanceService,
	evaluationService *evaluation.EvaluationService,
	challengeService *challenge.ChallengeService,
	leaderboardService *leaderboard.LeaderboardService,
	dashboardService *dashboard.DashboardService,
	planRepo domain.PlanRepository,
	converter *currency.Converter,
	defaultCurrency domain.CurrencyCode,
	logger *zap.Logger,
) *Server {
	return &Server{
		PerformanceService: performanceService,
		EvaluationService:  evaluationService,
		ChallengeService:   challengeService,
		LeaderboardService: leaderboardService,
		DashboardService:   dashboardService,
		PlanRepo:           planRepo,
		Converter:          converter,
		DefaultCurrency:    defaultCurrency,
		logger:             logger,
		now:                time.Now,
	}
}

// currencyOf returns the display currency requested in fields.
// Missing means the configured default, unknown codes render as the reference currency.
func (s *Server) currencyOf(fields map[string]*structpb.Value) domain.CurrencyCode {
	code := domain.ParseCurrencyCode(stringField(fields, "currency"))
	if code == "" {
		code = s.DefaultCurrency
	}
	if !s.Converter.Table.Has(code) {
		return domain.ReferenceCurrency
	}
	return code
}

// GetPerformance handles the GetPerformance RPC
func (s *Server) GetPerformance(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	challengeID, err := uuidField(fields, "challenge_id")
	if err != nil {
		return nil, err
	}
	cur := s.currencyOf(fields)

	perf, err := s.PerformanceService.GetChallengePerformance(ctx, challengeID)
	if err != nil {
		return nil, mapError(err)
	}

	ch := perf.Challenge
	out := s.performanceFields(perf.Result, cur)
	out["challenge_id"] = ch.ID.String()
	out["plan"] = perf.Plan.Name
	out["status"] = string(ch.Status)
	out["starting_balance"] = ch.StartingBalance.String()
	out["equity"] = ch.Equity.String()
	out["day_start_equity"] = ch.DayStartEquity.String()
	out["starting_balance_display"] = s.Converter.FormatLarge(ch.StartingBalance, cur)
	out["equity_display"] = s.Converter.FormatLarge(ch.Equity, cur)

	return newStruct(out)
}

// ComputePerformance handles the ComputePerformance RPC.
// It computes the figures of a challenge snapshot sent by the caller,
// using the float shape of the REST backend, without touching storage.
func (s *Server) ComputePerformance(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	cur := s.currencyOf(fields)

	payload := domain.SnapshotPayload{Status: stringField(fields, "status")}
	numbers := []struct {
		name string
		dst  *float64
	}{
		{"starting_balance", &payload.StartingBalance},
		{"equity", &payload.Equity},
		{"day_start_equity", &payload.DayStartEquity},
		{"profit_target", &payload.ProfitTarget},
		{"max_daily_loss", &payload.MaxDailyLoss},
		{"max_total_loss", &payload.MaxTotalLoss},
	}
	for _, n := range numbers {
		value, err := floatField(fields, n.name)
		if err != nil {
			return nil, err
		}
		*n.dst = value
	}

	snapshot, err := payload.ToSnapshot()
	if err != nil {
		return nil, mapError(err)
	}

	result, err := s.PerformanceService.Calculator.Compute(snapshot)
	if err != nil {
		return nil, mapError(err)
	}

	out := s.performanceFields(result, cur)
	out["status"] = string(snapshot.Status)
	return newStruct(out)
}

// performanceFields renders the computed figures, raw and for display
func (s *Server) performanceFields(r performance.Result, cur domain.CurrencyCode) map[string]interface{} {
	return map[string]interface{}{
		"currency":            string(cur),
		"total_pnl":           r.TotalPnL.String(),
		"total_pnl_percent":   r.TotalPnLPercent.String(),
		"daily_pnl":           r.DailyPnL.String(),
		"daily_pnl_percent":   r.DailyPnLPercent.String(),
		"profit_progress":     r.ProfitProgress.String(),
		"daily_loss_progress": r.DailyLossProgress.String(),
		"total_loss_progress": r.TotalLossProgress.String(),

		"total_pnl_display":         s.Converter.FormatWithSign(r.TotalPnL, cur, currency.DefaultDecimals),
		"daily_pnl_display":         s.Converter.FormatWithSign(r.DailyPnL, cur, currency.DefaultDecimals),
		"total_pnl_percent_display": currency.FormatSignedPercent(r.TotalPnLPercent),
		"daily_pnl_percent_display": currency.FormatSignedPercent(r.DailyPnLPercent),
		"profit_progress_display":   currency.FormatPercent(r.ProfitProgress),
	}
}

// EvaluateChallenge handles the EvaluateChallenge RPC.
// With all set it sweeps every active challenge instead of one.
func (s *Server) EvaluateChallenge(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	now := s.now()

	if boolField(fields, "all") {
		outcomes, err := s.EvaluationService.EvaluateActive(ctx, now)
		if err != nil {
			return nil, mapError(err)
		}
		changed := 0
		for _, o := range outcomes {
			if o.Challenge.Status != o.PreviousStatus {
				changed++
			}
		}
		s.logger.Info("evaluation sweep finished",
			zap.Int("evaluated", len(outcomes)),
			zap.Int("changed", changed))
		return newStruct(map[string]interface{}{
			"evaluated":    len(outcomes),
			"changed":      changed,
			"evaluated_at": now.UTC().Format(time.RFC3339),
		})
	}

	challengeID, err := uuidField(fields, "challenge_id")
	if err != nil {
		return nil, err
	}

	outcome, err := s.EvaluationService.Evaluate(ctx, challengeID, now)
	if err != nil {
		return nil, mapError(err)
	}

	return newStruct(outcomeFields(outcome, now))
}

func outcomeFields(outcome *evaluation.Outcome, now time.Time) map[string]interface{} {
	ch := outcome.Challenge
	return map[string]interface{}{
		"challenge_id":     ch.ID.String(),
		"status":           string(ch.Status),
		"previous_status":  string(outcome.PreviousStatus),
		"rule":             string(outcome.Rule),
		"rolled_over":      outcome.RolledOver,
		"equity":           ch.Equity.String(),
		"day_start_equity": ch.DayStartEquity.String(),
		"day_start_date":   ch.DayStartDate.Format(time.DateOnly),
		"evaluated_at":     now.UTC().Format(time.RFC3339),
	}
}

// StartChallenge handles the StartChallenge RPC
func (s *Server) StartChallenge(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	userID, err := uuidField(fields, "user_id")
	if err != nil {
		return nil, err
	}
	planID, err := uuidField(fields, "plan_id")
	if err != nil {
		return nil, err
	}

	ch, err := s.ChallengeService.Start(ctx, userID, planID, s.now())
	if err != nil {
		return nil, mapError(err)
	}

	return newStruct(map[string]interface{}{
		"challenge_id":     ch.ID.String(),
		"user_id":          ch.UserID.String(),
		"plan_id":          ch.PlanID.String(),
		"status":           string(ch.Status),
		"starting_balance": ch.StartingBalance.String(),
		"day_start_date":   ch.DayStartDate.Format(time.DateOnly),
		"created_at":       ch.CreatedAt.UTC().Format(time.RFC3339),
	})
}

// SetChallengeStatus handles the SetChallengeStatus RPC
func (s *Server) SetChallengeStatus(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	challengeID, err := uuidField(fields, "challenge_id")
	if err != nil {
		return nil, err
	}

	ch, err := s.ChallengeService.SetStatus(ctx, challengeID, stringField(fields, "status"))
	if err != nil {
		return nil, mapError(err)
	}

	return newStruct(map[string]interface{}{
		"challenge_id": ch.ID.String(),
		"status":       string(ch.Status),
	})
}

// GetStats handles the GetStats RPC
func (s *Server) GetStats(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	cur := s.currencyOf(req.GetFields())

	stats, err := s.DashboardService.GetStats(ctx)
	if err != nil {
		return nil, mapError(err)
	}

	byStatus := make(map[string]interface{}, len(stats.ByStatus))
	for st, n := range stats.ByStatus {
		byStatus[string(st)] = n
	}
	byPlan := make(map[string]interface{}, len(stats.ByPlan))
	for name, n := range stats.ByPlan {
		byPlan[name] = n
	}

	return newStruct(map[string]interface{}{
		"currency": string(cur),
		"challenges": map[string]interface{}{
			"total":     stats.TotalChallenges,
			"by_status": byStatus,
			"by_plan":   byPlan,
		},
		"financial": map[string]interface{}{
			"active_challenges":              stats.ActiveChallenges,
			"total_equity":                   stats.TotalEquity.String(),
			"total_equity_display":           s.Converter.FormatLarge(stats.TotalEquity, cur),
			"total_starting_balance":         stats.TotalStartingBalance.String(),
			"total_starting_balance_display": s.Converter.FormatLarge(stats.TotalStartingBalance, cur),
			"total_profit":                   stats.TotalProfit.String(),
			"total_profit_display":           s.Converter.FormatLarge(stats.TotalProfit, cur),
			"total_loss":                     stats.TotalLoss.String(),
			"total_loss_display":             s.Converter.FormatLarge(stats.TotalLoss, cur),
		},
	})
}

// UpdateEquity handles the UpdateEquity RPC.
// The new equity is recorded then the rules are applied right away.
func (s *Server) UpdateEquity(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	challengeID, err := uuidField(fields, "challenge_id")
	if err != nil {
		return nil, err
	}
	equity, err := decimalField(fields, "equity")
	if err != nil {
		return nil, err
	}

	if _, err := s.ChallengeService.UpdateEquity(ctx, challengeID, equity); err != nil {
		return nil, mapError(err)
	}

	now := s.now()
	outcome, err := s.EvaluationService.Evaluate(ctx, challengeID, now)
	if err != nil {
		return nil, mapError(err)
	}

	return newStruct(outcomeFields(outcome, now))
}

// ListPlans handles the ListPlans RPC
func (s *Server) ListPlans(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	cur := s.currencyOf(req.GetFields())

	plans, err := s.PlanRepo.List(ctx)
	if err != nil {
		return nil, mapError(err)
	}

	items := make([]interface{}, 0, len(plans))
	for _, p := range plans {
		items = append(items, map[string]interface{}{
			"id":                       p.ID.String(),
			"name":                     p.Name,
			"price":                    p.Price.String(),
			"price_display":            s.Converter.Format(p.Price, cur, currency.DefaultDecimals),
			"starting_balance":         p.StartingBalance.String(),
			"starting_balance_display": s.Converter.FormatLarge(p.StartingBalance, cur),
			"profit_target_pct":        p.ProfitTargetPct.String(),
			"max_daily_loss_pct":       p.MaxDailyLossPct.String(),
			"max_total_loss_pct":       p.MaxTotalLossPct.String(),
		})
	}

	return newStruct(map[string]interface{}{
		"currency": string(cur),
		"plans":    items,
	})
}

// GetLeaderboard handles the GetLeaderboard RPC
func (s *Server) GetLeaderboard(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	limit, err := intField(fields, "limit", leaderboard.DefaultLimit)
	if err != nil {
		return nil, err
	}
	cur := s.currencyOf(fields)

	entries, err := s.LeaderboardService.Top(ctx, limit)
	if err != nil {
		return nil, mapError(err)
	}

	rows := make([]interface{}, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, map[string]interface{}{
			"rank":                   e.Rank,
			"challenge_id":           e.ChallengeID.String(),
			"user_id":                e.UserID.String(),
			"status":                 string(e.Status),
			"equity":                 e.Equity.String(),
			"equity_display":         s.Converter.FormatLarge(e.Equity, cur),
			"profit_percent":         e.ProfitPercent.String(),
			"profit_percent_display": currency.FormatSignedPercent(e.ProfitPercent),
		})
	}

	return newStruct(map[string]interface{}{
		"currency": string(cur),
		"entries":  rows,
	})
}

// FormatAmount handles the FormatAmount RPC
func (s *Server) FormatAmount(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	amount, err := decimalField(fields, "amount")
	if err != nil {
		return nil, err
	}
	decimals, err := intField(fields, "decimals", currency.DefaultDecimals)
	if err != nil {
		return nil, err
	}
	if decimals < 0 || decimals > currency.MaxDecimals {
		return nil, status.Errorf(codes.InvalidArgument, "decimals must be between 0 and %d, got %d", currency.MaxDecimals, decimals)
	}
	cur := s.currencyOf(fields)

	var display string
	switch mode := strings.ToLower(stringField(fields, "mode")); mode {
	case "", modePlain:
		display = s.Converter.Format(amount, cur, decimals)
	case modeSigned:
		display = s.Converter.FormatWithSign(amount, cur, decimals)
	case modeLarge:
		display = s.Converter.FormatLarge(amount, cur)
	default:
		return nil, status.Errorf(codes.InvalidArgument, "unknown mode %q", mode)
	}

	return newStruct(map[string]interface{}{
		"display":   display,
		"symbol":    s.Converter.SymbolOf(cur),
		"converted": s.Converter.Convert(amount, cur).String(),
		"currency":  string(cur),
	})
}

// ValuePositions handles the ValuePositions RPC
func (s *Server) ValuePositions(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	cur := s.currencyOf(fields)

	raw := fields["positions"].GetListValue().GetValues()
	positions := make([]domain.Position, 0, len(raw))
	for _, v := range raw {
		p, err := positionFromFields(v.GetStructValue().GetFields())
		if err != nil {
			return nil, err
		}
		positions = append(positions, p)
	}

	valuations, total, err := position.ValueAll(positions)
	if err != nil {
		return nil, mapError(err)
	}

	items := make([]interface{}, 0, len(valuations))
	for _, v := range valuations {
		items = append(items, map[string]interface{}{
			"symbol":              v.Position.Symbol,
			"side":                string(v.Position.Side),
			"pnl":                 v.PnL.String(),
			"pnl_percent":         v.PnLPercent.String(),
			"pnl_display":         s.Converter.FormatWithSign(v.PnL, cur, currency.DefaultDecimals),
			"pnl_percent_display": currency.FormatSignedPercent(v.PnLPercent),
		})
	}

	return newStruct(map[string]interface{}{
		"currency":          string(cur),
		"positions":         items,
		"total_pnl":         total.String(),
		"total_pnl_display": s.Converter.FormatWithSign(total, cur, currency.DefaultDecimals),
	})
}

func positionFromFields(fields map[string]*structpb.Value) (domain.Position, error) {
	p := domain.Position{
		Symbol: stringField(fields, "symbol"),
		Side:   domain.Side(strings.ToUpper(stringField(fields, "side"))),
	}

	amounts := []struct {
		name string
		dst  *decimal.Decimal
	}{
		{"quantity", &p.Quantity},
		{"entry_price", &p.EntryPrice},
		{"current_price", &p.CurrentPrice},
	}
	for _, a := range amounts {
		value, err := decimalField(fields, a.name)
		if err != nil {
			return domain.Position{}, err
		}
		*a.dst = value
	}

	return p, nil
}

// mapError converts domain errors to gRPC status errors
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidBalance),
		errors.Is(err, domain.ErrInvalidThreshold),
		errors.Is(err, domain.ErrNonFinite),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrInvalidPosition),
		errors.Is(err, domain.ErrNegativeEquity):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrChallengeClosed):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, domain.ErrStaleChallenge):
		return status.Error(codes.Aborted, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
