package usecase

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/cvtoletter/backend/internal/domain/model"
	domainRepo "github.com/cvtoletter/backend/internal/domain/repository"
	apperrors "github.com/cvtoletter/backend/pkg/errors"
)

const generationCost = 1

type GenerateRequest struct {
	JobDescription string `json:"job_description" validate:"required,max=20000"`
	FileID         string `json:"file_id" validate:"required"`
}

// GeneratedLetter is what the external generator returns.
type GeneratedLetter struct {
	CoverLetter   string          `json:"cover_letter"`
	MatchScore    *float64        `json:"match_score,omitempty"`
	MatchAnalysis json.RawMessage `json:"match_analysis,omitempty"`
}

// Generator produces cover-letter text for an uploaded resume.
type Generator interface {
	Generate(ctx context.Context, accountID string, req GenerateRequest) (*GeneratedLetter, error)
}

type GenerationResult struct {
	*GeneratedLetter
	CreditsRemaining int64 `json:"credits_remaining"`
}

// GenerationService charges one credit per generation and refunds it when
// the generator fails.
type GenerationService struct {
	accounts  domainRepo.AccountRepository
	credits   domainRepo.CreditRepository
	letters   domainRepo.CoverLetterRepository
	generator Generator
	timeout   time.Duration
	logger    *zap.Logger
}

func NewGenerationService(
	accounts domainRepo.AccountRepository,
	credits domainRepo.CreditRepository,
	letters domainRepo.CoverLetterRepository,
	generator Generator,
	timeout time.Duration,
	logger *zap.Logger,
) *GenerationService {
	return &GenerationService{
		accounts:  accounts,
		credits:   credits,
		letters:   letters,
		generator: generator,
		timeout:   timeout,
		logger:    logger,
	}
}

// Generate returns an INSUFFICIENT_CREDITS ledger error when the balance is
// empty. Generator failures surface as BAD_GATEWAY after the refund.
func (s *GenerationService) Generate(ctx context.Context, principal Principal, req GenerateRequest) (*GenerationResult, error) {
	log := s.logger.With(zap.String("account_id", principal.ID.String()))

	if _, err := s.accounts.Ensure(ctx, principal.ID, principal.Email); err != nil {
		return nil, err
	}

	charge, err := s.credits.UseCredits(ctx, principal.ID, generationCost, "Cover letter generation")
	if err != nil {
		log.Info("Generation refused", zap.Error(err))
		return nil, err
	}

	genCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	letter, genErr := s.generator.Generate(genCtx, principal.ID.String(), req)
	if genErr != nil {
		log.Error("Cover letter generation failed, refunding credit", zap.Error(genErr))
		// the request context may already be cancelled; the refund must still land
		if _, err := s.credits.IncrementCredits(context.WithoutCancel(ctx), principal.ID, generationCost,
			model.TransactionTypeRefund, "Refund: generation failed"); err != nil {
			log.Error("Failed to refund generation credit", zap.Error(err))
		}
		return nil, apperrors.NewAppError(apperrors.ErrBadGateway, "failed to generate cover letter", genErr)
	}

	if err := s.credits.RecordUsage(ctx, principal.ID); err != nil {
		log.Warn("Failed to record usage", zap.Error(err))
	}

	saved := &model.CoverLetter{
		AccountID:      principal.ID,
		FileID:         req.FileID,
		JobDescription: req.JobDescription,
		Content:        letter.CoverLetter,
		MatchScore:     letter.MatchScore,
		Source:         "web",
	}
	if err := s.letters.Create(ctx, saved); err != nil {
		log.Warn("Failed to save cover letter", zap.Error(err))
	}

	log.Info("Cover letter generated", zap.Int64("credits_remaining", charge.BalanceAfter))
	return &GenerationResult{GeneratedLetter: letter, CreditsRemaining: charge.BalanceAfter}, nil
}
