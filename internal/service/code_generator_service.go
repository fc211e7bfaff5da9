package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/zenops/valuation-api/internal/repository"
	"go.uber.org/zap"
)

const (
	codePrefix = "VAL"
	codeDigits = 4
)

// CodeGeneratorService produces year-scoped sequential assignment codes.
//
// Format: VAL/{YEAR}/{SEQUENCE}
// Example: VAL/2026/0001, VAL/2026/0042
//
// The sequence restarts at 1 each calendar year. Codes are monotonically
// increasing within a year; the generator scans for the highest code over
// the year prefix, comparing by length before value so sequences past the
// zero-padding width (10000 and up) still rank above shorter ones.
type CodeGeneratorService struct {
	repo   *repository.AssignmentRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewCodeGeneratorService creates a new CodeGeneratorService
func NewCodeGeneratorService(repo *repository.AssignmentRepository, logger *zap.Logger) *CodeGeneratorService {
	return &CodeGeneratorService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// NextCode computes the next assignment code for the current year.
//
// A malformed max code fails the request: silently restarting at 1 could
// mint a code that collides with a valid high-sequence code from the same
// year, so corruption is surfaced instead of guessed around.
//
// Two concurrent callers can compute the same code; the insert's uniqueness
// constraint catches that and the caller retries (see AssignmentService).
func (s *CodeGeneratorService) NextCode(ctx context.Context) (string, error) {
	year := s.now().UTC().Year()
	prefix := fmt.Sprintf("%s/%d/", codePrefix, year)

	maxCode, err := s.repo.GetMaxCodeForPrefix(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("failed to read last assignment code: %w", err)
	}

	next := 1
	if maxCode != "" {
		suffix := strings.TrimPrefix(maxCode, prefix)
		seq, err := strconv.Atoi(suffix)
		if err != nil || seq < 0 {
			s.logger.Error("malformed assignment code at top of sequence",
				zap.String("code", maxCode),
				zap.Int("year", year))
			return "", fmt.Errorf("%w: %s", ErrMalformedCode, maxCode)
		}
		next = seq + 1
	}

	code := fmt.Sprintf("%s%0*d", prefix, codeDigits, next)

	s.logger.Debug("generated assignment code",
		zap.String("code", code),
		zap.Int("year", year),
		zap.Int("sequence", next))

	return code, nil
}
