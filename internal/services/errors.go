// Package services defines the business logic for horoscope generation,
// caching and history. This file centralizes the service-level error values
// so that handlers can translate them into HTTP results consistently.
//
// Client-correctable conditions (unknown sign, bad input, foreign or missing
// history ids) are returned as these sentinels. Provider failures surface as
// ErrGenerationFailed; store failures are returned raw and logged by the
// handler layer only.
package services

import (
	"errors"
	"fmt"

	"github.com/tbourn/go-horoscope-backend/internal/llm"
)

var (
	// ErrUnknownSign indicates the user has neither a stored sign nor a date
	// of birth to classify, so no reading can be produced.
	ErrUnknownSign = errors.New("zodiac sign unknown")

	// ErrGenerationFailed wraps llm.ErrGeneration. Callers should present a
	// generic retry message.
	ErrGenerationFailed = errors.New("horoscope generation failed, please try again later")

	// ErrMissingBirthTime is returned by persisted generation when the
	// caller supplied no birth time.
	ErrMissingBirthTime = errors.New("birth time is required")

	// ErrInvalidBirthTime is returned for a birth time that is not HH:MM[:SS].
	ErrInvalidBirthTime = errors.New("birth time must be HH:MM or HH:MM:SS")

	// ErrInvalidBirthDate is returned for a date of birth that is not a
	// valid YYYY-MM-DD calendar day.
	ErrInvalidBirthDate = errors.New("date of birth must be a valid YYYY-MM-DD date")

	// ErrHistoryNotFound indicates the history entry does not exist or
	// belongs to another user.
	ErrHistoryNotFound = errors.New("horoscope history entry not found")
)

// generationErr maps provider failures onto ErrGenerationFailed and leaves
// every other error untouched.
func generationErr(err error) error {
	if err != nil && errors.Is(err, llm.ErrGeneration) {
		return fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	return err
}
