package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/wras-dhh/server/domain/entities"
)

// ErrNotFound marks lookups for entities that do not exist or are inactive.
var ErrNotFound = errors.New("not found")

// SynthesisError reports a failed or empty text-to-speech call. It is
// non-fatal for a generation run: the language is marked absent and the
// remaining languages proceed.
type SynthesisError struct {
	Language entities.Language
	Err      error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesis failed for %s: %v", e.Language, e.Err)
}

func (e *SynthesisError) Unwrap() error {
	return e.Err
}

// ConcatenationError reports a failed media merge. Detail carries a
// truncated diagnostic from the merge tool.
type ConcatenationError struct {
	Output string
	Detail string
}

const concatDetailLimit = 300

func (e *ConcatenationError) Error() string {
	return fmt.Sprintf("concatenation to %s failed: %s", e.Output, e.Detail)
}

// NewConcatenationError truncates detail so tool output cannot flood the
// job's error field.
func NewConcatenationError(output, detail string) *ConcatenationError {
	detail = strings.TrimSpace(detail)
	if len(detail) > concatDetailLimit {
		detail = detail[:concatDetailLimit]
	}
	return &ConcatenationError{Output: output, Detail: detail}
}

// NoMatchingVideoError reports that zero words of a sign-language request
// resolved against the dataset. It carries the known vocabulary so callers
// can diagnose what the dataset actually covers.
type NoMatchingVideoError struct {
	Vocabulary []string
}

func (e *NoMatchingVideoError) Error() string {
	return fmt.Sprintf("no matching sign-language videos found; available words: %s",
		strings.Join(e.Vocabulary, ", "))
}

// PartialLanguageFailure reports that fewer than all languages produced
// audio. The per-language outputs that did succeed remain available.
type PartialLanguageFailure struct {
	Produced int
	Total    int
}

func (e *PartialLanguageFailure) Error() string {
	return fmt.Sprintf("only %d out of %d language files generated", e.Produced, e.Total)
}

// StorageError reports that none of the candidate publish directories was
// writable.
type StorageError struct {
	Dirs []string
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("no writable directory found, tried: %s", strings.Join(e.Dirs, ", "))
}
